package loaders

import (
	"context"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sync/errgroup"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/logger"
)

// Registry dispatches uploads to a Loader by file extension.
type Registry struct {
	loaders map[string]interfaces.Loader
	log     *logger.Logger
}

// NewRegistry creates a Registry that handles .txt and .pdf files.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		loaders: map[string]interfaces.Loader{
			".txt": NewTxtLoader(),
			".pdf": NewPdfLoader(),
		},
		log: log,
	}
}

// Supported reports whether filename has an extension with a Loader.
// Matching is case-insensitive.
func (r *Registry) Supported(filename string) bool {
	_, ok := r.loaders[extension(filename)]
	return ok
}

// Extensions returns the supported extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.loaders))
	for ext := range r.loaders {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Extract returns the text of one file. It never fails: unsupported or
// unreadable files yield an empty string or a placeholder.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) string {
	ext := extension(filename)
	loader, ok := r.loaders[ext]
	if !ok {
		r.log.WithPayload(map[string]interface{}{"file": filename}).Warn("no loader for file type")
		return ""
	}
	r.checkContent(filename, ext, data)

	text := loader.Load(ctx, filename, data)
	if strings.HasPrefix(text, PdfErrorPrefix) {
		r.log.WithPayload(map[string]interface{}{"file": filename, "reason": strings.TrimPrefix(text, PdfErrorPrefix)}).
			Warn("PDF extraction failed, storing placeholder text")
	}
	return text
}

// ExtractAll extracts files concurrently. The result is in input order.
func (r *Registry) ExtractAll(ctx context.Context, files []schema.UploadedFile) []string {
	texts := make([]string, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			texts[i] = r.Extract(gctx, f.Name, f.Data)
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return texts
}

// checkContent logs when the sniffed content type disagrees with the
// extension. Extraction still follows the extension.
func (r *Registry) checkContent(filename, ext string, data []byte) {
	if len(data) == 0 {
		return
	}
	detected := mimetype.Detect(data)
	var matches bool
	switch ext {
	case ".pdf":
		matches = detected.Is("application/pdf")
	case ".txt":
		matches = strings.HasPrefix(detected.String(), "text/")
	default:
		matches = true
	}
	if !matches {
		r.log.WithPayload(map[string]interface{}{
			"file":     filename,
			"detected": detected.String(),
		}).Warn("upload content does not match its extension")
	}
}

func extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// compile-time check to ensure Registry implements the Extractor interface
var _ interfaces.Extractor = (*Registry)(nil)
