package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/pipeline"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/logger"
)

const (
	// MinQueryLength and MinQuestionLength are counted in characters after
	// trimming surrounding whitespace.
	MinQueryLength    = 2
	MinQuestionLength = 3

	// AskContextResults is how many search results feed an answer and
	// CitationCount how many of them are returned as citations.
	AskContextResults = 5
	CitationCount     = 3

	citationMaxLength = 150
	citationCutLength = 147

	statusProbeTimeout = 10 * time.Second
)

// ErrInvalidInput matches every *InputError.
var ErrInvalidInput = errors.New("invalid input")

// InputError reports a request the service refuses to process. Message is
// safe to show to the caller.
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

// Is reports whether target is ErrInvalidInput.
func (e *InputError) Is(target error) bool { return target == ErrInvalidInput }

func invalid(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// ModelLister reports which models the language model backend offers.
type ModelLister interface {
	Model() string
	ListModels(ctx context.Context) ([]string, error)
}

// Limits bounds the size of an ingest batch. A MaxFiles of 0 leaves the
// batch size unbounded.
type Limits struct {
	MinFiles int
	MaxFiles int
}

func (l Limits) check(n int) error {
	bounded := l.MaxFiles > 0
	switch {
	case bounded && l.MinFiles > 0 && (n < l.MinFiles || n > l.MaxFiles):
		return invalid("Between %d and %d files must be uploaded", l.MinFiles, l.MaxFiles)
	case bounded && n > l.MaxFiles:
		return invalid("At most %d files can be uploaded", l.MaxFiles)
	case n < l.MinFiles && l.MinFiles == 1:
		return invalid("At least one file must be uploaded")
	case n < l.MinFiles:
		return invalid("At least %d files must be uploaded", l.MinFiles)
	}
	return nil
}

// IngestedFile describes one document added by Ingest.
type IngestedFile struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Chunks int    `json:"chunks"`
}

// Answer is the result of Ask.
type Answer struct {
	Answer    string   `json:"answer"`
	Citations []string `json:"citations"`
}

// Stats summarises the index.
type Stats struct {
	TotalDocuments int      `json:"documents"`
	TotalChunks    int      `json:"chunks"`
	Documents      []string `json:"document_names"`
}

// OllamaStatus is the outcome of probing the language model backend.
type OllamaStatus struct {
	Connected    bool
	Models       []string
	DefaultModel string
	Message      string
}

// Service ties extraction, indexing, search, answering and persistence
// together. It is safe for concurrent use.
type Service struct {
	log       *logger.Logger
	docStore  interfaces.DocStore
	extractor interfaces.Extractor
	indexing  *pipeline.IndexingPipeline
	retrieval *pipeline.RetrievalPipeline
	qa        *pipeline.QAPipeline
	models    ModelLister
	persister *Persister
	limits    Limits

	// ingestMu keeps the documents of one batch contiguous in the index.
	ingestMu sync.Mutex
}

// New creates a Service. models and persister may be nil: without a
// persister the index lives only in memory.
func New(
	log *logger.Logger,
	docStore interfaces.DocStore,
	extractor interfaces.Extractor,
	retrieval *pipeline.RetrievalPipeline,
	qa *pipeline.QAPipeline,
	models ModelLister,
	persister *Persister,
	limits Limits,
) *Service {
	return &Service{
		log:       log,
		docStore:  docStore,
		extractor: extractor,
		indexing:  pipeline.NewIndexingPipeline(extractor, docStore, log),
		retrieval: retrieval,
		qa:        qa,
		models:    models,
		persister: persister,
		limits:    limits,
	}
}

// Load restores the index from the persisted snapshot, if any.
func (s *Service) Load(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	snap := s.persister.Load(ctx)
	if err := s.docStore.Restore(snap); err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	s.log.Info(fmt.Sprintf("Index restored with %d documents and %d chunks", s.docStore.DocumentCount(), s.docStore.ChunkCount()))
	return nil
}

// Ingest validates and indexes a batch of uploaded files, then schedules a
// snapshot save. A rejected batch leaves the index untouched.
func (s *Service) Ingest(ctx context.Context, files []schema.UploadedFile) ([]IngestedFile, error) {
	if err := s.limits.check(len(files)); err != nil {
		return nil, err
	}
	for _, f := range files {
		if !s.extractor.Supported(f.Name) {
			return nil, invalid("File %s must be .txt or .pdf", f.Name)
		}
	}

	s.ingestMu.Lock()
	docs, err := s.indexing.Run(ctx, files)
	s.ingestMu.Unlock()
	if len(docs) > 0 && s.persister != nil {
		s.persister.Request()
	}
	if err != nil {
		return nil, fmt.Errorf("index documents: %w", err)
	}

	out := make([]IngestedFile, 0, len(docs))
	for _, d := range docs {
		out = append(out, IngestedFile{ID: d.ID, Name: d.Name, Chunks: len(d.Chunks)})
	}
	s.log.Info(fmt.Sprintf("%d documents processed successfully", len(out)))
	return out, nil
}

// Search returns up to limit chunks matching query. A limit of zero or less
// selects the default.
func (s *Service) Search(query string, limit int) ([]schema.SearchResult, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < MinQueryLength {
		return nil, invalid("Search parameter 'q' is required (minimum %d characters)", MinQueryLength)
	}
	return s.retrieval.Run(q, limit), nil
}

// Ask answers question from the best matching chunks. Language model
// failures are folded into the answer text, so only invalid input is
// returned as an error.
func (s *Service) Ask(ctx context.Context, question string) (*Answer, error) {
	q := strings.TrimSpace(question)
	if utf8.RuneCountInString(q) < MinQuestionLength {
		return nil, invalid("Question is required (minimum %d characters)", MinQuestionLength)
	}

	results := s.retrieval.Run(q, AskContextResults)
	answer := s.qa.Run(ctx, q, results)

	citations := make([]string, 0, CitationCount)
	for i, r := range results {
		if i == CitationCount {
			break
		}
		citations = append(citations, Citation(r))
	}
	return &Answer{Answer: answer, Citations: citations}, nil
}

// Citation formats a result as "name: text", shortening long text.
func Citation(r schema.SearchResult) string {
	text := r.Text
	if utf8.RuneCountInString(text) > citationMaxLength {
		text = string([]rune(text)[:citationCutLength]) + "..."
	}
	return r.DocumentName + ": " + text
}

// Stats returns document and chunk counts together with document names in
// insertion order.
func (s *Service) Stats() Stats {
	return Stats{
		TotalDocuments: s.docStore.DocumentCount(),
		TotalChunks:    s.docStore.ChunkCount(),
		Documents:      s.docStore.DocumentNames(),
	}
}

// statusCoder matches errors from a reachable model backend that answered
// with a non-success HTTP status.
type statusCoder interface {
	StatusCode() int
}

// OllamaStatus probes the language model backend. It never fails; problems
// are reported in the returned status.
func (s *Service) OllamaStatus(ctx context.Context) OllamaStatus {
	if s.models == nil {
		return OllamaStatus{Message: "no language model configured"}
	}
	ctx, cancel := context.WithTimeout(ctx, statusProbeTimeout)
	defer cancel()

	names, err := s.models.ListModels(ctx)
	if err != nil {
		s.log.WithErr(err, "llm_error").Warn("Language model status probe failed")
		var sc statusCoder
		if errors.As(err, &sc) {
			return OllamaStatus{Message: fmt.Sprintf("Ollama responded with status %d", sc.StatusCode())}
		}
		return OllamaStatus{Message: "Could not connect to Ollama: " + err.Error()}
	}
	if names == nil {
		names = []string{}
	}
	return OllamaStatus{Connected: true, Models: names, DefaultModel: s.models.Model()}
}

// Close flushes the index to the snapshot store.
func (s *Service) Close(ctx context.Context) error {
	if s.persister == nil {
		return nil
	}
	return s.persister.Close(ctx)
}
