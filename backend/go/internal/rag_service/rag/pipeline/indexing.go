package pipeline

import (
	"context"
	"fmt"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/logger"
)

// IndexingPipeline extracts text from uploads and adds it to the DocStore.
type IndexingPipeline struct {
	extractor interfaces.Extractor
	docStore  interfaces.DocStore
	log       *logger.Logger
}

// NewIndexingPipeline creates a new IndexingPipeline.
func NewIndexingPipeline(extractor interfaces.Extractor, docStore interfaces.DocStore, log *logger.Logger) *IndexingPipeline {
	return &IndexingPipeline{
		extractor: extractor,
		docStore:  docStore,
		log:       log,
	}
}

// Run extracts all files concurrently, then adds them to the store one by
// one in input order so document order matches upload order.
func (p *IndexingPipeline) Run(ctx context.Context, files []schema.UploadedFile) ([]*schema.Document, error) {
	texts := p.extractor.ExtractAll(ctx, files)

	docs := make([]*schema.Document, 0, len(files))
	for i, f := range files {
		doc, err := p.docStore.AddDocument(f.Name, texts[i])
		if err != nil {
			return docs, fmt.Errorf("index %s: %w", f.Name, err)
		}
		p.log.WithPayload(map[string]interface{}{
			"document_id": doc.ID,
			"file":        doc.Name,
			"chunks":      len(doc.Chunks),
		}).Info("Document indexed")
		docs = append(docs, doc)
	}
	return docs, nil
}
