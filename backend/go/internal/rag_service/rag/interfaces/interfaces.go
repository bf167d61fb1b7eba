package interfaces

import (
	"context"

	"docsearch/backend/go/internal/rag_service/rag/schema"
)

// Loader turns uploaded file bytes into plain text. Implementations never
// fail: an unreadable file yields a short placeholder string instead.
type Loader interface {
	Load(ctx context.Context, filename string, data []byte) string
}

// Extractor turns a batch of uploads into text, one string per file in
// input order.
type Extractor interface {
	Supported(filename string) bool
	ExtractAll(ctx context.Context, files []schema.UploadedFile) []string
}

// Splitter cuts extracted text into an ordered list of chunk strings.
type Splitter interface {
	Split(text string) []string
}

// Scorer rates how well a chunk matches a query. The result is in [0, 1].
type Scorer interface {
	Score(chunkText, query string) float64
}

// DocStore is the append-only index of documents and their chunks.
type DocStore interface {
	AddDocument(name, fullText string) (*schema.Document, error)
	Chunks() []schema.ChunkRecord
	DocumentCount() int
	ChunkCount() int
	DocumentNames() []string
	Snapshot() *schema.Snapshot
	Restore(snap *schema.Snapshot) error
}

// SnapshotStore persists a full copy of the index.
type SnapshotStore interface {
	Load(ctx context.Context) (*schema.Snapshot, error)
	Save(ctx context.Context, snap *schema.Snapshot) error
}

// LLM is the interface for a large language model that can generate text.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
