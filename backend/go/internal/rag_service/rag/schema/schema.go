package schema

import "fmt"

// Document is one ingested file: its extracted text and the chunks produced
// from that text at ingestion time. A Document is never edited after it is
// stored; ingesting the same file name again creates a new Document.
type Document struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Content string   `json:"content"`
	Chunks  []string `json:"chunks"`
}

// ChunkRecord is a single searchable unit. It is owned by exactly one
// Document and identified by (DocID, Position).
type ChunkRecord struct {
	Text         string `json:"text"`
	DocumentName string `json:"document_name"`
	DocID        string `json:"doc_id"`
	Position     int    `json:"chunk_index"`
}

// Key returns the composite identity of the chunk.
func (c ChunkRecord) Key() string {
	return ChunkKey(c.DocID, c.Position)
}

// ChunkKey builds the composite chunk identity "<docID>_<position>".
func ChunkKey(docID string, position int) string {
	return fmt.Sprintf("%s_%d", docID, position)
}

// SearchResult is a transient projection returned by a search. Score is
// always within [0, 1].
type SearchResult struct {
	Text         string  `json:"text"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
}

// Snapshot is the full persisted form of the index.
//
// DocumentOrder and ChunkOrder record insertion order, which JSON objects
// do not preserve. Snapshots written without them are still accepted; the
// order is then rebuilt from the documents' chunk lists.
type Snapshot struct {
	Documents     map[string]*Document   `json:"documents"`
	ChunkIndex    map[string]ChunkRecord `json:"chunk_index"`
	DocumentOrder []string               `json:"document_order,omitempty"`
	ChunkOrder    []string               `json:"chunk_order,omitempty"`
}

// NewSnapshot returns an empty snapshot with initialised maps.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		Documents:  make(map[string]*Document),
		ChunkIndex: make(map[string]ChunkRecord),
	}
}

// UploadedFile is a file received for ingestion, before text extraction.
type UploadedFile struct {
	Name string
	Data []byte
}
