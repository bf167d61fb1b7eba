package docstore

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
)

// ErrNilSnapshot is returned by Restore when given a nil snapshot.
var ErrNilSnapshot = errors.New("docstore: nil snapshot")

// InMemoryDocStore is a thread-safe, append-only implementation of the
// DocStore interface. Lookup maps are paired with slices that record
// insertion order, so iteration is deterministic.
type InMemoryDocStore struct {
	splitter interfaces.Splitter
	newID    func() string

	mu         sync.RWMutex
	docs       map[string]*schema.Document
	docOrder   []string
	chunks     map[string]schema.ChunkRecord
	chunkOrder []string
}

// NewInMemoryDocStore creates a new instance of InMemoryDocStore that chunks
// incoming text with splitter.
func NewInMemoryDocStore(splitter interfaces.Splitter) *InMemoryDocStore {
	return &InMemoryDocStore{
		splitter: splitter,
		newID:    func() string { return uuid.New().String() },
		docs:     make(map[string]*schema.Document),
		chunks:   make(map[string]schema.ChunkRecord),
	}
}

// AddDocument chunks fullText, stores a new Document under a fresh id and
// one ChunkRecord per chunk. Chunking happens before the lock is taken, so
// readers only ever see a document together with all of its chunks.
func (s *InMemoryDocStore) AddDocument(name, fullText string) (*schema.Document, error) {
	chunks := s.splitter.Split(fullText)
	if chunks == nil {
		chunks = []string{}
	}

	doc := &schema.Document{
		ID:      s.newID(),
		Name:    name,
		Content: fullText,
		Chunks:  chunks,
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.docs[doc.ID]; exists {
		return nil, fmt.Errorf("docstore: duplicate document id %s", doc.ID)
	}
	s.docs[doc.ID] = doc
	s.docOrder = append(s.docOrder, doc.ID)
	for i, text := range chunks {
		rec := schema.ChunkRecord{
			Text:         text,
			DocumentName: name,
			DocID:        doc.ID,
			Position:     i,
		}
		key := rec.Key()
		s.chunks[key] = rec
		s.chunkOrder = append(s.chunkOrder, key)
	}
	return copyDocument(doc), nil
}

// Chunks returns every chunk record in insertion order.
func (s *InMemoryDocStore) Chunks() []schema.ChunkRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]schema.ChunkRecord, 0, len(s.chunkOrder))
	for _, key := range s.chunkOrder {
		out = append(out, s.chunks[key])
	}
	return out
}

// Document returns a copy of the document with the given id.
func (s *InMemoryDocStore) Document(id string) (*schema.Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, false
	}
	return copyDocument(doc), true
}

// DocumentCount returns the number of stored documents.
func (s *InMemoryDocStore) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// ChunkCount returns the number of stored chunk records.
func (s *InMemoryDocStore) ChunkCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks)
}

// DocumentNames returns document display names in insertion order.
// Names are not unique.
func (s *InMemoryDocStore) DocumentNames() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.docOrder))
	for _, id := range s.docOrder {
		names = append(names, s.docs[id].Name)
	}
	return names
}

// Snapshot returns a deep copy of the store contents.
func (s *InMemoryDocStore) Snapshot() *schema.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := schema.NewSnapshot()
	for id, doc := range s.docs {
		snap.Documents[id] = copyDocument(doc)
	}
	for key, rec := range s.chunks {
		snap.ChunkIndex[key] = rec
	}
	snap.DocumentOrder = append([]string(nil), s.docOrder...)
	snap.ChunkOrder = append([]string(nil), s.chunkOrder...)
	return snap
}

// Restore replaces the store contents with snap. It is meant to be called
// once at startup, before the store is shared.
func (s *InMemoryDocStore) Restore(snap *schema.Snapshot) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	docs := make(map[string]*schema.Document, len(snap.Documents))
	for id, doc := range snap.Documents {
		if doc == nil {
			continue
		}
		d := copyDocument(doc)
		if d.ID == "" {
			d.ID = id
		}
		docs[id] = d
	}
	chunks := make(map[string]schema.ChunkRecord, len(snap.ChunkIndex))
	for key, rec := range snap.ChunkIndex {
		if strings.TrimSpace(rec.Text) == "" {
			continue
		}
		chunks[key] = rec
	}

	docOrder := restoreOrder(snap.DocumentOrder, docs, func(a, b string) bool {
		return a < b
	})
	docRank := make(map[string]int, len(docOrder))
	for i, id := range docOrder {
		docRank[id] = i
	}
	rank := func(docID string) int {
		if r, ok := docRank[docID]; ok {
			return r
		}
		return len(docOrder)
	}
	chunkOrder := restoreOrder(snap.ChunkOrder, chunks, func(a, b string) bool {
		ra, rb := chunks[a], chunks[b]
		if ra.DocID != rb.DocID {
			if rank(ra.DocID) != rank(rb.DocID) {
				return rank(ra.DocID) < rank(rb.DocID)
			}
			return ra.DocID < rb.DocID
		}
		return ra.Position < rb.Position
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = docs
	s.docOrder = docOrder
	s.chunks = chunks
	s.chunkOrder = chunkOrder
	return nil
}

// restoreOrder keeps the recorded order for keys still present and appends
// any unlisted keys sorted by less.
func restoreOrder[V any](recorded []string, items map[string]V, less func(a, b string) bool) []string {
	order := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, key := range recorded {
		if _, ok := items[key]; !ok {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		order = append(order, key)
	}
	var rest []string
	for key := range items {
		if _, ok := seen[key]; !ok {
			rest = append(rest, key)
		}
	}
	sort.Slice(rest, func(i, j int) bool { return less(rest[i], rest[j]) })
	return append(order, rest...)
}

func copyDocument(doc *schema.Document) *schema.Document {
	d := *doc
	d.Chunks = append([]string(nil), doc.Chunks...)
	if d.Chunks == nil {
		d.Chunks = []string{}
	}
	return &d
}

// compile-time check to ensure InMemoryDocStore implements the DocStore interface
var _ interfaces.DocStore = (*InMemoryDocStore)(nil)
