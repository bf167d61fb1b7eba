package pipeline

import (
	"fmt"
	"sort"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/logger"
)

// DefaultTopK is used when a caller asks for zero or fewer results.
const DefaultTopK = 5

// RetrievalPipeline ranks every stored chunk against a query.
type RetrievalPipeline struct {
	docStore    interfaces.DocStore
	scorer      interfaces.Scorer
	threshold   float64
	defaultTopK int
	log         *logger.Logger
}

// NewRetrievalPipeline creates a new RetrievalPipeline. Chunks scoring at or
// below threshold are never returned.
func NewRetrievalPipeline(
	docStore interfaces.DocStore,
	scorer interfaces.Scorer,
	threshold float64,
	defaultTopK int,
	log *logger.Logger,
) *RetrievalPipeline {
	if defaultTopK <= 0 {
		defaultTopK = DefaultTopK
	}
	return &RetrievalPipeline{
		docStore:    docStore,
		scorer:      scorer,
		threshold:   threshold,
		defaultTopK: defaultTopK,
		log:         log,
	}
}

// Run returns at most topK results ordered by descending score. Equal
// scores keep chunk insertion order. It never fails; no match yields an
// empty slice.
func (p *RetrievalPipeline) Run(query string, topK int) []schema.SearchResult {
	if topK <= 0 {
		topK = p.defaultTopK
	}

	chunks := p.docStore.Chunks()
	results := make([]schema.SearchResult, 0)
	for _, c := range chunks {
		score := p.scorer.Score(c.Text, query)
		if score <= p.threshold {
			continue
		}
		results = append(results, schema.SearchResult{
			Text:         c.Text,
			DocumentName: c.DocumentName,
			Score:        score,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > topK {
		results = results[:topK]
	}

	p.log.Debug(fmt.Sprintf("Scored %d chunks for query '%s', returning %d results", len(chunks), query, len(results)))
	return results
}
