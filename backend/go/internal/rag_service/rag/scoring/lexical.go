package scoring

import (
	"fmt"
	"strings"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
)

// BonusScheme selects how relevance bonuses are added on top of the overlap
// ratio. Only one scheme is ever applied to a score.
type BonusScheme string

const (
	// BonusAnyAll adds AnyTermBonus when at least one query word occurs in
	// the chunk and AllTermsBonus when every query word does.
	BonusAnyAll BonusScheme = "any_all"
	// BonusPhrase adds PhraseBonus when the whole query occurs verbatim.
	BonusPhrase BonusScheme = "phrase"
)

const (
	AnyTermBonus  = 0.3
	AllTermsBonus = 0.5
	PhraseBonus   = 0.5

	// DefaultThreshold drops near-zero noise matches.
	DefaultThreshold = 0.2
)

// LexicalScorer implements the Scorer interface with substring term overlap.
type LexicalScorer struct {
	scheme BonusScheme
}

// NewLexicalScorer creates a scorer for the given bonus scheme. An empty
// scheme selects BonusAnyAll.
func NewLexicalScorer(scheme BonusScheme) (*LexicalScorer, error) {
	switch scheme {
	case "":
		scheme = BonusAnyAll
	case BonusAnyAll, BonusPhrase:
	default:
		return nil, fmt.Errorf("unknown bonus scheme: %s", scheme)
	}
	return &LexicalScorer{scheme: scheme}, nil
}

// Scheme returns the active bonus scheme.
func (s *LexicalScorer) Scheme() BonusScheme { return s.scheme }

// Score returns the relevance of chunkText for query, clamped to [0, 1].
//
// A query word matches when it occurs anywhere in the lower-cased chunk,
// including inside a longer word. Repeated query words count once per
// occurrence in the query.
func (s *LexicalScorer) Score(chunkText, query string) float64 {
	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)
	if len(words) == 0 {
		return 0
	}
	text := strings.ToLower(chunkText)

	matched := 0
	for _, w := range words {
		if strings.Contains(text, w) {
			matched++
		}
	}
	score := float64(matched) / float64(len(words))

	switch s.scheme {
	case BonusPhrase:
		if strings.Contains(text, queryLower) {
			score += PhraseBonus
		}
	default:
		if matched > 0 {
			score += AnyTermBonus
		}
		if matched == len(words) {
			score += AllTermsBonus
		}
	}
	return clamp(score)
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// compile-time check to ensure LexicalScorer implements the Scorer interface
var _ interfaces.Scorer = (*LexicalScorer)(nil)
