package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScorer(t *testing.T, scheme BonusScheme) *LexicalScorer {
	t.Helper()
	s, err := NewLexicalScorer(scheme)
	require.NoError(t, err)
	return s
}

func TestNewLexicalScorer(t *testing.T) {
	s := newScorer(t, "")
	assert.Equal(t, BonusAnyAll, s.Scheme())

	s = newScorer(t, BonusPhrase)
	assert.Equal(t, BonusPhrase, s.Scheme())

	_, err := NewLexicalScorer("bm25")
	assert.Error(t, err)
}

func TestScore_EmptyQuery(t *testing.T) {
	for _, scheme := range []BonusScheme{BonusAnyAll, BonusPhrase} {
		s := newScorer(t, scheme)
		assert.Zero(t, s.Score("anything at all", ""))
		assert.Zero(t, s.Score("anything at all", "   \t "))
		assert.Zero(t, s.Score("", ""))
	}
}

func TestScore_AnyAll(t *testing.T) {
	s := newScorer(t, BonusAnyAll)

	tests := []struct {
		name  string
		text  string
		query string
		want  float64
	}{
		{"all terms", "The quick fox", "quick fox", 1.0},
		{"no terms", "The quick fox", "zzz yyy", 0},
		{"half the terms", "The quick fox", "quick zzz", 0.5 + AnyTermBonus},
		{"two of three", "Berlin is the capital of Germany.", "capital of France", 2.0/3.0 + AnyTermBonus},
		{"case insensitive", "PARIS", "paris", 1.0},
		{"substring match", "capitalism", "capital", 1.0},
		{"repeated query word", "fox", "fox fox zzz", 2.0/3.0 + AnyTermBonus},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, s.Score(tt.text, tt.query), 1e-9)
		})
	}
}

func TestScore_Phrase(t *testing.T) {
	s := newScorer(t, BonusPhrase)

	assert.InDelta(t, 2.0/3.0, s.Score("quick brown fox", "brown fox cat"), 1e-9)
	assert.InDelta(t, 0.5, s.Score("quick brown fox", "fox cat"), 1e-9)
	assert.InDelta(t, 1.0, s.Score("a quick brown fox", "quick brown"), 1e-9)
	assert.Zero(t, s.Score("quick brown fox", "cat"))
}

func TestScore_SchemesAreNotCombined(t *testing.T) {
	anyAll := newScorer(t, BonusAnyAll)
	phrase := newScorer(t, BonusPhrase)

	// Two of three words match and the query is not a phrase in the text.
	assert.InDelta(t, 2.0/3.0+AnyTermBonus, anyAll.Score("quick brown fox", "brown fox cat"), 1e-9)
	assert.InDelta(t, 2.0/3.0, phrase.Score("quick brown fox", "brown fox cat"), 1e-9)
}

func TestScore_AlwaysWithinUnitInterval(t *testing.T) {
	inputs := [][2]string{
		{"the quick fox", "quick fox"},
		{"", "x"},
		{"x", "x x x x"},
		{"\xff\xfe", "\xff"},
		{"aaa", "a aa aaa"},
	}
	for _, scheme := range []BonusScheme{BonusAnyAll, BonusPhrase} {
		s := newScorer(t, scheme)
		for _, in := range inputs {
			got := s.Score(in[0], in[1])
			assert.GreaterOrEqual(t, got, 0.0)
			assert.LessOrEqual(t, got, 1.0)
		}
	}
}

func TestScore_RelevantBeatsIrrelevant(t *testing.T) {
	s := newScorer(t, BonusAnyAll)
	assert.Greater(t, s.Score("the quick fox", "quick fox"), s.Score("the quick fox", "zzz yyy"))
}
