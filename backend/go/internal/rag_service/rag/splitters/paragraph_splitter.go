package splitters

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
)

const (
	// DefaultLongParagraphThreshold is the paragraph length above which a
	// paragraph is re-split into word-packed sub-chunks.
	DefaultLongParagraphThreshold = 1000
	// DefaultTargetChunkSize is the packing budget for sub-chunks.
	DefaultTargetChunkSize = 500
)

// blankLines matches two or more consecutive line breaks. A line holding
// only spaces or tabs is not empty and does not end a paragraph.
var blankLines = regexp.MustCompile(`\r?\n(?:\r?\n)+`)

// ParagraphSplitter implements the Splitter interface. It splits text on
// empty lines and packs overly long paragraphs into sub-chunks of roughly
// TargetChunkSize characters on word boundaries.
//
// Lengths are counted in characters (runes), not bytes.
type ParagraphSplitter struct {
	// LongParagraphThreshold disables re-splitting when <= 0.
	LongParagraphThreshold int
	TargetChunkSize        int
}

// NewParagraphSplitter creates a new ParagraphSplitter. Zero values fall
// back to the defaults; a negative threshold keeps every paragraph whole.
func NewParagraphSplitter(longParagraphThreshold, targetChunkSize int) *ParagraphSplitter {
	if longParagraphThreshold == 0 {
		longParagraphThreshold = DefaultLongParagraphThreshold
	}
	if targetChunkSize <= 0 {
		targetChunkSize = DefaultTargetChunkSize
	}
	return &ParagraphSplitter{
		LongParagraphThreshold: longParagraphThreshold,
		TargetChunkSize:        targetChunkSize,
	}
}

// Split returns the chunks of text in document order. Every returned chunk
// is non-empty after trimming.
func (s *ParagraphSplitter) Split(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	for _, raw := range blankLines.Split(text, -1) {
		paragraph := strings.TrimSpace(raw)
		if paragraph == "" {
			continue
		}
		if s.LongParagraphThreshold > 0 && utf8.RuneCountInString(paragraph) > s.LongParagraphThreshold {
			chunks = append(chunks, s.packWords(paragraph)...)
			continue
		}
		chunks = append(chunks, paragraph)
	}
	return chunks
}

// packWords greedily fills sub-chunks with whole words. The running length
// counts one separator per word, so a sub-chunk may end one word short of
// the budget but never exceeds it unless a single word is longer than it.
func (s *ParagraphSplitter) packWords(paragraph string) []string {
	var (
		out     []string
		current []string
		length  int
	)
	for _, word := range strings.Fields(paragraph) {
		n := utf8.RuneCountInString(word)
		if length+n+1 > s.TargetChunkSize && len(current) > 0 {
			out = append(out, strings.Join(current, " "))
			current = []string{word}
			length = n
			continue
		}
		current = append(current, word)
		length += n + 1
	}
	if len(current) > 0 {
		out = append(out, strings.Join(current, " "))
	}
	return out
}

// compile-time check to ensure ParagraphSplitter implements the Splitter interface
var _ interfaces.Splitter = (*ParagraphSplitter)(nil)
