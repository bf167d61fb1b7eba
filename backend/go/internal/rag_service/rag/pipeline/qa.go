package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"docsearch/backend/go/internal/rag_service/rag/interfaces"
	"docsearch/backend/go/internal/rag_service/rag/schema"
	"docsearch/backend/go/pkg/circuitbreaker"
	"docsearch/backend/go/pkg/logger"
)

// Answers returned instead of a model response.
const (
	NoContextAnswer   = "I could not find that information in the loaded documents."
	EmptyAnswer       = "Could not generate an answer."
	TimeoutAnswer     = "The model took too long to respond. Try a more specific question."
	UnavailableAnswer = "The language model is temporarily unavailable. Please try again later."
	errorAnswerPrefix = "Error contacting the language model: "
)

const (
	// promptContextResults is how many search results are shown to the model.
	promptContextResults = 2
	// promptSnippetChars is the per-result character budget in the prompt.
	promptSnippetChars = 100
)

// QAPipeline is responsible for generating an answer based on a question
// and the search results retrieved for it.
type QAPipeline struct {
	llm interfaces.LLM
	log *logger.Logger
}

// NewQAPipeline creates a new QAPipeline.
func NewQAPipeline(llm interfaces.LLM, log *logger.Logger) *QAPipeline {
	return &QAPipeline{
		llm: llm,
		log: log,
	}
}

// Run asks the model to answer question from results. It always returns a
// user-facing string: failures are turned into fallback sentences.
func (p *QAPipeline) Run(ctx context.Context, question string, results []schema.SearchResult) string {
	if len(results) == 0 {
		return NoContextAnswer
	}

	prompt := BuildPrompt(question, results)
	p.log.Debug(fmt.Sprintf("Sending prompt to LLM with %d context results", min(len(results), promptContextResults)))

	answer, err := p.llm.Generate(ctx, prompt)
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		p.log.WithErr(err, "generation_timeout").Warn("LLM timed out")
		return TimeoutAnswer
	case errors.Is(err, circuitbreaker.ErrCircuitOpen):
		p.log.WithErr(err, "generation_unavailable").Warn("LLM circuit is open")
		return UnavailableAnswer
	case err != nil:
		p.log.WithErr(err, "generation_error").Error("LLM failed to generate answer")
		return errorAnswerPrefix + err.Error()
	}

	answer = strings.TrimSpace(answer)
	if answer == "" {
		return EmptyAnswer
	}
	return answer
}

// BuildPrompt builds the model prompt from the first results, each cut to a
// short snippet.
func BuildPrompt(question string, results []schema.SearchResult) string {
	var sb strings.Builder

	sb.WriteString("Answer based only on this information:\n\n")
	for i, r := range results {
		if i == promptContextResults {
			break
		}
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("[%s]: %s...", r.DocumentName, truncateRunes(r.Text, promptSnippetChars)))
	}
	sb.WriteString(fmt.Sprintf("\n\nQuestion: %s\n\nShort answer:", question))

	return sb.String()
}

// truncateRunes returns the first n characters of s.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
