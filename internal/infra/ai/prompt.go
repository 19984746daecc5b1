package ai

import (
	"fmt"
	"log/slog"
	"strings"

	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

// insightSystemPrompt frames the completion for clinical note analysis.
// The model is instructed to stay grounded in the supplied notes and to
// avoid diagnosis: the output supports the practitioner, it does not
// replace clinical judgement.
const insightSystemPrompt = `You are an assistant for a healthcare practitioner reviewing their own session notes.
Answer the practitioner's question using only the session notes provided.
Summarize trends and observations; do not invent facts that are not in the notes,
and do not provide a medical diagnosis. If the notes do not contain enough
information to answer, say so.`

// maxContextChars caps the total note context per request to stay well under
// model token limits.
const maxContextChars = 24000

// buildInsightPrompt assembles the user prompt from the question and the
// session note context, truncating oldest-first when the context exceeds
// the character budget.
func buildInsightPrompt(req usecase.InsightRequest) string {
	var b strings.Builder

	remaining := maxContextChars
	included := 0
	for i, note := range req.Context {
		if len(note) > remaining {
			slog.Warn("insight context truncated",
				slog.Int("notes_included", included),
				slog.Int("notes_total", len(req.Context)))
			break
		}
		fmt.Fprintf(&b, "Session note %d:\n%s\n\n", i+1, note)
		remaining -= len(note)
		included++
	}

	fmt.Fprintf(&b, "Question: %s", req.Question)
	return b.String()
}
