package ai

import (
	"strings"
	"testing"

	usecase "github.com/yussieik/pazpaz-sub002/internal/usecase/ai"
)

func TestBuildInsightPrompt(t *testing.T) {
	prompt := buildInsightPrompt(usecase.InsightRequest{
		Question: "How has mobility changed?",
		Context:  []string{"note one", "note two"},
	})

	if !strings.Contains(prompt, "Session note 1:\nnote one") {
		t.Errorf("missing first note: %q", prompt)
	}
	if !strings.Contains(prompt, "Session note 2:\nnote two") {
		t.Errorf("missing second note: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "Question: How has mobility changed?") {
		t.Errorf("question not at end: %q", prompt)
	}
}

func TestBuildInsightPrompt_NoContext(t *testing.T) {
	prompt := buildInsightPrompt(usecase.InsightRequest{Question: "anything new?"})
	if prompt != "Question: anything new?" {
		t.Errorf("unexpected prompt: %q", prompt)
	}
}

func TestBuildInsightPrompt_TruncatesOversizedContext(t *testing.T) {
	big := strings.Repeat("x", maxContextChars+1)
	prompt := buildInsightPrompt(usecase.InsightRequest{
		Question: "q",
		Context:  []string{big, "small note"},
	})

	if strings.Contains(prompt, "xxx") {
		t.Error("oversized note should have been dropped")
	}
	if strings.Contains(prompt, "small note") {
		t.Error("truncation stops at the first note that does not fit")
	}
	if !strings.Contains(prompt, "Question: q") {
		t.Error("question must survive truncation")
	}
}

func TestBuildInsightPrompt_BudgetAcrossNotes(t *testing.T) {
	half := strings.Repeat("a", maxContextChars/2+1)
	prompt := buildInsightPrompt(usecase.InsightRequest{
		Question: "q",
		Context:  []string{half, half},
	})

	if strings.Count(prompt, "Session note") != 1 {
		t.Errorf("expected exactly one note to fit, got %d", strings.Count(prompt, "Session note"))
	}
}
