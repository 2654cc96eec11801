package assistant

import (
	"context"
	"strings"
	"testing"

	"github.com/benefitsnav/carl-assistant/internal/directory"
)

func TestComposeIncludesProgramFacts(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "Try the Westside Food Pantry, open weekdays."}}
	c := NewComposer("test-model", nil)

	reply, err := c.Compose(context.Background(), llm, ComposeInput{
		Message: "I need food help",
		Intent:  Intent{Query: "food pantries", Category: CategoryFood},
		Programs: []directory.Program{
			{Name: "Westside Food Pantry", Phone: "555-0100", Website: "https://westside.example.org"},
		},
	})
	if err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if reply == "" {
		t.Fatal("empty reply")
	}

	var programPrompt string
	for _, s := range llm.last.System {
		if strings.Contains(s, "Available programs") {
			programPrompt = s
		}
	}
	if !strings.Contains(programPrompt, "Westside Food Pantry") || !strings.Contains(programPrompt, "555-0100") {
		t.Errorf("program block missing facts: %q", programPrompt)
	}
}

func TestComposeEmptyProgramList(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "I couldn't find a match. Try calling 211."}}
	c := NewComposer("test-model", nil)

	if _, err := c.Compose(context.Background(), llm, ComposeInput{Message: "anything obscure"}); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	joined := strings.Join(llm.last.System, "\n")
	if !strings.Contains(joined, "none found") {
		t.Error("empty result set should be stated to the model")
	}
}

func TestComposeCrisisGuidanceCarriesHotlines(t *testing.T) {
	tests := []struct {
		crisis CrisisType
		want   string
	}{
		{CrisisMentalHealth, "988"},
		{CrisisDomesticViolence, "1-800-799-7233"},
		{CrisisEmergency, "911"},
	}
	for _, tt := range tests {
		llm := &stubLLM{resp: LLMResponse{Text: "reply"}}
		c := NewComposer("test-model", nil)
		if _, err := c.Compose(context.Background(), llm, ComposeInput{Message: "help", Crisis: tt.crisis}); err != nil {
			t.Fatalf("Compose() error = %v", err)
		}
		joined := strings.Join(llm.last.System, "\n")
		if !strings.Contains(joined, tt.want) {
			t.Errorf("crisis %q prompt missing %q", tt.crisis, tt.want)
		}
	}
}

func TestComposeProfileSummaryForwarded(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "reply"}}
	c := NewComposer("test-model", nil)

	profile := &ProfileContext{County: "Travis", Veteran: true}
	if _, err := c.Compose(context.Background(), llm, ComposeInput{Message: "job help", Profile: profile}); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	joined := strings.Join(llm.last.System, "\n")
	if !strings.Contains(joined, "Travis") || !strings.Contains(joined, "Veteran: yes") {
		t.Error("profile summary not forwarded to the model")
	}
}

func TestComposeTruncatesHistory(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "reply"}}
	c := NewComposer("test-model", nil)

	history := make([]Turn, 12)
	for i := range history {
		history[i] = Turn{Role: RoleUser, Text: "old turn"}
	}
	if _, err := c.Compose(context.Background(), llm, ComposeInput{Message: "now", History: history}); err != nil {
		t.Fatalf("Compose() error = %v", err)
	}
	if got := len(llm.last.Messages); got != 5 {
		t.Errorf("forwarded %d messages, want 5", got)
	}
}

func TestComposeFailureIsFatal(t *testing.T) {
	llm := &stubLLM{err: &UpstreamError{StatusCode: 503, Body: "overloaded"}}
	c := NewComposer("test-model", nil)

	if _, err := c.Compose(context.Background(), llm, ComposeInput{Message: "help"}); err == nil {
		t.Fatal("Compose() error = nil, want propagated failure")
	}
}

func TestComposeEmptyTextIsDecodeError(t *testing.T) {
	llm := &stubLLM{resp: LLMResponse{Text: "   "}}
	c := NewComposer("test-model", nil)

	_, err := c.Compose(context.Background(), llm, ComposeInput{Message: "help"})
	if err == nil || !strings.Contains(err.Error(), "malformed model response") {
		t.Errorf("Compose() error = %v, want ErrDecode", err)
	}
}
