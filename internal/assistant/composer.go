package assistant

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/benefitsnav/carl-assistant/internal/directory"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

var composerTracer = otel.Tracer("carl/composer")

const composerSystemPrompt = `You are Carl, a warm and plainspoken guide to public benefits and community resources.

Hard rules:
- Mention ONLY programs from the "Available programs" list below. Never invent a program, phone number, or address.
- Keep it to 2-3 short sentences. Name at most 3 programs.
- If the list is empty, say you couldn't find a match and suggest calling 211.
- If the conversation involves a crisis, repeat the hotline numbers you were given exactly as written.
- Do not include links other than the program websites you were given.
- Plain, kind language. No jargon, no bullet lists, no markdown.`

// Composer turns an intent plus directory results into the final reply. A
// composition failure is fatal for the request: there is no canned text that
// can stand in for the answer.
type Composer struct {
	model  string
	logger *logging.Logger
}

// NewComposer builds a composer for the given model ID. The client itself is
// supplied per call because the privacy resolver picks the endpoint and
// transport per session.
func NewComposer(model string, logger *logging.Logger) *Composer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Composer{model: model, logger: logger.Component("composer")}
}

// ComposeInput carries everything one composition needs.
type ComposeInput struct {
	Message  string
	History  []Turn
	Intent   Intent
	Programs []directory.Program
	Profile  *ProfileContext
	Crisis   CrisisType
}

// Compose produces the user-facing reply text.
func (c *Composer) Compose(ctx context.Context, client LLMClient, in ComposeInput) (string, error) {
	ctx, span := composerTracer.Start(ctx, "composer.compose")
	defer span.End()
	span.SetAttributes(attribute.Int("composer.programs", len(in.Programs)))

	system := []string{composerSystemPrompt, programBlock(in.Programs)}
	if summary := in.Profile.Summary(); summary != "" {
		system = append(system, summary)
	}
	if in.Crisis != CrisisNone {
		system = append(system, crisisGuidance(in.Crisis))
	}

	messages := turnsToMessages(recentTurns(in.History))
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: in.Message})

	resp, err := client.Complete(ctx, LLMRequest{
		Model:       c.model,
		System:      system,
		Messages:    messages,
		MaxTokens:   300,
		Temperature: 0.7,
	})
	if err != nil {
		return "", fmt.Errorf("compose reply: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", fmt.Errorf("compose reply: %w", ErrDecode)
	}
	return text, nil
}

// Warm sends a one-token request so the serving stack behind the reply tier
// spins up before the first real turn.
func (c *Composer) Warm(ctx context.Context, client LLMClient) error {
	_, err := client.Complete(ctx, LLMRequest{
		Model:     c.model,
		Messages:  []ChatMessage{{Role: ChatRoleUser, Content: "hi"}},
		MaxTokens: 1,
	})
	return err
}

// programBlock renders the directory results as the model's only allowed
// source of program facts.
func programBlock(programs []directory.Program) string {
	if len(programs) == 0 {
		return "Available programs: none found for this search."
	}
	var b strings.Builder
	b.WriteString("Available programs:\n")
	for _, p := range programs {
		fmt.Fprintf(&b, "- %s", p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, ": %s", p.Description)
		}
		if p.Phone != "" {
			fmt.Fprintf(&b, " (phone %s)", p.Phone)
		}
		if p.Website != "" {
			fmt.Fprintf(&b, " (website %s)", p.Website)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func crisisGuidance(crisis CrisisType) string {
	switch crisis {
	case CrisisMentalHealth:
		return "This person may be in a mental health crisis. Lead with: call or text 988 (Suicide & Crisis Lifeline), available 24/7. Repeat the number exactly."
	case CrisisDomesticViolence:
		return "This person may be experiencing domestic violence. Lead with: call 1-800-799-7233 (National Domestic Violence Hotline) or text START to 88788. Repeat those exactly."
	case CrisisEmergency:
		return "This may be an emergency. Lead with: call 911 right away. Repeat the number exactly."
	}
	return ""
}
