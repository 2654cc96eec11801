package assistant

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

var intentTracer = otel.Tracer("carl/intent-parser")

const intentTimeout = 10 * time.Second

const intentSystemPrompt = `You turn a message to a benefits assistant into a JSON search intent.

Respond with ONLY a JSON object, no prose, in this shape:
{"query": "<concise search phrase>", "category": "<one of: food, housing, health, employment, legal, transportation, utilities, childcare, seniors, veterans, disability, pets, education, financial, general>", "needs_location": <bool>, "is_greeting": <bool>, "is_crisis": <bool>}

Rules:
- "query" is a short phrase a human would type into a resource directory, not a full sentence.
- Pick the single best category; use "general" when unsure.
- "needs_location" is true when results would differ by county or city.
- "is_greeting" is true only for pure greetings or small talk with no request in them.
- "is_crisis" is true for emergencies, self-harm, or domestic violence.`

// IntentParser extracts a structured search intent from a user message using
// a small, fast model. Parsing never fails the request: any backend or decode
// problem degrades to a heuristic intent built from the raw message.
type IntentParser struct {
	client LLMClient
	model  string
	logger *logging.Logger
}

// NewIntentParser wires a parser to an inference backend.
func NewIntentParser(client LLMClient, model string, logger *logging.Logger) *IntentParser {
	if logger == nil {
		logger = logging.Default()
	}
	return &IntentParser{client: client, model: model, logger: logger.Component("intent-parser")}
}

// Parse interprets message in the context of recent history. The returned
// intent is always usable; the error return exists only for context
// cancellation.
func (p *IntentParser) Parse(ctx context.Context, message string, history []Turn) (Intent, error) {
	ctx, span := intentTracer.Start(ctx, "intent.parse")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return Intent{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, intentTimeout)
	defer cancel()

	messages := turnsToMessages(recentTurns(history))
	messages = append(messages, ChatMessage{Role: ChatRoleUser, Content: message})

	resp, err := p.client.Complete(ctx, LLMRequest{
		Model:       p.model,
		System:      []string{intentSystemPrompt},
		Messages:    messages,
		MaxTokens:   200,
		Temperature: 0.1,
	})
	if err != nil {
		p.logger.Warn("intent parse failed, using heuristic fallback", "error", err)
		span.SetAttributes(attribute.Bool("intent.fallback", true))
		return heuristicIntent(message), nil
	}

	intent, ok := decodeIntent(resp.Text)
	if !ok {
		p.logger.Warn("intent response was not valid JSON, using heuristic fallback")
		span.SetAttributes(attribute.Bool("intent.fallback", true))
		return heuristicIntent(message), nil
	}

	span.SetAttributes(
		attribute.String("intent.category", string(intent.Category)),
		attribute.Bool("intent.greeting", intent.IsGreeting),
	)
	return intent, nil
}

// decodeIntent pulls the first JSON object out of the model text. Models
// routinely wrap JSON in prose or markdown fences.
func decodeIntent(text string) (Intent, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Intent{}, false
	}

	var raw struct {
		Query         string `json:"query"`
		Category      string `json:"category"`
		NeedsLocation bool   `json:"needs_location"`
		IsGreeting    bool   `json:"is_greeting"`
		IsCrisis      bool   `json:"is_crisis"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Intent{}, false
	}
	if strings.TrimSpace(raw.Query) == "" && !raw.IsGreeting {
		return Intent{}, false
	}

	return Intent{
		Query:         strings.TrimSpace(raw.Query),
		Category:      NormalizeCategory(raw.Category),
		NeedsLocation: raw.NeedsLocation,
		IsGreeting:    raw.IsGreeting,
		IsCrisis:      raw.IsCrisis,
	}, true
}

var greetingPrefixes = []string{"hi", "hello", "hey", "good morning", "good afternoon", "good evening"}

// heuristicIntent is the zero-dependency fallback: greetings are recognized
// by prefix, everything else becomes a general-category search for the raw
// message.
func heuristicIntent(message string) Intent {
	normalized := strings.ToLower(strings.TrimSpace(message))
	trimmed := strings.TrimRight(normalized, "!?. ")
	for _, prefix := range greetingPrefixes {
		if trimmed == prefix {
			return Intent{IsGreeting: true, Category: CategoryGeneral}
		}
	}
	return Intent{Query: strings.TrimSpace(message), Category: CategoryGeneral}
}
