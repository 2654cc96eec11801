package assistant

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/benefitsnav/carl-assistant/internal/directory"
	"github.com/benefitsnav/carl-assistant/internal/observability/metrics"
	"github.com/benefitsnav/carl-assistant/internal/privacy"
	"github.com/benefitsnav/carl-assistant/internal/quickanswer"
	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

var orchestratorTracer = otel.Tracer("carl/orchestrator")

const (
	sessionTimeout    = 45 * time.Second
	torSessionTimeout = 90 * time.Second
	warmupTimeout     = 90 * time.Second
)

// Audit event names recorded through the AuditRecorder.
const (
	AuditCrisisDetected    = "crisis_detected"
	AuditPIIRedacted       = "pii_redacted"
	AuditTorUnavailable    = "tor_unavailable"
	AuditQuickAnswerServed = "quick_answer_served"
)

// AuditRecorder persists compliance-relevant events. Implementations must
// tolerate being handed already-sanitized detail strings only.
type AuditRecorder interface {
	Record(ctx context.Context, event, detail string)
}

// ComposeClientFactory builds the compose backend for one resolved endpoint
// and transport channel. Injected so the orchestrator never knows which
// provider sits behind the reply tier.
type ComposeClientFactory func(endpoint privacy.EndpointDescriptor, channel *privacy.Channel) LLMClient

// SearchRequest is one conversational turn submitted to the orchestrator.
type SearchRequest struct {
	Message string
	History []Turn
	Mode    privacy.Mode
	Profile *ProfileContext
}

// Orchestrator runs the tiered answering pipeline: canned answers first,
// crisis preemption second, and the model-backed search tier last. The
// cheap deterministic tiers touch no network at all.
type Orchestrator struct {
	quick         *quickanswer.Matcher
	detector      *CrisisDetector
	resolver      *privacy.Resolver
	intents       *IntentParser
	searcher      directory.Searcher
	composer      *Composer
	composeClient ComposeClientFactory
	metrics       *metrics.AssistantMetrics
	audit         AuditRecorder
	logger        *logging.Logger

	warmupOnce sync.Once
}

// OrchestratorDeps collects the orchestrator's collaborators.
type OrchestratorDeps struct {
	QuickAnswers   *quickanswer.Matcher
	CrisisDetector *CrisisDetector
	Resolver       *privacy.Resolver
	IntentParser   *IntentParser
	Searcher       directory.Searcher
	Composer       *Composer
	ComposeClient  ComposeClientFactory
	Metrics        *metrics.AssistantMetrics
	Audit          AuditRecorder
	Logger         *logging.Logger
}

// NewOrchestrator wires the pipeline. Metrics and audit may be nil; the
// other dependencies are required.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Resolver == nil {
		panic("assistant: resolver cannot be nil")
	}
	if deps.IntentParser == nil {
		panic("assistant: intent parser cannot be nil")
	}
	if deps.Searcher == nil {
		panic("assistant: searcher cannot be nil")
	}
	if deps.Composer == nil || deps.ComposeClient == nil {
		panic("assistant: composer and compose client factory cannot be nil")
	}
	if deps.QuickAnswers == nil {
		deps.QuickAnswers = quickanswer.NewMatcher()
	}
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.CrisisDetector == nil {
		deps.CrisisDetector = NewCrisisDetector(deps.Logger)
	}
	return &Orchestrator{
		quick:         deps.QuickAnswers,
		detector:      deps.CrisisDetector,
		resolver:      deps.Resolver,
		intents:       deps.IntentParser,
		searcher:      deps.Searcher,
		composer:      deps.Composer,
		composeClient: deps.ComposeClient,
		metrics:       deps.Metrics,
		audit:         deps.Audit,
		logger:        deps.Logger.Component("orchestrator"),
	}
}

const greetingReply = "Hi! I'm Carl. I can help you find free and low-cost programs near you — food, housing, health care, job help, and more. What do you need today?"

// Search answers one user turn. Deterministic tiers return before any
// endpoint or channel is resolved; tor mode fails closed before the first
// network call.
func (o *Orchestrator) Search(ctx context.Context, req SearchRequest) (*SearchResult, error) {
	ctx, span := orchestratorTracer.Start(ctx, "orchestrator.search")
	defer span.End()
	start := time.Now()

	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, ErrEmptyMessage
	}

	timeout := sessionTimeout
	if req.Mode == privacy.ModeTor {
		timeout = torSessionTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	sanitized := Sanitize(message)
	if sanitized != message {
		o.metrics.ObserveRedaction()
		o.record(ctx, AuditPIIRedacted, "identifiers removed from inbound message")
	}
	history := sanitizeHistory(req.History)

	// Tier 1: canned answers, zero network.
	if answer := o.quick.Match(sanitized); answer != nil {
		if answer.IsCrisis() {
			crisisType := crisisTypeForAnswer(sanitized, answer)
			o.metrics.ObserveCrisis(string(crisisType))
			o.record(ctx, AuditCrisisDetected, string(crisisType))
			return o.finish(span, start, &SearchResult{
				Message:    answer.Message,
				Tier:       TierCrisis,
				CrisisType: crisisType,
			}), nil
		}
		o.record(ctx, AuditQuickAnswerServed, answer.Title)
		return o.finish(span, start, &SearchResult{
			Message: answer.Message,
			Tier:    TierQuickAnswer,
		}), nil
	}

	// Tier 2: crisis preemption, still zero network.
	if res := o.detector.Detect(ctx, sanitized); res.Detected {
		messageText := crisisFallbackMessage(res.Type)
		if answer := o.quick.MatchCrisis(sanitized); answer != nil {
			messageText = answer.Message
		}
		o.metrics.ObserveCrisis(string(res.Type))
		o.record(ctx, AuditCrisisDetected, string(res.Type))
		return o.finish(span, start, &SearchResult{
			Message:    messageText,
			Tier:       TierCrisis,
			CrisisType: res.Type,
		}), nil
	}

	// Resolve transport before the first backend call so tor mode fails
	// closed without leaking a single packet.
	endpoint, err := o.resolver.ResolveEndpoint(ctx, req.Mode)
	if err != nil {
		o.metrics.ObserveSearch(string(TierLLM), "error", time.Since(start).Seconds())
		return nil, err
	}
	channel, err := o.resolver.ResolveChannel(req.Mode)
	if err != nil {
		if errors.Is(err, privacy.ErrTorUnavailable) {
			o.metrics.ObserveTorUnavailable()
			o.record(ctx, AuditTorUnavailable, "tor mode requested without a tor channel")
		}
		o.metrics.ObserveSearch(string(TierLLM), "error", time.Since(start).Seconds())
		return nil, err
	}

	intent, err := o.intents.Parse(ctx, sanitized, history)
	if err != nil {
		return nil, err
	}
	crisis := CrisisNone
	if intent.IsCrisis {
		crisis = modelFlaggedCrisisType(sanitized)
		o.metrics.ObserveCrisis(string(crisis))
		o.record(ctx, AuditCrisisDetected, string(crisis))
		o.logger.Info("model flagged possible crisis outside keyword vocabulary", "crisis_type", crisis)
	}

	if intent.IsGreeting {
		return o.finish(span, start, &SearchResult{
			Message: greetingReply,
			Tier:    TierGreeting,
		}), nil
	}

	programs, err := o.searcher.Search(ctx, intent.Query, string(intent.Category), maxResultPrograms)
	if err != nil {
		// A directory outage degrades to an empty result set rather than
		// failing the turn.
		o.logger.Warn("directory search failed", "error", err, "category", intent.Category)
		programs = nil
	}
	if len(programs) > maxResultPrograms {
		programs = programs[:maxResultPrograms]
	}

	tier := TierLLM
	if channel.Tor() {
		tier = TierLLMTor
	}

	reply, err := o.composer.Compose(ctx, o.composeClient(endpoint, channel), ComposeInput{
		Message:  sanitized,
		History:  history,
		Intent:   intent,
		Programs: programs,
		Profile:  req.Profile,
		Crisis:   crisis,
	})
	if err != nil {
		o.metrics.ObserveSearch(string(tier), "error", time.Since(start).Seconds())
		return nil, err
	}

	return o.finish(span, start, &SearchResult{
		Message:    reply,
		Programs:   programs,
		Tier:       tier,
		CrisisType: crisis,
	}), nil
}

// Warmup primes the model backends so the first real turn doesn't pay the
// cold-start cost. It runs at most once, in the background, and swallows
// failures; a failed warmup only costs latency later.
func (o *Orchestrator) Warmup() {
	o.warmupOnce.Do(func() {
		go o.warm(context.Background())
	})
}

// warm resolves the standard route and pings both model backends. The compose
// backend is the one with the expensive cold start, so it goes first.
func (o *Orchestrator) warm(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, warmupTimeout)
	defer cancel()

	endpoint, err := o.resolver.ResolveEndpoint(ctx, privacy.ModeStandard)
	if err != nil {
		o.logger.Warn("warmup endpoint resolution failed", "error", err)
		return
	}
	channel, err := o.resolver.ResolveChannel(privacy.ModeStandard)
	if err != nil {
		o.logger.Warn("warmup channel resolution failed", "error", err)
		return
	}
	if err := o.composer.Warm(ctx, o.composeClient(endpoint, channel)); err != nil {
		o.logger.Warn("warmup compose ping failed", "error", err)
	}
	if _, err := o.intents.Parse(ctx, "hello", nil); err != nil {
		o.logger.Warn("warmup intent ping failed", "error", err)
	}
	o.logger.Info("backend warmup complete")
}

// ConfigureTorProxy installs a tor channel for subsequent tor-mode searches.
func (o *Orchestrator) ConfigureTorProxy(socksAddr string) error {
	return o.resolver.ConfigureTorProxy(socksAddr)
}

// DisableTorProxy drops the tor channel; tor-mode searches fail closed again.
func (o *Orchestrator) DisableTorProxy() {
	o.resolver.DisableTorProxy()
}

func (o *Orchestrator) finish(span trace.Span, start time.Time, res *SearchResult) *SearchResult {
	elapsed := time.Since(start)
	span.SetAttributes(
		attribute.String("search.tier", string(res.Tier)),
		attribute.Int("search.programs", len(res.Programs)),
	)
	o.metrics.ObserveSearch(string(res.Tier), "ok", elapsed.Seconds())
	o.logger.Info("search answered", "tier", res.Tier, "programs", len(res.Programs), "elapsed_ms", elapsed.Milliseconds())
	return res
}

func (o *Orchestrator) record(ctx context.Context, event, detail string) {
	if o.audit == nil {
		return
	}
	o.audit.Record(ctx, event, detail)
}

func sanitizeHistory(history []Turn) []Turn {
	if len(history) == 0 {
		return nil
	}
	out := make([]Turn, len(history))
	for i, turn := range history {
		out[i] = Turn{Role: turn.Role, Text: Sanitize(turn.Text)}
	}
	return out
}

// crisisTypeForAnswer maps a canned crisis answer back onto a crisis type,
// preferring the keyword classifier and falling back to the hotline the
// answer carries.
func crisisTypeForAnswer(message string, answer *quickanswer.Answer) CrisisType {
	if ct, ok := Classify(message); ok {
		return ct
	}
	if answer.Resource != nil {
		switch answer.Resource.Phone {
		case "988":
			return CrisisMentalHealth
		case "1-800-799-7233":
			return CrisisDomesticViolence
		}
	}
	return CrisisEmergency
}

// modelFlaggedCrisisType names the crisis when only the intent model raised
// the flag. The keyword classifier wins when it recognizes the message; for
// unspecific distress the 988 guidance is the safest default.
func modelFlaggedCrisisType(message string) CrisisType {
	if ct, ok := Classify(message); ok {
		return ct
	}
	return CrisisMentalHealth
}

func crisisFallbackMessage(crisis CrisisType) string {
	switch crisis {
	case CrisisMentalHealth:
		return "If you're thinking about hurting yourself, please reach out right now. Call or text 988 — the Suicide & Crisis Lifeline is free, confidential, and open 24/7."
	case CrisisDomesticViolence:
		return "The National Domestic Violence Hotline is confidential and open 24/7. Call 1-800-799-7233 or text START to 88788. If you are in immediate danger, call 911."
	default:
		return "If you or someone near you is in immediate danger, call 911 right away."
	}
}
