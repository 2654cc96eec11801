package assistant

import (
	"context"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/benefitsnav/carl-assistant/pkg/logging"
)

var crisisTracer = otel.Tracer("carl/crisis-detector")

// CrisisResult contains the result of crisis detection.
type CrisisResult struct {
	Detected       bool
	Type           CrisisType
	MatchedKeyword string
}

type crisisPattern struct {
	regex   *regexp.Regexp
	keyword string
}

// Self-harm vocabulary is checked before anything else so a message that
// also mentions danger or abuse still routes to mental-health resources.
var selfHarmPatterns = []*crisisPattern{
	{regexp.MustCompile(`(?i)\b(suicide|suicidal)\b`), "suicide"},
	{regexp.MustCompile(`(?i)\b(kill|hurt|harm)(ing)?\s+myself\b`), "hurt myself"},
	{regexp.MustCompile(`(?i)\bend\s+(my|it)\s+(life|all)\b`), "end my life"},
	{regexp.MustCompile(`(?i)\bdon'?t\s+want\s+to\s+(live|be\s+alive|go\s+on)\b`), "don't want to live"},
	{regexp.MustCompile(`(?i)\bself[\s-]?harm\b`), "self harm"},
	{regexp.MustCompile(`(?i)\bno\s+reason\s+to\s+live\b`), "no reason to live"},
	{regexp.MustCompile(`(?i)\bbetter\s+off\s+(dead|without\s+me)\b`), "better off dead"},
}

var domesticViolencePatterns = []*crisisPattern{
	{regexp.MustCompile(`(?i)\bdomestic\s+(violence|abuse)\b`), "domestic violence"},
	{regexp.MustCompile(`(?i)\b(my|the)\s+(partner|husband|wife|boyfriend|girlfriend|spouse|ex)\s+(hits?|hit|beats?|hurts?|threatens?|chokes?|abuses?)\b`), "partner abuse"},
	{regexp.MustCompile(`(?i)\babusive\s+(partner|husband|wife|boyfriend|girlfriend|relationship|home)\b`), "abusive relationship"},
	{regexp.MustCompile(`(?i)\bafraid\s+(of|to\s+go\s+home\s+to)\s+my\s+(partner|husband|wife|boyfriend|girlfriend|spouse|ex)\b`), "afraid of partner"},
	{regexp.MustCompile(`(?i)\bbeing\s+abused\b`), "being abused"},
}

var emergencyPatterns = []*crisisPattern{
	{regexp.MustCompile(`(?i)\b(someone|he|she|they)\s+(is|are)\s+(trying\s+to\s+)?(hurt|kill|attack)(ing)?\s+(me|us)\b`), "being attacked"},
	{regexp.MustCompile(`(?i)\bin\s+(immediate\s+)?danger\b`), "in danger"},
	{regexp.MustCompile(`(?i)\b(violence|violent)\b`), "violence"},
	{regexp.MustCompile(`(?i)\bnot\s+safe\s+(at\s+home|here|right\s+now)\b`), "not safe"},
	{regexp.MustCompile(`(?i)\bbeing\s+(threatened|stalked|followed)\b`), "being threatened"},
	{regexp.MustCompile(`(?i)\bemergency\b`), "emergency"},
	{regexp.MustCompile(`(?i)\b(abuse|abused|abusing)\b`), "abuse"},
}

// Classify runs the keyword check over a single message. Pure and
// zero-network; it must complete before any backend call proceeds.
func Classify(text string) (CrisisType, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return CrisisNone, false
	}
	if _, ok := matchAny(selfHarmPatterns, text); ok {
		return CrisisMentalHealth, true
	}
	if _, ok := matchAny(domesticViolencePatterns, text); ok {
		return CrisisDomesticViolence, true
	}
	if _, ok := matchAny(emergencyPatterns, text); ok {
		return CrisisEmergency, true
	}
	return CrisisNone, false
}

func matchAny(patterns []*crisisPattern, text string) (string, bool) {
	for _, p := range patterns {
		if p.regex.MatchString(text) {
			return p.keyword, true
		}
	}
	return "", false
}

// CrisisDetector wraps Classify with tracing and logging for the
// orchestrator path.
type CrisisDetector struct {
	logger *logging.Logger
}

// NewCrisisDetector creates a new crisis detector.
func NewCrisisDetector(logger *logging.Logger) *CrisisDetector {
	if logger == nil {
		logger = logging.Default()
	}
	return &CrisisDetector{logger: logger}
}

// Detect analyzes a message for crisis signals.
func (d *CrisisDetector) Detect(ctx context.Context, message string) *CrisisResult {
	_, span := crisisTracer.Start(ctx, "crisis.detect")
	defer span.End()

	message = strings.TrimSpace(message)
	if message == "" {
		return &CrisisResult{}
	}

	var (
		crisisType CrisisType
		keyword    string
	)
	if kw, ok := matchAny(selfHarmPatterns, message); ok {
		crisisType, keyword = CrisisMentalHealth, kw
	} else if kw, ok := matchAny(domesticViolencePatterns, message); ok {
		crisisType, keyword = CrisisDomesticViolence, kw
	} else if kw, ok := matchAny(emergencyPatterns, message); ok {
		crisisType, keyword = CrisisEmergency, kw
	} else {
		return &CrisisResult{}
	}

	span.SetAttributes(
		attribute.Bool("crisis.detected", true),
		attribute.String("crisis.type", string(crisisType)),
	)

	// Log the signal, never the message text.
	d.logger.Info("crisis signal detected",
		"type", crisisType,
		"keyword", keyword,
	)

	return &CrisisResult{
		Detected:       true,
		Type:           crisisType,
		MatchedKeyword: keyword,
	}
}
