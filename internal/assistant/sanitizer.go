package assistant

import "regexp"

// Redaction tokens are digit-free on purpose so sanitization is idempotent.
const (
	redactedSSN   = "[REDACTED SSN]"
	redactedEmail = "[REDACTED EMAIL]"
	redactedPhone = "[REDACTED PHONE]"
	redactedCard  = "[REDACTED CARD]"
)

type redactionRule struct {
	re    *regexp.Regexp
	token string
}

// Ordered most-specific first: SSN and card shapes are consumed before the
// generic phone digit runs so a single number is only rewritten once.
var redactionRules = []redactionRule{
	{regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`), redactedEmail},
	{regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`), redactedSSN},
	{regexp.MustCompile(`\b\d(?:[ -]?\d){12,18}\b`), redactedCard},
	{regexp.MustCompile(`\b\d{9}\b`), redactedSSN},
	{regexp.MustCompile(`\(\d{3}\)[ .\-]?\d{3}[ .\-]?\d{4}`), redactedPhone},
	{regexp.MustCompile(`\b\d{3}[.\-]\d{3}[.\-]\d{4}\b`), redactedPhone},
	{regexp.MustCompile(`\b\d{10}\b`), redactedPhone},
}

// Sanitize redacts personally identifying patterns from text. It is pure and
// must run before any outbound request body is built from user input.
func Sanitize(text string) string {
	for _, rule := range redactionRules {
		text = rule.re.ReplaceAllString(text, rule.token)
	}
	return text
}
