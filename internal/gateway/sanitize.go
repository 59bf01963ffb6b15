package gateway

import "regexp"

// Error text that crosses a logging or API boundary must never carry card
// numbers, CVVs or merchant credentials.
var (
	panPattern       = regexp.MustCompile(`\b(?:\d[ -]?){12,18}\d\b`)
	cvvFieldPattern  = regexp.MustCompile(`(?i)("securitycode"\s*:\s*")[^"]*(")`)
	keyFieldPattern  = regexp.MustCompile(`(?i)("merchantkey"\s*:\s*")[^"]*(")`)
	cardFieldPattern = regexp.MustCompile(`(?i)("cardnumber"\s*:\s*")[^"]*(")`)
)

// Sanitize replaces card-number-like and credential-like substrings with
// placeholders.
func Sanitize(s string) string {
	s = cardFieldPattern.ReplaceAllString(s, `${1}[REDACTED]${2}`)
	s = cvvFieldPattern.ReplaceAllString(s, `${1}[REDACTED]${2}`)
	s = keyFieldPattern.ReplaceAllString(s, `${1}[REDACTED]${2}`)
	s = panPattern.ReplaceAllString(s, "[REDACTED-PAN]")
	return s
}
