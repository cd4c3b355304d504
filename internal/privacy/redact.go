package privacy

import (
	"regexp"
	"unicode/utf8"
)

// maxLogLength bounds any caller-supplied text written to the log
const maxLogLength = 200

var (
	// Provider keys, e.g. sk-proj-abc123...; OpenAI echoes them back in auth errors
	providerKeyRegex = regexp.MustCompile(`\bsk-[A-Za-z0-9_*-]{8,}`)

	// Authorization header values
	bearerRegex = regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9._~+/=-]+`)

	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Matches: 555-123-4567, (555) 123-4567, +1-555-123-4567
	phoneRegex = regexp.MustCompile(`(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]\d{4}\b`)

	creditCardRegex = regexp.MustCompile(`\b\d{4}[-\s]\d{4}[-\s]\d{4}[-\s]\d{4}\b`)
)

// RedactSecrets replaces credentials with placeholders
func RedactSecrets(text string) string {
	text = providerKeyRegex.ReplaceAllString(text, "[API_KEY]")
	text = bearerRegex.ReplaceAllString(text, "Bearer [TOKEN]")
	return text
}

// RedactSensitiveData replaces credentials and personal data with placeholders
func RedactSensitiveData(text string) string {
	text = RedactSecrets(text)
	text = emailRegex.ReplaceAllString(text, "[EMAIL]")
	text = creditCardRegex.ReplaceAllString(text, "[CARD]")
	text = phoneRegex.ReplaceAllString(text, "[PHONE]")
	return text
}

// SanitizeForLogging redacts text and truncates it on a rune boundary
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)
	if utf8.RuneCountInString(redacted) <= maxLogLength {
		return redacted
	}

	runes := []rune(redacted)
	return string(runes[:maxLogLength-3]) + "..."
}
