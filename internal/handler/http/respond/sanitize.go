package respond

import (
	"regexp"
)

var (
	// Bearer tokens (JWT or SMS gateway keys) leaked into error chains
	bearerTokenPattern = regexp.MustCompile(`Bearer [a-zA-Z0-9._\-]+`)

	// SMTP/DB passwords inside DSN-style URLs
	dsnPasswordPattern = regexp.MustCompile(`://([^:/]+):([^@]+)@`)

	// api_key=... query or form fragments
	apiKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key=)[^&\s]+`)
)

// SanitizeError returns the error message with credentials masked. Errors
// from the SMS gateway and the database frequently embed the URL they were
// talking to, so masking happens before any log line is written.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	msg = bearerTokenPattern.ReplaceAllString(msg, "Bearer ****")
	msg = dsnPasswordPattern.ReplaceAllString(msg, "://$1:****@")
	msg = apiKeyPattern.ReplaceAllString(msg, "${1}****")
	return msg
}
