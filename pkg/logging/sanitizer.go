package logging

import (
	"regexp"
)

// RedactedText is the replacement text for sensitive data.
const RedactedText = "[REDACTED]"

var (
	// user:pass@host segments in portal URLs (basic-auth probe requests).
	basicAuthPattern = regexp.MustCompile(`://[^:/\s]+:[^@\s]+@[^/\s]+`)

	// password=xxx style values in connection strings and query params.
	passwordPattern = regexp.MustCompile(`(?i)(password|pwd|pass)=[^;&\s]+`)

	// Authorization header values leaked into error strings.
	authHeaderPattern = regexp.MustCompile(`(?i)(authorization:\s*basic)\s+[A-Za-z0-9+/=]+`)
)

// SanitizeURL removes credentials from a portal or database URL before it
// is logged. The private-probe path attaches basic auth, so any URL that
// reaches a log line must pass through here.
func SanitizeURL(url string) string {
	if url == "" {
		return ""
	}
	sanitized := basicAuthPattern.ReplaceAllString(url, "://"+RedactedText+"@"+RedactedText)
	return passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
}

// SanitizeError scrubs an error message of credentials. HTTP client errors
// embed the full request URL, including any basic-auth userinfo.
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}
	sanitized := basicAuthPattern.ReplaceAllString(err.Error(), "://"+RedactedText+"@"+RedactedText)
	sanitized = passwordPattern.ReplaceAllString(sanitized, "${1}="+RedactedText)
	return authHeaderPattern.ReplaceAllString(sanitized, "${1} "+RedactedText)
}
