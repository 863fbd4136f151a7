// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the log scrubber used by Logger(). The API carries
// secrets and PII in places that end up in access logs: capability tokens
// appear as path segments (confirmation, appeal, and author-access links
// are opened straight from emails), and author addresses may show up in
// query strings or referers. Redact removes both before anything is
// logged.
//
// Security note: redaction reduces but does not eliminate the risk of
// sensitive data reaching logs. Request and response bodies are never
// logged at all.
package middleware

import (
	"regexp"
)

// NOTE: order matters. UUIDs are redacted before the generic token
// pattern so an id is labeled as an id, and emails last since the token
// pattern could otherwise eat the local part of an address.
var (
	// uuidRE matches UUID-shaped identifiers (access tokens, submission ids).
	uuidRE = regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`)
	// tokenRE matches the 32-char alphanumeric confirmation/appeal tokens.
	tokenRE = regexp.MustCompile(`\b[A-Za-z0-9]{32}\b`)
	// emailRE matches email addresses.
	emailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
)

// Redact scrubs capability tokens, UUID identifiers, and email addresses
// from s, replacing each with a typed placeholder.
func Redact(s string) string {
	if s == "" {
		return s
	}
	out := uuidRE.ReplaceAllString(s, "[REDACTED:id]")
	out = tokenRE.ReplaceAllString(out, "[REDACTED:token]")
	out = emailRE.ReplaceAllString(out, "[REDACTED:email]")
	return out
}
