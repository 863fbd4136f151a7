// Package services – token generation.
//
// All security tokens are generated here so the rest of the codebase
// never touches crypto/rand directly.
package services

import (
	"crypto/rand"

	"github.com/google/uuid"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// NewID returns a random submission id.
func NewID() string { return uuid.NewString() }

// NewPaperToken returns the short persistent identifier an author later
// combines with their email for self-service verification. Eight hex
// chars (~4 billion values) is enough because it is only ever checked
// together with the matching email.
func NewPaperToken() string { return uuid.NewString()[:8] }

// NewAccessToken returns a single-use author-access or management
// token.
func NewAccessToken() string { return uuid.NewString() }

// NewSecureToken returns a 32-character alphanumeric token for
// confirmation and appeal links.
func NewSecureToken() string {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand only fails when the platform entropy source is
		// broken; there is no sane fallback.
		panic(err)
	}
	out := make([]byte, len(buf))
	for i, b := range buf {
		out[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(out)
}
