// Package services implements the business logic of the submission
// lifecycle: creation and confirmation, moderation decisions, appeals,
// author self-service (withdrawal, new versions) and the daily rate
// limiters that gate entry into the system.
//
// This file centralizes the service-level error values. Translation
// into HTTP status codes happens at the handler layer.
package services

import (
	"fmt"
)

var (
	// ErrSubmissionNotFound indicates that no submission exists under
	// the requested id.
	ErrSubmissionNotFound = fmt.Errorf("submission not found")

	// ErrTokenInvalid is returned for an unknown or expired
	// confirmation/appeal token.
	ErrTokenInvalid = fmt.Errorf("invalid or expired token")

	// ErrGrantInvalid is returned when an author-access token is
	// unknown or expired. The two cases are deliberately
	// indistinguishable.
	ErrGrantInvalid = fmt.Errorf("invalid or expired access token")

	// ErrPaperNotAuthorized is returned when a valid access grant does
	// not cover the requested paper.
	ErrPaperNotAuthorized = fmt.Errorf("paper not found or not authorized")

	// ErrAlreadyWithdrawn is returned when withdrawing a paper that is
	// already withdrawn, or submitting a new version of one.
	ErrAlreadyWithdrawn = fmt.Errorf("paper is already withdrawn")

	// ErrAlreadyAppealed is returned on a second appeal attempt. One
	// appeal per submission, the decision after it is final.
	ErrAlreadyAppealed = fmt.Errorf("appeal already submitted")

	// ErrAppealExpired is returned when the 14-day appeal window has
	// elapsed.
	ErrAppealExpired = fmt.Errorf("appeal deadline has passed")

	// ErrInvalidCredentials is returned by paper-token verification
	// when the email/token pair matches no accepted paper.
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
)

// ValidationError reports a missing or malformed input field, or an
// oversized/wrong-type file. It always maps to a 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return e.Field + ": " + e.Reason
}

// validationf builds a ValidationError for field.
func validationf(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// RateLimitError reports that a daily limit is exhausted. RetryAfter is
// the number of seconds until the counters reset at midnight UTC.
type RateLimitError struct {
	Reason     string
	RetryAfter int
}

func (e *RateLimitError) Error() string { return e.Reason }
