// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, consistent JSON serialization, and
// the translation from service-level errors to the HTTP error taxonomy.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - Endpoints reached from email links render HTML pages instead (html.go);
//     everything else returns the JSON envelope.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "submission not found"
//	}
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/http/middleware"
	"github.com/francocz/ai-theoretical.org/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//   - RetryAfter: Present only on 429 responses; seconds until the daily
//     counters reset at midnight UTC.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"submission not found"`
	// Seconds until the rate-limit window resets (429 only)
	RetryAfter int `json:"retryAfter,omitempty" example:"30600"`
}

// fail aborts the request with a structured error and logs server-side errors.
func fail(c *gin.Context, status int, code, msg string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an empty 204 response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// serviceError translates a service-layer error into the HTTP taxonomy:
// validation → 400, bad credentials/grants → 401, wrong resource → 403,
// unknown id/token → 404, rate limit → 429 with Retry-After, anything
// else → 500 with a generic message that never leaks internals.
func serviceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	var rle *services.RateLimitError
	switch {
	case errors.As(err, &verr):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, verr.Error())
	case errors.As(err, &rle):
		c.Header("Retry-After", strconv.Itoa(rle.RetryAfter))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{
			RequestID:  c.Writer.Header().Get("X-Request-ID"),
			Code:       ErrCodeRateLimited,
			Message:    rle.Reason,
			RetryAfter: rle.RetryAfter,
		})
	case errors.Is(err, services.ErrSubmissionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "submission not found")
	case errors.Is(err, services.ErrTokenInvalid):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "invalid or expired token")
	case errors.Is(err, services.ErrGrantInvalid):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired access token")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrPaperNotAuthorized):
		fail(c, http.StatusForbidden, ErrCodeForbidden, "paper not found or not authorized")
	case errors.Is(err, services.ErrAlreadyWithdrawn):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "paper is already withdrawn")
	case errors.Is(err, services.ErrAlreadyAppealed):
		fail(c, http.StatusBadRequest, ErrCodeAppealClosed, "appeal already submitted; the decision is final")
	case errors.Is(err, services.ErrAppealExpired):
		fail(c, http.StatusBadRequest, ErrCodeAppealClosed, "appeal deadline has passed")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
	}
}
