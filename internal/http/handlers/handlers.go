// Handler wiring for the submission API.
//
// Handlers are transport-thin: they parse input (JSON bodies, multipart
// forms, path params), call application services, and translate results
// into HTTP responses. All business rules live in internal/services.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/notify"
	"github.com/francocz/ai-theoretical.org/internal/services"
	"github.com/francocz/ai-theoretical.org/internal/storage"
)

//
// Service contracts (context-aware)
//

// SubmissionAPI defines the submission lifecycle operations consumed by
// HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type SubmissionAPI interface {
	// Create validates and stores a new unconfirmed submission.
	Create(ctx context.Context, in services.CreateInput) (*services.CreateResult, error)
	// Confirm consumes an emailed confirmation token.
	Confirm(ctx context.Context, token string) (*services.ConfirmResult, error)
	// List returns the submissions awaiting moderation.
	List(ctx context.Context) ([]domain.Submission, error)
	// Get returns one submission with all details.
	Get(ctx context.Context, id string) (*domain.Submission, error)
	// UpdateStatus applies a moderation decision.
	UpdateStatus(ctx context.Context, id string, status domain.Status, note string) (*domain.Submission, error)
	// Delete removes a submission and its files.
	Delete(ctx context.Context, id string) error
	// Appeal consumes an appeal token and files the author's response.
	Appeal(ctx context.Context, in services.AppealInput) (string, error)
	// CheckAppeal reports whether an appeal token is currently usable.
	CheckAppeal(ctx context.Context, token string) (*services.AppealStatus, error)
	// Withdraw removes a paper from circulation on the author's behalf.
	Withdraw(ctx context.Context, grant *domain.AccessGrant, paperID string) error
	// SubmitNewVersion uploads a replacement manuscript.
	SubmitNewVersion(ctx context.Context, grant *domain.AccessGrant, in services.NewVersionInput) (*services.NewVersionResult, error)
	// VerifyPaperToken exchanges an email + paper-token pair for a
	// short-lived management token.
	VerifyPaperToken(ctx context.Context, email, paperToken string) (*services.VerifyResult, error)
	// FindAcceptedBySlug resolves a public paper slug.
	FindAcceptedBySlug(ctx context.Context, slug string) (*domain.Submission, error)
}

// AccessAPI defines the author self-service grant operations.
type AccessAPI interface {
	// RequestAccess mails a management link if the address owns papers.
	RequestAccess(ctx context.Context, email string) error
	// Validate resolves an access token to its grant.
	Validate(ctx context.Context, token string) (*domain.AccessGrant, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints of the submission API. It depends
// on abstract service interfaces to keep transport concerns separate
// from business logic; the blob store and mailer are used directly only
// for file downloads and the admin send-email endpoint.
type Handlers struct {
	subSvc      SubmissionAPI
	accessSvc   AccessAPI
	blobs       storage.BlobStore
	mailer      notify.Mailer
	subLimiter  *services.RateLimiter
	accLimiter  *services.RateLimiter
}

// New constructs a Handlers instance bound to the given services.
func New(subSvc SubmissionAPI, accessSvc AccessAPI, blobs storage.BlobStore, mailer notify.Mailer, subLimiter, accLimiter *services.RateLimiter) *Handlers {
	return &Handlers{
		subSvc:     subSvc,
		accessSvc:  accessSvc,
		blobs:      blobs,
		mailer:     mailer,
		subLimiter: subLimiter,
		accLimiter: accLimiter,
	}
}

//
// Helpers
//

// formUpload reads one optional multipart file part. A missing part is
// not an error; it yields a nil upload. The returned closer is always
// safe to defer.
func formUpload(c *gin.Context, field string) (*services.FileUpload, func(), error) {
	noop := func() {}
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, noop, nil
		}
		return nil, noop, err
	}
	f, err := fh.Open()
	if err != nil {
		return nil, noop, err
	}
	return &services.FileUpload{
		Filename:    fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Reader:      f,
	}, func() { f.Close() }, nil
}

// serveBlob streams a stored object to the client with the given
// Content-Disposition. A missing key or object maps to 404.
func (h *Handlers) serveBlob(c *gin.Context, key, disposition, fallbackType string) {
	if key == "" {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "file not found")
		return
	}
	obj, err := h.blobs.Get(c.Request.Context(), key)
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "file not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}
	defer obj.Body.Close()

	contentType := obj.ContentType
	if contentType == "" {
		contentType = fallbackType
	}
	c.DataFromReader(http.StatusOK, obj.ContentLength, contentType, obj.Body, map[string]string{
		"Content-Disposition": disposition,
	})
}
