// Moderation endpoints (bearer-token protected).
//
//   - GET    /api/submissions              (pending queue)
//   - GET    /api/submission/{id}          (full record)
//   - GET    /api/submission/{id}/pdf      (manuscript download)
//   - GET    /api/submission/{id}/code     (code archive download)
//   - POST   /api/submission/{id}/status   (decision)
//   - DELETE /api/submission/{id}          (hard delete)
//   - GET/POST /api/rate-limit             (submission limiter admin)
//   - GET/POST /api/author-access/rate-limit
//   - POST   /api/send-email               (manual email)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/services"
)

// ListSubmissionsResponse wraps the moderation queue.
type ListSubmissionsResponse struct {
	Submissions []domain.Submission `json:"submissions"`
	Count       int                 `json:"count"`
}

// UpdateStatusRequest is the JSON payload of a moderation decision.
type UpdateStatusRequest struct {
	// Status must be one of: accepted, rejected, pending.
	Status string `json:"status" binding:"required" example:"accepted"`
	// Note is an optional message shown to the author.
	Note string `json:"note" example:"Please expand section 3 before resubmitting."`
}

// RateLimitUpdateRequest is a partial limiter reconfiguration; omitted
// fields keep their current value.
type RateLimitUpdateRequest struct {
	DailyLimit  *int    `json:"dailyLimit"`
	PerKeyLimit *int    `json:"perKeyLimit"`
	Enabled     *bool   `json:"enabled"`
	AlertEmail  *string `json:"alertEmail"`
}

// SendEmailRequest is the manual email payload.
type SendEmailRequest struct {
	To       string `json:"to" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	TextBody string `json:"textBody"`
	HTMLBody string `json:"htmlBody"`
}

// ListSubmissions godoc
// @ID          listSubmissions
// @Summary     List pending submissions
// @Tags        Moderation
// @Produce     json
// @Security    BearerAuth
// @Success     200  {object}  handlers.ListSubmissionsResponse
// @Failure     401  {object}  handlers.ErrorResponse
// @Failure     500  {object}  handlers.ErrorResponse
// @Router      /api/submissions [get]
func (h *Handlers) ListSubmissions(c *gin.Context) {
	subs, err := h.subSvc.List(c.Request.Context())
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, ListSubmissionsResponse{Submissions: subs, Count: len(subs)})
}

// GetSubmission godoc
// @ID          getSubmission
// @Summary     Get one submission
// @Tags        Moderation
// @Produce     json
// @Security    BearerAuth
// @Param       id  path  string  true  "Submission ID"
// @Success     200  {object}  domain.Submission
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/submission/{id} [get]
func (h *Handlers) GetSubmission(c *gin.Context) {
	sub, err := h.subSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// DownloadPDF streams the manuscript of a submission as an attachment.
func (h *Handlers) DownloadPDF(c *gin.Context) {
	sub, err := h.subSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	h.serveBlob(c, sub.PDFKey, `attachment; filename="`+sub.ID+`.pdf"`, "application/pdf")
}

// DownloadCode streams the code archive of a submission as an attachment.
func (h *Handlers) DownloadCode(c *gin.Context) {
	sub, err := h.subSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		serviceError(c, err)
		return
	}
	h.serveBlob(c, sub.CodeZipKey, `attachment; filename="`+sub.ID+`-code.zip"`, "application/zip")
}

// UpdateSubmissionStatus godoc
// @ID          updateSubmissionStatus
// @Summary     Apply a moderation decision
// @Description Accepts or rejects a submission (or returns it to pending). A rejection issues the author's appeal token and emails the decision.
// @Tags        Moderation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id    path  string  true  "Submission ID"
// @Param       body  body  handlers.UpdateStatusRequest  true  "Decision"
// @Success     200  {object}  domain.Submission
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/submission/{id}/status [post]
func (h *Handlers) UpdateSubmissionStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	sub, err := h.subSvc.UpdateStatus(c.Request.Context(), c.Param("id"), domain.Status(req.Status), req.Note)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, sub)
}

// DeleteSubmission godoc
// @ID          deleteSubmission
// @Summary     Delete a submission and its files
// @Tags        Moderation
// @Security    BearerAuth
// @Param       id  path  string  true  "Submission ID"
// @Success     204  {string}  string  "No Content"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/submission/{id} [delete]
func (h *Handlers) DeleteSubmission(c *gin.Context) {
	if err := h.subSvc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		serviceError(c, err)
		return
	}
	noContent(c)
}

// rateLimitStatus returns a handler reporting one limiter's state.
func rateLimitStatus(l *services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		st, err := l.Status(c.Request.Context())
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
			return
		}
		ok(c, http.StatusOK, st)
	}
}

// rateLimitUpdate returns a handler applying a partial config change to
// one limiter.
func rateLimitUpdate(l *services.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RateLimitUpdateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
			return
		}
		cfg, err := l.UpdateConfig(c.Request.Context(), services.ConfigUpdate{
			DailyLimit:  req.DailyLimit,
			PerKeyLimit: req.PerKeyLimit,
			Enabled:     req.Enabled,
			AlertEmail:  req.AlertEmail,
		})
		if err != nil {
			fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
			return
		}
		ok(c, http.StatusOK, cfg)
	}
}

// SubmissionRateLimit reports the submission limiter's config and
// today's counters.
func (h *Handlers) SubmissionRateLimit(c *gin.Context) { rateLimitStatus(h.subLimiter)(c) }

// UpdateSubmissionRateLimit reconfigures the submission limiter.
func (h *Handlers) UpdateSubmissionRateLimit(c *gin.Context) { rateLimitUpdate(h.subLimiter)(c) }

// AccessRateLimit reports the author-access limiter's config and
// today's counters.
func (h *Handlers) AccessRateLimit(c *gin.Context) { rateLimitStatus(h.accLimiter)(c) }

// UpdateAccessRateLimit reconfigures the author-access limiter.
func (h *Handlers) UpdateAccessRateLimit(c *gin.Context) { rateLimitUpdate(h.accLimiter)(c) }

// SendEmail godoc
// @ID          sendEmail
// @Summary     Send a manual email
// @Description Sends an ad-hoc email from the site address, for moderator follow-ups that the templated notifications do not cover.
// @Tags        Moderation
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       body  body  handlers.SendEmailRequest  true  "Email"
// @Success     200  {object}  map[string]bool
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     502  {object}  handlers.ErrorResponse  "Delivery failed"
// @Router      /api/send-email [post]
func (h *Handlers) SendEmail(c *gin.Context) {
	var req SendEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "to and subject are required")
		return
	}
	if strings.TrimSpace(req.TextBody) == "" && strings.TrimSpace(req.HTMLBody) == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "a text or html body is required")
		return
	}
	if err := h.mailer.Send(req.To, req.Subject, req.TextBody, req.HTMLBody); err != nil {
		fail(c, http.StatusBadGateway, ErrCodeInternal, "email delivery failed")
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true})
}
