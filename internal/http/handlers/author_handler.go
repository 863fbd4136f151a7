// Author self-service endpoints.
//
//   - POST /api/verify-token                  (email + paper token → manage token)
//   - POST /api/author-access/request         (email an access link)
//   - GET  /api/author-access/page/{token}    (management page, HTML)
//   - POST /api/author-access/withdraw        (withdraw a paper)
//   - POST /api/author-access/new-version     (upload a replacement manuscript)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/services"
)

// VerifyTokenRequest identifies a paper by its author's email and the
// paper token from the acceptance email.
type VerifyTokenRequest struct {
	Email      string `json:"email" binding:"required"`
	PaperToken string `json:"paperToken" binding:"required"`
}

// RequestAccessRequest asks for a management link by email.
type RequestAccessRequest struct {
	Email string `json:"email" binding:"required"`
}

// WithdrawRequest names the paper to withdraw under an access grant.
type WithdrawRequest struct {
	AccessToken string `json:"accessToken"`
	PaperID     string `json:"paperId"`
}

// VerifyToken godoc
// @ID          verifyToken
// @Summary     Verify a paper token
// @Description Exchanges an author email and paper token for a one-hour management token. Only accepted papers verify.
// @Tags        Authors
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.VerifyTokenRequest  true  "Credentials"
// @Success     200  {object}  services.VerifyResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse  "No matching accepted paper"
// @Router      /api/verify-token [post]
func (h *Handlers) VerifyToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email and paperToken are required")
		return
	}
	res, err := h.subSvc.VerifyPaperToken(c.Request.Context(), strings.TrimSpace(req.Email), strings.TrimSpace(req.PaperToken))
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}

// RequestAccess godoc
// @ID          requestAccess
// @Summary     Request an author access link
// @Description Emails a 24-hour management link if the address owns accepted papers. The response is identical either way, so addresses cannot be enumerated.
// @Tags        Authors
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.RequestAccessRequest  true  "Email"
// @Success     200  {object}  map[string]any
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     429  {object}  handlers.ErrorResponse
// @Router      /api/author-access/request [post]
func (h *Handlers) RequestAccess(c *gin.Context) {
	var req RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "email is required")
		return
	}
	if err := h.accessSvc.RequestAccess(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"success": true,
		"message": "If this address has accepted papers, an access link has been sent.",
	})
}

// AccessPage renders the author management page behind an access token.
// Invalid or expired tokens get an HTML error page, not a JSON envelope,
// since the link is opened from an email.
func (h *Handlers) AccessPage(c *gin.Context) {
	grant, err := h.accessSvc.Validate(c.Request.Context(), c.Param("token"))
	if err != nil {
		renderHTML(c, http.StatusUnauthorized, "access", accessPageData{
			Heading: "Link expired",
			Message: "This access link is invalid or has expired. Request a new one from the site.",
		})
		return
	}

	papers := make([]accessPaper, 0, len(grant.Papers))
	for _, p := range grant.Papers {
		papers = append(papers, accessPaper{
			ID:          p.ID,
			Title:       p.Title,
			Track:       p.Track.DisplayName(),
			SubmittedAt: p.SubmittedAt.Format("2 January 2006"),
		})
	}
	renderHTML(c, http.StatusOK, "access", accessPageData{
		Heading: "Your papers",
		Message: "This link is valid for 24 hours from the time it was requested.",
		Token:   c.Param("token"),
		Papers:  papers,
		Tracks:  domain.Tracks,
	})
}

// withdrawRequest reads the withdraw payload from either a JSON body or
// the management page's plain form post.
func withdrawRequest(c *gin.Context) WithdrawRequest {
	if strings.HasPrefix(c.ContentType(), "application/json") {
		var req WithdrawRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			return req
		}
		return WithdrawRequest{}
	}
	return WithdrawRequest{
		AccessToken: c.PostForm("accessToken"),
		PaperID:     c.PostForm("paperId"),
	}
}

// Withdraw godoc
// @ID          withdrawPaper
// @Summary     Withdraw a paper
// @Description Permanently withdraws a paper covered by the access grant. Irreversible.
// @Tags        Authors
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.WithdrawRequest  true  "Grant token and paper id"
// @Success     200  {object}  map[string]any
// @Failure     400  {object}  handlers.ErrorResponse  "Already withdrawn"
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid grant"
// @Failure     403  {object}  handlers.ErrorResponse  "Paper not covered by grant"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /api/author-access/withdraw [post]
func (h *Handlers) Withdraw(c *gin.Context) {
	req := withdrawRequest(c)
	if req.AccessToken == "" || req.PaperID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "accessToken and paperId are required")
		return
	}
	grant, err := h.accessSvc.Validate(c.Request.Context(), req.AccessToken)
	if err != nil {
		serviceError(c, err)
		return
	}
	if err := h.subSvc.Withdraw(c.Request.Context(), grant, req.PaperID); err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"success": true, "message": "Paper withdrawn."})
}

// NewVersion godoc
// @ID          newVersion
// @Summary     Submit a new version
// @Description Uploads a replacement manuscript for a paper covered by the access grant. An accepted paper returns to the moderation queue.
// @Tags        Authors
// @Accept      multipart/form-data
// @Produce     json
// @Param       accessToken  formData  string  true   "Access token"
// @Param       paperId      formData  string  true   "Paper ID"
// @Param       track        formData  string  false  "New editorial track"
// @Param       pdf          formData  file    true   "Replacement PDF"
// @Success     200  {object}  services.NewVersionResult
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     401  {object}  handlers.ErrorResponse  "Invalid grant"
// @Failure     403  {object}  handlers.ErrorResponse  "Paper not covered by grant"
// @Router      /api/author-access/new-version [post]
func (h *Handlers) NewVersion(c *gin.Context) {
	token := c.PostForm("accessToken")
	paperID := c.PostForm("paperId")
	if token == "" || paperID == "" {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "accessToken and paperId are required")
		return
	}
	grant, err := h.accessSvc.Validate(c.Request.Context(), token)
	if err != nil {
		serviceError(c, err)
		return
	}

	pdf, closePDF, err := formUpload(c, "pdf")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer closePDF()

	res, err := h.subSvc.SubmitNewVersion(c.Request.Context(), grant, services.NewVersionInput{
		PaperID: paperID,
		Track:   c.PostForm("track"),
		PDF:     pdf,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, res)
}
