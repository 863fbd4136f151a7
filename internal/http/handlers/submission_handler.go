// Public submission endpoints.
//
//   - POST /api/submit          (multipart submission form)
//   - GET  /api/confirm/{token} (email confirmation link, HTML)
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/services"
)

// SubmitResponse is returned to the submitting author.
type SubmitResponse struct {
	services.CreateResult
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// parseBool accepts the boolean spellings browsers and fetch clients
// send for checkbox fields.
func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// SubmitPaper godoc
// @ID          submitPaper
// @Summary     Submit a paper
// @Description Accepts a multipart submission form, stores the manuscript, and emails a confirmation link. The submission stays invisible to moderators until confirmed.
// @Tags        Submissions
// @Accept      multipart/form-data
// @Produce     json
//
// @Param       authorName        formData  string  true   "Author name"
// @Param       authorEmail       formData  string  true   "Author email"
// @Param       authorAffiliation formData  string  false  "Affiliation"
// @Param       coAuthors         formData  string  false  "Co-authors"
// @Param       title             formData  string  true   "Paper title"
// @Param       abstract          formData  string  true   "Abstract"
// @Param       aiModels          formData  string  true   "AI models used"
// @Param       notes             formData  string  false  "Notes for moderators"
// @Param       track             formData  string  true   "Editorial track"
// @Param       acceptTerms       formData  string  true   "Must be true"
// @Param       pdf               formData  file    false  "Manuscript PDF (max 50MB)"
// @Param       code              formData  file    false  "Code archive ZIP (max 20MB)"
//
// @Success     200  {object}  handlers.SubmitResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error"
// @Failure     429  {object}  handlers.ErrorResponse  "Rate limited"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /api/submit [post]
func (h *Handlers) SubmitPaper(c *gin.Context) {
	pdf, closePDF, err := formUpload(c, "pdf")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer closePDF()
	code, closeCode, err := formUpload(c, "code")
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid multipart form")
		return
	}
	defer closeCode()

	in := services.CreateInput{
		AuthorName:        c.PostForm("authorName"),
		AuthorEmail:       strings.TrimSpace(c.PostForm("authorEmail")),
		AuthorAffiliation: c.PostForm("authorAffiliation"),
		CoAuthors:         c.PostForm("coAuthors"),
		Title:             c.PostForm("title"),
		Abstract:          c.PostForm("abstract"),
		AIModels:          c.PostForm("aiModels"),
		Notes:             c.PostForm("notes"),
		Track:             c.PostForm("track"),
		AcceptTerms:       parseBool(c.PostForm("acceptTerms")),
		PDF:               pdf,
		Code:              code,
		ClientIP:          c.ClientIP(),
	}

	res, err := h.subSvc.Create(c.Request.Context(), in)
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, SubmitResponse{
		CreateResult: *res,
		Success:      true,
		Message:      "Submission received. Please check your email to confirm it.",
	})
}

// ConfirmSubmission godoc
// @ID          confirmSubmission
// @Summary     Confirm a submission
// @Description Consumes the emailed confirmation token and renders an HTML outcome page. Confirmed submissions enter the moderation queue.
// @Tags        Submissions
// @Produce     html
//
// @Param       token  path  string  true  "Confirmation token"
//
// @Success     200  {string}  string  "Confirmed (or already confirmed)"
// @Failure     400  {string}  string  "Expired link"
// @Failure     404  {string}  string  "Submission no longer exists"
// @Router      /api/confirm/{token} [get]
func (h *Handlers) ConfirmSubmission(c *gin.Context) {
	res, err := h.subSvc.Confirm(c.Request.Context(), c.Param("token"))
	if err != nil {
		renderHTML(c, http.StatusInternalServerError, "confirm", confirmPageData{
			Heading: "Something went wrong",
			Message: "Please try again later.",
		})
		return
	}

	switch res.Outcome {
	case services.ConfirmSuccess:
		renderHTML(c, http.StatusOK, "confirm", confirmPageData{
			Heading: "Submission confirmed",
			Title:   res.Title,
			Track:   res.Track.DisplayName(),
			Message: "Your paper has entered the moderation queue. You will receive an email once it has been reviewed.",
		})
	case services.ConfirmAlready:
		renderHTML(c, http.StatusOK, "confirm", confirmPageData{
			Heading: "Already confirmed",
			Title:   res.Title,
			Track:   res.Track.DisplayName(),
			Message: "This submission was already confirmed. No further action is needed.",
		})
	case services.ConfirmExpired:
		renderHTML(c, http.StatusBadRequest, "confirm", confirmPageData{
			Heading: "Link expired",
			Message: "This confirmation link is invalid or has expired. Please submit your paper again.",
		})
	default:
		renderHTML(c, http.StatusNotFound, "confirm", confirmPageData{
			Heading: "Submission not found",
			Message: "This submission no longer exists.",
		})
	}
}
