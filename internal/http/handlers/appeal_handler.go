// Appeal endpoints.
//
//   - POST /api/appeal          (file an appeal, multipart)
//   - GET  /api/appeal/{token}  (check token validity for the appeal form)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/services"
)

// AppealResponse acknowledges a filed appeal.
type AppealResponse struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SubmitAppeal godoc
// @ID          submitAppeal
// @Summary     Appeal a rejection
// @Description Files the single permitted appeal for a rejected paper, optionally replacing the manuscript and code archive. Must happen within 14 days of rejection.
// @Tags        Appeals
// @Accept      multipart/form-data
// @Produce     json
// @Param       appealToken   formData  string  true   "Appeal token from the rejection email"
// @Param       responseText  formData  string  true   "Response to the decision (min 50 chars)"
// @Param       pdf           formData  file    false  "Replacement PDF"
// @Param       code          formData  file    false  "Replacement code archive"
// @Success     200  {object}  handlers.AppealResponse
// @Failure     400  {object}  handlers.ErrorResponse  "Validation error, already appealed, or deadline passed"
// @Failure     404  {object}  handlers.ErrorResponse  "Unknown token"
// @Router      /api/appeal [post]
func (h *Handlers) SubmitAppeal(c *gin.Context) {
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

	id, err := h.subSvc.Appeal(c.Request.Context(), services.AppealInput{
		Token:        c.PostForm("appealToken"),
		ResponseText: c.PostForm("responseText"),
		PDF:          pdf,
		Code:         code,
	})
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, AppealResponse{
		Success: true,
		ID:      id,
		Message: "Appeal submitted. The moderators will review it and respond by email.",
	})
}

// CheckAppeal godoc
// @ID          checkAppeal
// @Summary     Check an appeal token
// @Description Reports whether an appeal token is still usable, for the appeal form to decide what to render.
// @Tags        Appeals
// @Produce     json
// @Param       token  path  string  true  "Appeal token"
// @Success     200  {object}  services.AppealStatus
// @Failure     404  {object}  services.AppealStatus  "Unknown or consumed token"
// @Router      /api/appeal/{token} [get]
func (h *Handlers) CheckAppeal(c *gin.Context) {
	st, err := h.subSvc.CheckAppeal(c.Request.Context(), c.Param("token"))
	if errors.Is(err, services.ErrTokenInvalid) {
		// The form distinguishes states by the payload, not the status.
		c.JSON(http.StatusNotFound, services.AppealStatus{Valid: false, Reason: "Invalid token"})
		return
	}
	if err != nil {
		serviceError(c, err)
		return
	}
	ok(c, http.StatusOK, st)
}
