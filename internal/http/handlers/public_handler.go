// Public file serving.
//
//   - GET /papers/{slug}.pdf  (accepted manuscript, inline)
//   - GET /papers/{slug}.zip  (accepted paper's code archive, download)
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/services"
)

// PaperFile godoc
// @ID          paperFile
// @Summary     Serve an accepted paper's file
// @Description Resolves a title slug to its accepted submission and streams the manuscript (inline) or code archive (download). Responses are publicly cacheable for a day.
// @Tags        Papers
// @Produce     application/pdf
// @Param       file  path  string  true  "Slug plus extension, e.g. on-the-formal-limits-of.pdf"
// @Success     200  {file}    file
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /papers/{file} [get]
func (h *Handlers) PaperFile(c *gin.Context) {
	name := c.Param("file")
	var slug, ext string
	switch {
	case strings.HasSuffix(name, ".pdf"):
		slug, ext = strings.TrimSuffix(name, ".pdf"), "pdf"
	case strings.HasSuffix(name, ".zip"):
		slug, ext = strings.TrimSuffix(name, ".zip"), "zip"
	default:
		fail(c, http.StatusNotFound, ErrCodeNotFound, "file not found")
		return
	}

	sub, err := h.subSvc.FindAcceptedBySlug(c.Request.Context(), slug)
	if errors.Is(err, services.ErrSubmissionNotFound) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, "file not found")
		return
	}
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal error")
		return
	}

	// Accepted content is immutable between versions; let CDNs keep it
	// for a day.
	c.Header("Cache-Control", "public, max-age=86400")

	if ext == "pdf" {
		h.serveBlob(c, sub.PDFKey, `inline; filename="`+slug+`.pdf"`, "application/pdf")
		return
	}
	h.serveBlob(c, sub.CodeZipKey, `attachment; filename="`+slug+`.zip"`, "application/zip")
}
