// HTML pages served directly by the API.
//
// The static site lives elsewhere; these are the few pages reached from
// email links (confirmation outcomes, the author management page), kept
// deliberately plain.
package handlers

import (
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/http/middleware"
)

// confirmPageData feeds the confirmation outcome page.
type confirmPageData struct {
	Heading string
	Title   string
	Track   string
	Message string
}

// accessPaper is one paper row on the author management page.
type accessPaper struct {
	ID          string
	Title       string
	Track       string
	SubmittedAt string
}

// accessPageData feeds the author management page.
type accessPageData struct {
	Heading string
	Message string
	Token   string
	Papers  []accessPaper
	Tracks  []domain.Track
}

var pageTmpl = template.Must(template.New("pages").Parse(`
{{define "head"}}<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>AI-Theoretical</title>
<style>
body{font-family:Georgia,serif;max-width:42rem;margin:3rem auto;padding:0 1rem;color:#222}
h1{font-size:1.4rem}
.paper{border:1px solid #ccc;padding:1rem;margin:1rem 0}
.meta{color:#666;font-size:.9rem}
form{margin-top:.5rem}
button{font:inherit}
</style>
</head>
<body>{{end}}

{{define "foot"}}
<p class="meta">AI-Theoretical &middot; ai-theoretical.org</p>
</body>
</html>{{end}}

{{define "confirm"}}{{template "head"}}
<h1>{{.Heading}}</h1>
{{if .Title}}<p><strong>{{.Title}}</strong>{{if .Track}} <span class="meta">({{.Track}})</span>{{end}}</p>{{end}}
<p>{{.Message}}</p>
{{template "foot"}}{{end}}

{{define "access"}}{{template "head"}}
<h1>{{.Heading}}</h1>
{{if .Message}}<p>{{.Message}}</p>{{end}}
{{range .Papers}}
<div class="paper">
<p><strong>{{.Title}}</strong></p>
<p class="meta">{{.Track}} &middot; submitted {{.SubmittedAt}}</p>
<form method="post" action="/api/author-access/new-version" enctype="multipart/form-data">
<input type="hidden" name="accessToken" value="{{$.Token}}">
<input type="hidden" name="paperId" value="{{.ID}}">
<label>New version (PDF): <input type="file" name="pdf" accept="application/pdf" required></label>
<label>Track: <select name="track"><option value="">(unchanged)</option>{{range $.Tracks}}<option value="{{.}}">{{.DisplayName}}</option>{{end}}</select></label>
<button type="submit">Upload new version</button>
</form>
<form method="post" action="/api/author-access/withdraw" onsubmit="return confirm('Withdraw this paper permanently?')">
<input type="hidden" name="accessToken" value="{{$.Token}}">
<input type="hidden" name="paperId" value="{{.ID}}">
<button type="submit">Withdraw paper</button>
</form>
</div>
{{end}}
{{template "foot"}}{{end}}
`))

// renderHTML writes one of the named page templates. Render failures
// after the header is out can only be logged.
func renderHTML(c *gin.Context, status int, name string, data any) {
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(status)
	if err := pageTmpl.ExecuteTemplate(c.Writer, name, data); err != nil {
		lg := middleware.LoggerFrom(c)
		lg.Error().Err(err).Str("template", name).Msg("render html page")
	}
}
