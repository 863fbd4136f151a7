package notify

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/francocz/ai-theoretical.org/internal/domain"
)

const emailFooter = `<hr style="border:none;border-top:1px solid #eee;margin:24px 0;">
<p style="color:#999;font-size:12px;text-align:center;margin:0;">
AI-Theoretical — A preprint server for AI-assisted theoretical writing<br>
<a href="https://ai-theoretical.org" style="color:#2563eb;">ai-theoretical.org</a>
</p>`

var emailTmpl = template.Must(template.New("emails").Parse(`
{{define "confirmation"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:24px;">
<h2>Confirm your submission</h2>
<p>Dear {{.AuthorName}},</p>
<p>Thank you for submitting <strong>{{.Title}}</strong> to the
<em>{{.TrackName}}</em> track.</p>
<p>Please confirm your submission by clicking the link below. The link
expires in 24 hours; unconfirmed submissions are discarded.</p>
<p><a href="{{.ConfirmURL}}" style="color:#2563eb;">Confirm submission</a></p>
<p style="color:#856404;font-size:14px;">If you did not submit this paper,
please ignore this email.</p>
` + emailFooter + `</div>
{{end}}

{{define "decision"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:24px;">
<h2>Decision on your submission</h2>
<p>Your paper <strong>{{.Title}}</strong> has been
<strong>{{if .Accepted}}accepted{{else}}not accepted{{end}}</strong>.</p>
{{if .Note}}<p>Moderator note: {{.Note}}</p>{{end}}
{{if .Accepted}}
<p>It will appear on the site shortly.</p>
{{else if .AppealURL}}
<p>You may appeal this decision until {{.Deadline}} by following the link
below and providing a written response (50 characters minimum). Each
submission may be appealed once.</p>
<p><a href="{{.AppealURL}}" style="color:#2563eb;">Appeal this decision</a></p>
{{end}}
` + emailFooter + `</div>
{{end}}

{{define "access"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:24px;">
<h2>Manage your papers</h2>
<p>A management link was requested for this address. It covers the
following accepted papers:</p>
<ul>{{range .Papers}}<li>{{.Title}}</li>{{end}}</ul>
<p><a href="{{.AccessURL}}" style="color:#2563eb;">Manage your papers</a></p>
<div style="background:#fff3cd;border:1px solid #ffc107;border-radius:8px;padding:16px;">
<p style="color:#856404;font-size:14px;margin:0;">
<strong>This link expires in 24 hours.</strong><br>
If you did not request this, please ignore this email.</p>
</div>
` + emailFooter + `</div>
{{end}}

{{define "withdrawal"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:24px;">
<h2>Paper withdrawn</h2>
<p>Your paper <strong>{{.Title}}</strong> has been withdrawn and will be
removed from the site. Withdrawal is permanent.</p>
` + emailFooter + `</div>
{{end}}

{{define "newversion"}}
<div style="font-family:sans-serif;max-width:600px;margin:0 auto;padding:24px;">
<h2>New version received</h2>
<p>Version {{.Version}} of <strong>{{.Title}}</strong> has been received
and is awaiting review{{if .TrackName}} in the <em>{{.TrackName}}</em>
track{{end}}. The previous version stays off the site until the new one
is approved.</p>
` + emailFooter + `</div>
{{end}}
`))

// Emails renders and sends the transactional emails of the submission
// lifecycle. All methods are fire and forget: errors are logged, never
// returned, so callers cannot fail a state transition on a mail error.
type Emails struct {
	Mailer Mailer
}

func (e *Emails) send(kind, to, subject, textBody string, data any) {
	var htmlBody string
	if data != nil {
		var buf bytes.Buffer
		if err := emailTmpl.ExecuteTemplate(&buf, kind, data); err != nil {
			log.Error().Err(err).Str("email", kind).Msg("render email template")
			return
		}
		htmlBody = buf.String()
	}
	if err := e.Mailer.Send(to, subject, textBody, htmlBody); err != nil {
		log.Error().Err(err).Str("email", kind).Msg("send email")
	}
}

// Confirmation asks the author to confirm a new submission.
func (e *Emails) Confirmation(to, authorName, title string, track domain.Track, confirmURL string) {
	e.send("confirmation", to, "Please confirm your submission: "+title, "", map[string]any{
		"AuthorName": authorName,
		"Title":      title,
		"TrackName":  track.DisplayName(),
		"ConfirmURL": confirmURL,
	})
}

// Decision informs the author of an accept or reject outcome. On
// rejection the appeal link and deadline are included.
func (e *Emails) Decision(to, title string, accepted bool, note, appealURL string, deadline time.Time) {
	verdict := "rejected"
	if accepted {
		verdict = "accepted"
	}
	e.send("decision", to, fmt.Sprintf("Your submission was %s: %s", verdict, title), "", map[string]any{
		"Title":     title,
		"Accepted":  accepted,
		"Note":      note,
		"AppealURL": appealURL,
		"Deadline":  deadline.UTC().Format("2 January 2006"),
	})
}

// AccessLink sends the author self-service management link.
func (e *Emails) AccessLink(to string, papers []domain.PaperSummary, accessURL string) {
	e.send("access", to, "Manage your papers on AI-Theoretical", "", map[string]any{
		"Papers":    papers,
		"AccessURL": accessURL,
	})
}

// Withdrawal confirms a completed withdrawal.
func (e *Emails) Withdrawal(to, title string) {
	e.send("withdrawal", to, "Paper withdrawn: "+title, "", map[string]any{
		"Title": title,
	})
}

// NewVersion confirms receipt of a new manuscript version.
func (e *Emails) NewVersion(to, title string, version int, track domain.Track) {
	trackName := ""
	if track != "" {
		trackName = track.DisplayName()
	}
	e.send("newversion", to, fmt.Sprintf("New version submitted: %s (v%d)", title, version), "", map[string]any{
		"Title":     title,
		"Version":   version,
		"TrackName": trackName,
	})
}

// RateLimitAlert warns the configured address when a daily limit nears
// (80%) or hits (100%) its cap. scope names the limiter ("submission"
// or "author-access"). Plain text, no template.
func (e *Emails) RateLimitAlert(to, scope, level string, count, limit int, date string) {
	subject := fmt.Sprintf("[ai-theoretical.org] Warning: 80%% of daily %s limit reached", scope)
	tail := "Consider monitoring for potential abuse."
	if level == "critical" {
		subject = fmt.Sprintf("[ai-theoretical.org] CRITICAL: Daily %s limit reached", scope)
		tail = "Further requests are now being rejected until midnight UTC."
	}
	body := fmt.Sprintf("Rate limit alert for ai-theoretical.org\n\nLimiter: %s\nStatus: %s\nCurrent count: %d/%d\nDate: %s\n\n%s\n",
		scope, level, count, limit, date, tail)
	e.send("ratelimit", to, subject, body, nil)
}
