// Package services – SubmissionService
//
// This file implements the submission lifecycle state machine:
//
//	unconfirmed → pending → accepted | rejected
//	rejected    → appealed (once, within 14 days)
//	accepted    → pending  (new version, re-review)
//	any except withdrawn → withdrawn
//
// All validation happens before any storage mutation; once a mutation
// begins, notification failures are logged by the notify layer but the
// caller still receives a definitive result.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/repo"
	"github.com/francocz/ai-theoretical.org/internal/storage"
)

// emailPattern is deliberately loose: one @, no whitespace, a dot in
// the domain. Real validation is the confirmation email itself.
var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Notifier sends the lifecycle emails. *notify.Emails satisfies it.
type Notifier interface {
	Confirmation(to, authorName, title string, track domain.Track, confirmURL string)
	Decision(to, title string, accepted bool, note, appealURL string, deadline time.Time)
	Withdrawal(to, title string)
	NewVersion(to, title string, version int, track domain.Track)
	AccessLink(to string, papers []domain.PaperSummary, accessURL string)
}

// SitePublisher tells the console to regenerate the public site.
// *notify.SiteNotifier satisfies it.
type SitePublisher interface {
	NotifyWithdraw(ctx context.Context, paperID string)
	NotifyNewVersion(ctx context.Context, paperID string)
}

// SubmissionService owns every transition of a submission. The zero
// values of ConfirmTTL and the size caps fall back to the defaults
// (24h, 50 MiB, 20 MiB).
type SubmissionService struct {
	DB      *gorm.DB
	Blobs   storage.BlobStore
	Emails  Notifier
	Site    SitePublisher
	Limiter *RateLimiter
	// BaseURL is the public origin links are built against, e.g.
	// "https://ai-theoretical.org".
	BaseURL     string
	ConfirmTTL  time.Duration
	MaxPDFBytes int64
	MaxZipBytes int64
	Now         func() time.Time
}

func (s *SubmissionService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SubmissionService) confirmTTL() time.Duration {
	if s.ConfirmTTL > 0 {
		return s.ConfirmTTL
	}
	return 24 * time.Hour
}

func (s *SubmissionService) maxPDF() int64 {
	if s.MaxPDFBytes > 0 {
		return s.MaxPDFBytes
	}
	return DefaultMaxPDFBytes
}

func (s *SubmissionService) maxZip() int64 {
	if s.MaxZipBytes > 0 {
		return s.MaxZipBytes
	}
	return DefaultMaxZipBytes
}

// load fetches a submission or ErrSubmissionNotFound.
func (s *SubmissionService) load(ctx context.Context, id string) (*domain.Submission, error) {
	var sub domain.Submission
	err := repo.GetJSON(ctx, s.DB, repo.SubmissionKey(id), s.now(), &sub)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSubmissionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (s *SubmissionService) save(ctx context.Context, sub *domain.Submission) error {
	return repo.PutJSON(ctx, s.DB, repo.SubmissionKey(sub.ID), sub, s.now(), 0)
}

// CreateInput is the multipart submission form.
type CreateInput struct {
	AuthorName        string
	AuthorEmail       string
	AuthorAffiliation string
	CoAuthors         string
	Title             string
	Abstract          string
	AIModels          string
	Notes             string
	Track             string
	AcceptTerms       bool
	PDF               *FileUpload
	Code              *FileUpload
	ClientIP          string
}

// CreateResult is returned to the submitting author.
type CreateResult struct {
	ID                   string `json:"id"`
	Track                string `json:"track"`
	HasCode              bool   `json:"hasCode"`
	RequiresConfirmation bool   `json:"requiresConfirmation"`
}

// Create validates and stores a new submission in the unconfirmed
// state, uploads its files, and emails the author a confirmation link.
//
// Order matters: every validation runs before the rate limiter is
// consulted, and the limiter records the attempt before any storage
// write, so invalid submissions never consume quota and rate-limited
// ones never leave partial state.
func (s *SubmissionService) Create(ctx context.Context, in CreateInput) (*CreateResult, error) {
	for field, val := range map[string]string{
		"authorName":  in.AuthorName,
		"authorEmail": in.AuthorEmail,
		"title":       in.Title,
		"abstract":    in.Abstract,
		"aiModels":    in.AIModels,
		"track":       in.Track,
	} {
		if strings.TrimSpace(val) == "" {
			return nil, validationf(field, "missing required field")
		}
	}
	track := domain.Track(in.Track)
	if !domain.ValidTrack(track) {
		return nil, validationf("track", "invalid track")
	}
	if !in.AcceptTerms {
		return nil, validationf("acceptTerms", "terms must be accepted")
	}
	if !emailPattern.MatchString(in.AuthorEmail) {
		return nil, validationf("authorEmail", "invalid email format")
	}
	if in.PDF.present() {
		if err := validatePDF(in.PDF, s.maxPDF()); err != nil {
			return nil, err
		}
	}
	if in.Code.present() {
		if err := validateZip(in.Code, s.maxZip()); err != nil {
			return nil, err
		}
	}

	if err := s.Limiter.Check(ctx, in.ClientIP); err != nil {
		return nil, err
	}
	if err := s.Limiter.Record(ctx, in.ClientIP); err != nil {
		return nil, err
	}

	id := NewID()
	now := s.now()
	sub := &domain.Submission{
		ID:                id,
		PaperToken:        NewPaperToken(),
		ConfirmToken:      NewSecureToken(),
		Track:             track,
		AuthorName:        in.AuthorName,
		AuthorEmail:       in.AuthorEmail,
		AuthorAffiliation: in.AuthorAffiliation,
		CoAuthors:         in.CoAuthors,
		Title:             in.Title,
		Abstract:          in.Abstract,
		AIModels:          in.AIModels,
		Notes:             in.Notes,
		Status:            domain.StatusUnconfirmed,
		SubmittedAt:       now,
		SubmittedFromIP:   in.ClientIP,
		Version:           1,
	}

	if in.PDF.present() {
		sub.PDFKey = storage.PDFKey(id)
		if err := s.Blobs.Put(ctx, sub.PDFKey, in.PDF.Reader, "application/pdf"); err != nil {
			return nil, err
		}
	}
	if in.Code.present() {
		sub.CodeZipKey = storage.CodeKey(id)
		if err := s.Blobs.Put(ctx, sub.CodeZipKey, in.Code.Reader, "application/zip"); err != nil {
			return nil, err
		}
		sub.HasCode = true
	}

	// The submission is stored but NOT indexed; only confirmation adds
	// it to the moderation queue.
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	if err := repo.Put(ctx, s.DB, repo.ConfirmKey(sub.ConfirmToken), []byte(id), now, s.confirmTTL()); err != nil {
		return nil, err
	}

	submissionsCreated.WithLabelValues(string(track)).Inc()
	s.Emails.Confirmation(sub.AuthorEmail, sub.AuthorName, sub.Title, track,
		s.BaseURL+"/api/confirm/"+sub.ConfirmToken)

	return &CreateResult{ID: id, Track: string(track), HasCode: sub.HasCode, RequiresConfirmation: true}, nil
}

// ConfirmOutcome distinguishes the four results of following a
// confirmation link.
type ConfirmOutcome string

// Confirmation outcomes.
const (
	ConfirmSuccess  ConfirmOutcome = "success"
	ConfirmAlready  ConfirmOutcome = "already"
	ConfirmExpired  ConfirmOutcome = "expired"
	ConfirmNotFound ConfirmOutcome = "not_found"
)

// ConfirmResult reports the outcome plus the data the HTML page shows.
type ConfirmResult struct {
	Outcome ConfirmOutcome
	Title   string
	Track   domain.Track
}

// Confirm consumes a confirmation token: the submission transitions
// unconfirmed → pending, enters the moderation index, and the token is
// deleted. Re-visiting the link of an already-confirmed submission is
// reported as "already", not an error.
func (s *SubmissionService) Confirm(ctx context.Context, token string) (*ConfirmResult, error) {
	now := s.now()
	raw, err := repo.Get(ctx, s.DB, repo.ConfirmKey(token), now)
	if errors.Is(err, repo.ErrNotFound) {
		return &ConfirmResult{Outcome: ConfirmExpired}, nil
	}
	if err != nil {
		return nil, err
	}
	id := string(raw)

	sub, err := s.load(ctx, id)
	if errors.Is(err, ErrSubmissionNotFound) {
		return &ConfirmResult{Outcome: ConfirmNotFound}, nil
	}
	if err != nil {
		return nil, err
	}

	if sub.Status != domain.StatusUnconfirmed {
		return &ConfirmResult{Outcome: ConfirmAlready, Title: sub.Title, Track: sub.Track}, nil
	}

	sub.Status = domain.StatusPending
	sub.ConfirmedAt = &now
	sub.ConfirmToken = ""
	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	if err := repo.AddPending(ctx, s.DB, id, now); err != nil {
		return nil, err
	}
	if err := repo.Delete(ctx, s.DB, repo.ConfirmKey(token)); err != nil {
		return nil, err
	}

	submissionsConfirmed.Inc()
	return &ConfirmResult{Outcome: ConfirmSuccess, Title: sub.Title, Track: sub.Track}, nil
}

// List returns the submissions awaiting moderation. Index entries whose
// record is missing or no longer pending are skipped silently; the
// index is advisory.
func (s *SubmissionService) List(ctx context.Context) ([]domain.Submission, error) {
	ids, err := repo.PendingIndex(ctx, s.DB, s.now())
	if err != nil {
		return nil, err
	}
	out := make([]domain.Submission, 0, len(ids))
	for _, id := range ids {
		sub, err := s.load(ctx, id)
		if errors.Is(err, ErrSubmissionNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if sub.Status == domain.StatusPending {
			out = append(out, *sub)
		}
	}
	return out, nil
}

// Get returns one submission with all details.
func (s *SubmissionService) Get(ctx context.Context, id string) (*domain.Submission, error) {
	return s.load(ctx, id)
}

// UpdateStatus applies a moderation decision. newStatus must be one of
// accepted, rejected, or pending. A rejection stamps rejectedAt and
// issues the appeal token in the same write, since appeal validity is
// computed from rejectedAt. A submission that has already used its one
// appeal gets no new token: a rejection after the appeal is final.
// Leaving pending removes the submission from the moderation index.
func (s *SubmissionService) UpdateStatus(ctx context.Context, id string, newStatus domain.Status, note string) (*domain.Submission, error) {
	switch newStatus {
	case domain.StatusAccepted, domain.StatusRejected, domain.StatusPending:
	default:
		return nil, validationf("status", "invalid status")
	}

	sub, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub.Status = newStatus
	sub.StatusUpdatedAt = &now
	if note != "" {
		sub.StatusNote = note
	}

	var appealURL string
	var deadline time.Time
	if newStatus == domain.StatusRejected {
		sub.RejectedAt = &now
		if sub.AppealCount == 0 {
			sub.AppealToken = NewSecureToken()
			deadline = now.Add(domain.AppealWindow)
			sub.AppealDeadline = &deadline
			if err := repo.Put(ctx, s.DB, repo.AppealKey(sub.AppealToken), []byte(id), now, domain.AppealWindow); err != nil {
				return nil, err
			}
			appealURL = s.BaseURL + "/appeal?token=" + sub.AppealToken
		} else {
			// The appeal has been used; the stale deadline from the
			// first rejection must not resurface.
			sub.AppealDeadline = nil
		}
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}
	if newStatus != domain.StatusPending {
		if err := repo.RemovePending(ctx, s.DB, id, now); err != nil {
			return nil, err
		}
	}

	moderationDecisions.WithLabelValues(string(newStatus)).Inc()
	switch newStatus {
	case domain.StatusAccepted:
		s.Emails.Decision(sub.AuthorEmail, sub.Title, true, sub.StatusNote, "", time.Time{})
	case domain.StatusRejected:
		s.Emails.Decision(sub.AuthorEmail, sub.Title, false, sub.StatusNote, appealURL, deadline)
	}
	return sub, nil
}

// Delete removes a submission, its blobs, and its index entry. Blob
// deletes are tolerant: a missing object does not abort the removal of
// the record.
func (s *SubmissionService) Delete(ctx context.Context, id string) error {
	sub, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if sub.PDFKey != "" {
		if err := s.Blobs.Delete(ctx, sub.PDFKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	if sub.CodeZipKey != "" {
		if err := s.Blobs.Delete(ctx, sub.CodeZipKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
			return err
		}
	}
	if err := repo.Delete(ctx, s.DB, repo.SubmissionKey(id)); err != nil {
		return err
	}
	return repo.RemovePending(ctx, s.DB, id, s.now())
}

// AppealInput is the multipart appeal form. The files are optional
// replacements for the rejected manuscript and code.
type AppealInput struct {
	Token        string
	ResponseText string
	PDF          *FileUpload
	Code         *FileUpload
}

// Appeal consumes an appeal token. Checks run in a fixed order: text
// length, token existence, single-use cap, deadline, then file
// validation; the first failure wins. On success the submission enters
// the appealed state, the token is cleared, and re-review is a manual
// moderation action (the submission does not re-enter the pending
// index).
func (s *SubmissionService) Appeal(ctx context.Context, in AppealInput) (string, error) {
	text := strings.TrimSpace(in.ResponseText)
	if in.Token == "" {
		return "", validationf("appealToken", "appeal token is required")
	}
	if utf8.RuneCountInString(text) < 50 {
		return "", validationf("responseText", "response text is required (minimum 50 characters)")
	}

	now := s.now()
	raw, err := repo.Get(ctx, s.DB, repo.AppealKey(in.Token), now)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrTokenInvalid
	}
	if err != nil {
		return "", err
	}
	id := string(raw)
	sub, err := s.load(ctx, id)
	if err != nil {
		return "", err
	}

	if sub.AppealCount >= 1 {
		return "", ErrAlreadyAppealed
	}
	if !sub.AppealOpen(now) {
		return "", ErrAppealExpired
	}

	if in.PDF.present() {
		if err := validatePDF(in.PDF, s.maxPDF()); err != nil {
			return "", err
		}
	}
	if in.Code.present() {
		if err := validateZip(in.Code, s.maxZip()); err != nil {
			return "", err
		}
	}

	// Replacement files live under appeal-specific keys; the previous
	// blobs stay where they are, reachable through version history or
	// simply orphaned.
	if in.PDF.present() {
		key := storage.AppealPDFKey(id)
		if err := s.Blobs.Put(ctx, key, in.PDF.Reader, "application/pdf"); err != nil {
			return "", err
		}
		sub.PDFKey = key
	}
	if in.Code.present() {
		key := storage.AppealCodeKey(id)
		if err := s.Blobs.Put(ctx, key, in.Code.Reader, "application/zip"); err != nil {
			return "", err
		}
		sub.CodeZipKey = key
	}

	sub.Status = domain.StatusAppealed
	sub.AppealCount = 1
	sub.AppealText = text
	sub.AppealedAt = &now
	sub.AppealToken = ""

	if err := s.save(ctx, sub); err != nil {
		return "", err
	}
	if err := repo.Delete(ctx, s.DB, repo.AppealKey(in.Token)); err != nil {
		return "", err
	}

	appealsSubmitted.Inc()
	return id, nil
}

// AppealStatus is the public validity check behind the appeal form.
type AppealStatus struct {
	Valid    bool       `json:"valid"`
	Reason   string     `json:"reason,omitempty"`
	Title    string     `json:"title,omitempty"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// CheckAppeal reports whether an appeal token is currently usable.
// Unknown tokens (including already-consumed ones) yield
// ErrTokenInvalid.
func (s *SubmissionService) CheckAppeal(ctx context.Context, token string) (*AppealStatus, error) {
	now := s.now()
	raw, err := repo.Get(ctx, s.DB, repo.AppealKey(token), now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrTokenInvalid
	}
	if err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, string(raw))
	if err != nil {
		return nil, err
	}
	if !sub.AppealOpen(now) {
		return &AppealStatus{Valid: false, Reason: "Appeal deadline has passed"}, nil
	}
	return &AppealStatus{Valid: true, Title: sub.Title, Deadline: sub.AppealDeadline}, nil
}

// Withdraw permanently removes a paper from circulation on behalf of
// its author. The access grant must cover the paper. Withdrawal is
// irreversible; a second attempt fails with ErrAlreadyWithdrawn.
func (s *SubmissionService) Withdraw(ctx context.Context, grant *domain.AccessGrant, paperID string) error {
	if !grant.Authorizes(paperID) {
		return ErrPaperNotAuthorized
	}
	sub, err := s.load(ctx, paperID)
	if err != nil {
		return err
	}
	if sub.Status == domain.StatusWithdrawn {
		return ErrAlreadyWithdrawn
	}

	now := s.now()
	sub.Status = domain.StatusWithdrawn
	sub.WithdrawnAt = &now
	sub.WithdrawnBy = "author"
	if err := s.save(ctx, sub); err != nil {
		return err
	}
	if err := repo.RemovePending(ctx, s.DB, paperID, now); err != nil {
		return err
	}

	s.Site.NotifyWithdraw(ctx, paperID)
	s.Emails.Withdrawal(sub.AuthorEmail, sub.Title)
	return nil
}

// NewVersionInput is the multipart new-version form. Track is an
// optional reclassification.
type NewVersionInput struct {
	PaperID string
	Track   string
	PDF     *FileUpload
}

// NewVersionResult reports the version number assigned and the
// resulting status.
type NewVersionResult struct {
	Version int           `json:"version"`
	Status  domain.Status `json:"status"`
}

// SubmitNewVersion uploads a replacement manuscript for a paper covered
// by the grant. The version counter increments, the outgoing PDF key is
// appended to the version history, and an accepted paper drops back to
// pending for re-review (the previous status and track are preserved
// for audit). Withdrawn papers cannot receive new versions.
func (s *SubmissionService) SubmitNewVersion(ctx context.Context, grant *domain.AccessGrant, in NewVersionInput) (*NewVersionResult, error) {
	if !grant.Authorizes(in.PaperID) {
		return nil, ErrPaperNotAuthorized
	}
	if !in.PDF.present() {
		return nil, validationf("pdf", "PDF file is required")
	}
	if err := validatePDF(in.PDF, s.maxPDF()); err != nil {
		return nil, err
	}
	var newTrack domain.Track
	if in.Track != "" {
		newTrack = domain.Track(in.Track)
		if !domain.ValidTrack(newTrack) {
			return nil, validationf("track", "invalid track")
		}
	}

	sub, err := s.load(ctx, in.PaperID)
	if err != nil {
		return nil, err
	}
	if sub.Status == domain.StatusWithdrawn {
		return nil, ErrAlreadyWithdrawn
	}

	now := s.now()
	currentVersion := sub.Version
	if currentVersion == 0 {
		currentVersion = 1
	}
	newVersion := currentVersion + 1

	newKey := storage.VersionPDFKey(in.PaperID, newVersion)
	if err := s.Blobs.Put(ctx, newKey, in.PDF.Reader, "application/pdf"); err != nil {
		return nil, err
	}

	sub.VersionHistory = append(sub.VersionHistory, domain.VersionRecord{
		Version:    currentVersion,
		PDFKey:     sub.PDFKey,
		ReplacedAt: now,
	})
	sub.PDFKey = newKey
	sub.Version = newVersion
	sub.LastUpdatedAt = &now

	if newTrack != "" {
		sub.PreviousTrack = sub.Track
		sub.Track = newTrack
	}
	if sub.Status == domain.StatusAccepted {
		sub.PreviousStatus = domain.StatusAccepted
		sub.Status = domain.StatusPending
		sub.StatusNote = "New version submitted - awaiting review"
		if err := repo.AddPending(ctx, s.DB, in.PaperID, now); err != nil {
			return nil, err
		}
	}

	if err := s.save(ctx, sub); err != nil {
		return nil, err
	}

	s.Site.NotifyNewVersion(ctx, in.PaperID)
	s.Emails.NewVersion(sub.AuthorEmail, sub.Title, newVersion, newTrack)
	return &NewVersionResult{Version: newVersion, Status: sub.Status}, nil
}

// VerifyResult is returned by paper-token verification: a short-lived
// management token plus the identified paper.
type VerifyResult struct {
	ManageToken string       `json:"confirmToken"`
	Title       string       `json:"title"`
	Track       domain.Track `json:"track"`
	PaperID     string       `json:"paperId"`
}

// manageGrant is the stored management-token payload.
type manageGrant struct {
	SubmissionID string `json:"submissionId"`
	Action       string `json:"action"`
}

// VerifyPaperToken checks an email + paper-token pair against the
// accepted papers and, on match, issues a one-hour management token.
// The scan walks every submission; acceptable at this system's scale.
func (s *SubmissionService) VerifyPaperToken(ctx context.Context, email, paperToken string) (*VerifyResult, error) {
	if email == "" || paperToken == "" {
		return nil, validationf("", "missing email or paperToken")
	}
	now := s.now()
	keys, err := repo.ListKeys(ctx, s.DB, repo.SubmissionPrefix, now)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		var sub domain.Submission
		if err := repo.GetJSON(ctx, s.DB, key, now, &sub); err != nil {
			continue
		}
		if sub.AuthorEmail == email && sub.PaperToken == paperToken && sub.Status == domain.StatusAccepted {
			token := NewAccessToken()
			grant := manageGrant{SubmissionID: sub.ID, Action: "manage"}
			if err := repo.PutJSON(ctx, s.DB, repo.ManageKey(token), grant, now, time.Hour); err != nil {
				return nil, err
			}
			return &VerifyResult{ManageToken: token, Title: sub.Title, Track: sub.Track, PaperID: sub.ID}, nil
		}
	}
	return nil, ErrInvalidCredentials
}

// FindAcceptedBySlug resolves a public paper slug to its accepted
// submission, for serving /papers/ files.
func (s *SubmissionService) FindAcceptedBySlug(ctx context.Context, slug string) (*domain.Submission, error) {
	now := s.now()
	keys, err := repo.ListKeys(ctx, s.DB, repo.SubmissionPrefix, now)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		var sub domain.Submission
		if err := repo.GetJSON(ctx, s.DB, key, now, &sub); err != nil {
			continue
		}
		if sub.Status == domain.StatusAccepted && sub.Slug() == slug {
			return &sub, nil
		}
	}
	return nil, ErrSubmissionNotFound
}
