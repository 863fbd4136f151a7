// Package domain defines the entities of the preprint submission system:
// submissions and their lifecycle states, editorial tracks, access grants
// for author self-service, and the daily rate-limit records.
//
// All durable state is stored as JSON values in the key-value metadata
// store, so the JSON tags here are the wire format and must stay stable.
package domain

import (
	"regexp"
	"strings"
	"time"
)

// Track is the editorial category a submission is classified under.
type Track string

// Valid tracks.
const (
	TrackResearchPreprint Track = "researchPreprint"
	TrackWorkingPaper     Track = "workingPaper"
	TrackExpositoryEssay  Track = "expositoryEssay"
	TrackCriticalReview   Track = "criticalReview"
)

// Tracks lists every valid track in display order.
var Tracks = []Track{
	TrackResearchPreprint,
	TrackWorkingPaper,
	TrackExpositoryEssay,
	TrackCriticalReview,
}

// trackDisplayNames maps tracks to their human-readable names used in
// emails and HTML pages.
var trackDisplayNames = map[Track]string{
	TrackResearchPreprint: "Research Preprint",
	TrackWorkingPaper:     "Working Paper",
	TrackExpositoryEssay:  "Expository/Theoretical Essay",
	TrackCriticalReview:   "Critical Review",
}

// ValidTrack reports whether t is one of the known tracks.
func ValidTrack(t Track) bool {
	_, ok := trackDisplayNames[t]
	return ok
}

// DisplayName returns the human-readable name of the track, falling back
// to the raw value for unknown tracks.
func (t Track) DisplayName() string {
	if name, ok := trackDisplayNames[t]; ok {
		return name
	}
	return string(t)
}

// Status is the lifecycle state of a submission.
//
// Transitions are one-directional except for the explicit
// accepted → pending demotion when a new version is submitted:
//
//	unconfirmed → pending → accepted | rejected
//	rejected    → appealed (once, within the appeal window)
//	accepted    → pending  (new version, re-review required)
//	any except withdrawn → withdrawn (author action, irreversible)
type Status string

// Lifecycle states.
const (
	StatusUnconfirmed Status = "unconfirmed"
	StatusPending     Status = "pending"
	StatusAccepted    Status = "accepted"
	StatusRejected    Status = "rejected"
	StatusWithdrawn   Status = "withdrawn"
	StatusAppealed    Status = "appealed"
)

// VersionRecord is one entry of a submission's version history. It
// references the blob key of an outgoing PDF; historical blobs are never
// deleted automatically, so the record stays resolvable for audit.
type VersionRecord struct {
	Version    int       `json:"version"`
	PDFKey     string    `json:"pdfKey"`
	ReplacedAt time.Time `json:"replacedAt"`
}

// Submission is the central entity: one paper submitted for moderation.
//
// Identity and classification are immutable after creation, except that a
// new-version operation may change the track (the prior value is kept in
// PreviousTrack). Timestamps are set exactly once, when the corresponding
// transition happens.
type Submission struct {
	ID string `json:"id"`

	Track Track `json:"track"`

	AuthorName        string `json:"authorName"`
	AuthorEmail       string `json:"authorEmail"`
	AuthorAffiliation string `json:"authorAffiliation,omitempty"`
	CoAuthors         string `json:"coAuthors,omitempty"`

	Title    string `json:"title"`
	Abstract string `json:"abstract"`
	AIModels string `json:"aiModels"`
	Notes    string `json:"notes,omitempty"`

	PDFKey     string `json:"pdfKey,omitempty"`
	CodeZipKey string `json:"codeZipKey,omitempty"`
	HasCode    bool   `json:"hasCode"`

	Status          Status     `json:"status"`
	StatusNote      string     `json:"statusNote,omitempty"`
	SubmittedAt     time.Time  `json:"submittedAt"`
	SubmittedFromIP string     `json:"submittedFromIP,omitempty"`
	ConfirmedAt     *time.Time `json:"confirmedAt,omitempty"`
	StatusUpdatedAt *time.Time `json:"statusUpdatedAt,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	WithdrawnAt     *time.Time `json:"withdrawnAt,omitempty"`
	WithdrawnBy     string     `json:"withdrawnBy,omitempty"`
	AppealedAt      *time.Time `json:"appealedAt,omitempty"`
	LastUpdatedAt   *time.Time `json:"lastUpdatedAt,omitempty"`

	// ConfirmToken exists if and only if Status is unconfirmed; it is
	// removed atomically with the unconfirmed → pending transition.
	ConfirmToken string `json:"confirmToken,omitempty"`
	// PaperToken is a short persistent identifier the author can later
	// combine with their email for self-service verification.
	PaperToken string `json:"paperToken,omitempty"`
	// AppealToken is issued on rejection and cleared when consumed.
	AppealToken    string     `json:"appealToken,omitempty"`
	AppealDeadline *time.Time `json:"appealDeadline,omitempty"`
	AppealCount    int        `json:"appealCount"`
	AppealText     string     `json:"appealText,omitempty"`

	Version        int             `json:"version"`
	VersionHistory []VersionRecord `json:"versionHistory,omitempty"`
	PreviousStatus Status          `json:"previousStatus,omitempty"`
	PreviousTrack  Track           `json:"previousTrack,omitempty"`
}

// AppealWindow is how long after rejection an appeal remains possible.
const AppealWindow = 14 * 24 * time.Hour

// AppealOpen reports whether an appeal is currently possible for the
// submission. Validity is a pure function of now and RejectedAt; it is
// never stored as a boolean.
func (s *Submission) AppealOpen(now time.Time) bool {
	if s.RejectedAt == nil || s.AppealToken == "" {
		return false
	}
	return !now.After(s.RejectedAt.Add(AppealWindow))
}

// Slug returns the deterministic URL-safe identifier for the submission,
// derived from its title. Used for public file serving.
func (s *Submission) Slug() string { return Slug(s.Title) }

// PaperSummary is the snapshot of an accepted paper embedded in an
// access grant. The snapshot, not live data, is the authorization
// boundary for self-service operations under that grant.
type PaperSummary struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Track       Track     `json:"track"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// AccessGrant binds an author's email to the list of their accepted
// papers for a fixed validity window. It authorizes withdrawal and
// new-version submission without a full login system.
type AccessGrant struct {
	Email     string         `json:"email"`
	Papers    []PaperSummary `json:"papers"`
	CreatedAt time.Time      `json:"createdAt"`
	ExpiresAt time.Time      `json:"expiresAt"`
}

// Authorizes reports whether the grant covers the given paper id.
func (g *AccessGrant) Authorizes(paperID string) bool {
	for _, p := range g.Papers {
		if p.ID == paperID {
			return true
		}
	}
	return false
}

// Expired reports whether the grant's validity window has elapsed.
func (g *AccessGrant) Expired(now time.Time) bool {
	return now.After(g.ExpiresAt)
}

// DailyCounter is one day's rate-limit record: a global counter plus a
// per-identity (IP or email) counter map, keyed by UTC date. Records are
// created lazily on the first request of the day and expire after 48
// hours (one extra day beyond relevance, for debugging).
type DailyCounter struct {
	Date        string         `json:"date"`
	GlobalCount int            `json:"globalCount"`
	Counts      map[string]int `json:"counts"`
}

// RateLimitConfig is the adjustable configuration of one rate limiter
// instance, persisted in the key-value store.
type RateLimitConfig struct {
	DailyLimit  int    `json:"dailyLimit"`
	PerKeyLimit int    `json:"perKeyLimit"`
	Enabled     bool   `json:"enabled"`
	AlertEmail  string `json:"alertEmail,omitempty"`
}

var slugStrip = regexp.MustCompile(`[^a-z0-9-]`)

// Slug derives the public identifier from a paper title: lowercase, first
// five words, spaces collapsed to hyphens, everything outside [a-z0-9-]
// removed. The algorithm must match the static site generator exactly.
func Slug(title string) string {
	words := strings.Fields(strings.TrimSpace(title))
	if len(words) > 5 {
		words = words[:5]
	}
	s := strings.ToLower(strings.Join(words, "-"))
	return slugStrip.ReplaceAllString(s, "")
}
