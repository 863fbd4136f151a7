package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/repo"
	"github.com/francocz/ai-theoretical.org/internal/storage"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid state leakage.
	dsn := fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := repo.AutoMigrate(db); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// fakeClock makes time a controllable input.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 2, 10, 15, 30, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// fakeNotifier records every outbound email instead of sending it.
// It satisfies both Notifier and Alerter.
type fakeNotifier struct {
	mu            sync.Mutex
	Confirmations []string // confirm URLs
	Decisions     []string // "accepted:<title>" / "rejected:<title>:<appealURL>"
	Withdrawals   []string
	NewVersions   []string
	AccessLinks   []string // access URLs
	Alerts        []string // "<scope>:<level>:<count>/<limit>"
}

func (f *fakeNotifier) Confirmation(to, authorName, title string, track domain.Track, confirmURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Confirmations = append(f.Confirmations, confirmURL)
}

func (f *fakeNotifier) Decision(to, title string, accepted bool, note, appealURL string, deadline time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if accepted {
		f.Decisions = append(f.Decisions, "accepted:"+title)
	} else {
		f.Decisions = append(f.Decisions, "rejected:"+title+":"+appealURL)
	}
}

func (f *fakeNotifier) Withdrawal(to, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Withdrawals = append(f.Withdrawals, title)
}

func (f *fakeNotifier) NewVersion(to, title string, version int, track domain.Track) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NewVersions = append(f.NewVersions, fmt.Sprintf("%s:v%d", title, version))
}

func (f *fakeNotifier) AccessLink(to string, papers []domain.PaperSummary, accessURL string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AccessLinks = append(f.AccessLinks, accessURL)
}

func (f *fakeNotifier) RateLimitAlert(to, scope, level string, count, limit int, date string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Alerts = append(f.Alerts, fmt.Sprintf("%s:%s:%d/%d", scope, level, count, limit))
}

// fakeSite records console notifications.
type fakeSite struct {
	mu          sync.Mutex
	Withdrawn   []string
	NewVersions []string
}

func (f *fakeSite) NotifyWithdraw(_ context.Context, paperID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Withdrawn = append(f.Withdrawn, paperID)
}

func (f *fakeSite) NotifyNewVersion(_ context.Context, paperID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.NewVersions = append(f.NewVersions, paperID)
}

type testEnv struct {
	svc    *SubmissionService
	access *AccessService
	mail   *fakeNotifier
	site   *fakeSite
	blobs  *storage.MemoryStore
	clock  *fakeClock
	db     *gorm.DB
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)
	clock := newFakeClock()
	mail := &fakeNotifier{}
	site := &fakeSite{}
	blobs := storage.NewMemoryStore()

	subLimiter := &RateLimiter{
		DB:    db,
		Scope: ScopeSubmission,
		Defaults: domain.RateLimitConfig{
			DailyLimit:  50,
			PerKeyLimit: 5,
			Enabled:     true,
		},
		GlobalMessage: "Daily submission limit reached. Please try again tomorrow.",
		PerKeyMessage: "Too many submissions from your IP address today. Please try again tomorrow.",
		Alerts:        mail,
		Now:           clock.Now,
	}
	accessLimiter := &RateLimiter{
		DB:    db,
		Scope: ScopeAuthorAccess,
		Defaults: domain.RateLimitConfig{
			DailyLimit:  10,
			PerKeyLimit: 3,
			Enabled:     true,
		},
		GlobalMessage: "Daily access-request limit reached. Please try again tomorrow.",
		PerKeyMessage: "Too many access requests for this email today. Please try again tomorrow.",
		Alerts:        mail,
		Now:           clock.Now,
	}

	return &testEnv{
		svc: &SubmissionService{
			DB:      db,
			Blobs:   blobs,
			Emails:  mail,
			Site:    site,
			Limiter: subLimiter,
			BaseURL: "https://ai-theoretical.org",
			Now:     clock.Now,
		},
		access: &AccessService{
			DB:      db,
			Emails:  mail,
			Limiter: accessLimiter,
			BaseURL: "https://ai-theoretical.org",
			Now:     clock.Now,
		},
		mail:  mail,
		site:  site,
		blobs: blobs,
		clock: clock,
		db:    db,
	}
}

// pdfUpload builds a small fake PDF part. size overrides the reported
// size without allocating that many bytes.
func pdfUpload(size int64) *FileUpload {
	return &FileUpload{
		Filename:    "paper.pdf",
		Size:        size,
		ContentType: "application/pdf",
		Reader:      strings.NewReader("%PDF-1.4 test"),
	}
}

func zipUpload(size int64) *FileUpload {
	return &FileUpload{
		Filename:    "code.zip",
		Size:        size,
		ContentType: "application/zip",
		Reader:      strings.NewReader("PK test"),
	}
}

// validCreateInput returns a complete, valid submission form.
func validCreateInput() CreateInput {
	return CreateInput{
		AuthorName:  "Ada Lovelace",
		AuthorEmail: "ada@example.org",
		Title:       "On the Formal Limits of Generated Proofs",
		Abstract:    "We study the limits of machine-generated proof sketches.",
		AIModels:    "various",
		Track:       "researchPreprint",
		AcceptTerms: true,
		PDF:         pdfUpload(2 << 20),
		ClientIP:    "203.0.113.7",
	}
}
