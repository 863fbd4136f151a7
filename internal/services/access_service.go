// Package services – AccessService
//
// Author self-service entry point: an author asks for a management link
// by email, and if the address owns accepted papers a 24-hour access
// grant is created and mailed. The response never reveals whether the
// address matched anything.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/francocz/ai-theoretical.org/internal/domain"
	"github.com/francocz/ai-theoretical.org/internal/repo"
)

// AccessService issues and validates author access grants.
type AccessService struct {
	DB      *gorm.DB
	Emails  Notifier
	Limiter *RateLimiter
	BaseURL string
	// GrantTTL defaults to 24 hours.
	GrantTTL time.Duration
	Now      func() time.Time
}

func (s *AccessService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *AccessService) grantTTL() time.Duration {
	if s.GrantTTL > 0 {
		return s.GrantTTL
	}
	return 24 * time.Hour
}

// RequestAccess handles a management-link request. The returned message
// is identical whether or not the email owns any papers, so the
// endpoint cannot be used to enumerate author addresses. The rate
// limiter records the attempt after validation regardless of matches,
// for the same reason.
func (s *AccessService) RequestAccess(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return validationf("email", "email is required")
	}
	if !emailPattern.MatchString(email) {
		return validationf("email", "invalid email format")
	}
	emailLower := strings.ToLower(email)

	if err := s.Limiter.Check(ctx, emailLower); err != nil {
		return err
	}

	now := s.now()
	keys, err := repo.ListKeys(ctx, s.DB, repo.SubmissionPrefix, now)
	if err != nil {
		return err
	}
	var papers []domain.PaperSummary
	for _, key := range keys {
		var sub domain.Submission
		if err := repo.GetJSON(ctx, s.DB, key, now, &sub); err != nil {
			continue
		}
		if strings.ToLower(sub.AuthorEmail) == emailLower && sub.Status == domain.StatusAccepted {
			papers = append(papers, domain.PaperSummary{
				ID:          sub.ID,
				Title:       sub.Title,
				Track:       sub.Track,
				SubmittedAt: sub.SubmittedAt,
			})
		}
	}

	if err := s.Limiter.Record(ctx, emailLower); err != nil {
		return err
	}

	if len(papers) == 0 {
		return nil
	}

	token := NewAccessToken()
	grant := domain.AccessGrant{
		Email:     emailLower,
		Papers:    papers,
		CreatedAt: now,
		ExpiresAt: now.Add(s.grantTTL()),
	}
	if err := repo.PutJSON(ctx, s.DB, repo.AccessKey(token), grant, now, s.grantTTL()); err != nil {
		return err
	}
	s.Emails.AccessLink(email, papers, s.BaseURL+"/api/author-access/page/"+token)
	return nil
}

// Validate resolves an access token to its grant. Unknown and expired
// tokens are indistinguishable: both return ErrGrantInvalid.
func (s *AccessService) Validate(ctx context.Context, token string) (*domain.AccessGrant, error) {
	if token == "" {
		return nil, ErrGrantInvalid
	}
	now := s.now()
	var grant domain.AccessGrant
	err := repo.GetJSON(ctx, s.DB, repo.AccessKey(token), now, &grant)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrGrantInvalid
	}
	if err != nil {
		return nil, err
	}
	// The store TTL normally enforces this, but the grant carries its
	// own expiry too.
	if grant.Expired(now) {
		return nil, ErrGrantInvalid
	}
	return &grant, nil
}
