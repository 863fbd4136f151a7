package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRequestAccess_InvalidEmail(t *testing.T) {
	env := newTestEnv(t)

	for _, email := range []string{"", "not-an-email", "a b@c.org"} {
		err := env.access.RequestAccess(context.Background(), email)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%q: expected ValidationError, got %v", email, err)
		}
	}
}

func TestRequestAccess_NoPapers_SilentSuccess(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if err := env.access.RequestAccess(ctx, "stranger@example.org"); err != nil {
		t.Fatalf("RequestAccess: %v", err)
	}
	if len(env.mail.AccessLinks) != 0 {
		t.Fatalf("no email should be sent for unknown address")
	}

	// The attempt still consumed quota, so enumeration by quota
	// probing does not work either.
	st, err := env.access.Limiter.Status(ctx)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if st.Today.GlobalCount != 1 {
		t.Fatalf("attempt not recorded: %+v", st.Today)
	}
}

func TestRequestAccess_WithAcceptedPapers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub, _ := acceptOne(t, env)

	// Address matching is case-insensitive.
	if err := env.access.RequestAccess(ctx, strings.ToUpper(sub.AuthorEmail)); err != nil {
		t.Fatalf("RequestAccess: %v", err)
	}
	if len(env.mail.AccessLinks) != 1 {
		t.Fatalf("expected access email, got %v", env.mail.AccessLinks)
	}

	// The mailed link carries a token that validates to the grant.
	url := env.mail.AccessLinks[0]
	token := url[strings.LastIndex(url, "/")+1:]
	grant, err := env.access.Validate(ctx, token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if grant.Email != sub.AuthorEmail || len(grant.Papers) != 1 || grant.Papers[0].ID != sub.ID {
		t.Fatalf("unexpected grant: %+v", grant)
	}
	if !grant.Authorizes(sub.ID) || grant.Authorizes("other") {
		t.Fatalf("authorization scope wrong")
	}
}

func TestRequestAccess_OnlyAcceptedPapersGrant(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub := confirmOne(t, env) // pending

	if err := env.access.RequestAccess(ctx, sub.AuthorEmail); err != nil {
		t.Fatalf("RequestAccess: %v", err)
	}
	if len(env.mail.AccessLinks) != 0 {
		t.Fatalf("pending paper must not yield a grant")
	}
}

func TestRequestAccess_RateLimited(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Per-key limit is 3 in the test env.
	for i := 0; i < 3; i++ {
		if err := env.access.RequestAccess(ctx, "someone@example.org"); err != nil {
			t.Fatalf("request %d: %v", i, err)
		}
	}
	err := env.access.RequestAccess(ctx, "someone@example.org")
	var rle *RateLimitError
	if !errors.As(err, &rle) {
		t.Fatalf("expected RateLimitError, got %v", err)
	}
}

func TestValidate_UnknownAndExpiredLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	sub, _ := acceptOne(t, env)

	if err := env.access.RequestAccess(ctx, sub.AuthorEmail); err != nil {
		t.Fatalf("RequestAccess: %v", err)
	}
	url := env.mail.AccessLinks[0]
	token := url[strings.LastIndex(url, "/")+1:]

	if _, err := env.access.Validate(ctx, "bogus"); !errors.Is(err, ErrGrantInvalid) {
		t.Fatalf("unknown token: expected ErrGrantInvalid, got %v", err)
	}

	env.clock.Advance(25 * time.Hour)
	if _, err := env.access.Validate(ctx, token); !errors.Is(err, ErrGrantInvalid) {
		t.Fatalf("expired token: expected ErrGrantInvalid, got %v", err)
	}
}

func TestValidate_EmptyToken(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.access.Validate(context.Background(), ""); !errors.Is(err, ErrGrantInvalid) {
		t.Fatalf("expected ErrGrantInvalid, got %v", err)
	}
}
