package domain

import (
	"testing"
	"time"
)

func TestSlug(t *testing.T) {
	cases := []struct {
		title string
		want  string
	}{
		{"On the Formal Limits of Generated Proofs", "on-the-formal-limits-of"},
		{"  Spaced   Out\tTitle ", "spaced-out-title"},
		{"Gödel, Escher & Bach: a study", "gdel-escher--bach-a"},
		{"short", "short"},
		{"", ""},
		{"UPPER case 123!", "upper-case-123"},
	}
	for _, c := range cases {
		if got := Slug(c.title); got != c.want {
			t.Errorf("Slug(%q) = %q; want %q", c.title, got, c.want)
		}
	}

	s := &Submission{Title: "One Two Three Four Five Six"}
	if got := s.Slug(); got != "one-two-three-four-five" {
		t.Errorf("Submission.Slug() = %q", got)
	}
}

func TestAppealOpen(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rejected := now.Add(-7 * 24 * time.Hour)

	s := &Submission{RejectedAt: &rejected, AppealToken: "tok"}
	if !s.AppealOpen(now) {
		t.Fatalf("appeal should be open 7 days after rejection")
	}
	// Exactly at the deadline still counts.
	if !s.AppealOpen(rejected.Add(AppealWindow)) {
		t.Fatalf("appeal should be open at the deadline instant")
	}
	if s.AppealOpen(rejected.Add(AppealWindow + time.Second)) {
		t.Fatalf("appeal should be closed past the deadline")
	}

	// Consumed token closes the appeal regardless of time.
	s2 := &Submission{RejectedAt: &rejected}
	if s2.AppealOpen(now) {
		t.Fatalf("appeal without a token should be closed")
	}
	// Never rejected.
	s3 := &Submission{AppealToken: "tok"}
	if s3.AppealOpen(now) {
		t.Fatalf("appeal without a rejection should be closed")
	}
}

func TestAccessGrant_AuthorizesAndExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	g := &AccessGrant{
		Email: "a@example.org",
		Papers: []PaperSummary{
			{ID: "p1", Title: "First"},
			{ID: "p2", Title: "Second"},
		},
		ExpiresAt: now.Add(time.Hour),
	}
	if !g.Authorizes("p2") || g.Authorizes("p3") {
		t.Fatalf("grant authorization mismatch")
	}
	if g.Expired(now) {
		t.Fatalf("grant should not be expired before ExpiresAt")
	}
	if !g.Expired(now.Add(2 * time.Hour)) {
		t.Fatalf("grant should be expired after ExpiresAt")
	}
}

func TestTrack_ValidAndDisplayName(t *testing.T) {
	for _, tr := range Tracks {
		if !ValidTrack(tr) {
			t.Errorf("ValidTrack(%q) = false", tr)
		}
		if tr.DisplayName() == string(tr) {
			t.Errorf("track %q has no display name", tr)
		}
	}
	if ValidTrack("poetry") {
		t.Fatalf("unknown track should be invalid")
	}
	if Track("poetry").DisplayName() != "poetry" {
		t.Fatalf("unknown track display name should fall back to raw value")
	}
}
