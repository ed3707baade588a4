package domain

import (
	"testing"
	"time"
)

func TestDraftAgeDisplay(t *testing.T) {
	now := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		age  time.Duration
		want string
	}{
		{0, "Just now"},
		{45 * time.Second, "Just now"},
		{time.Minute, "1 minute ago"},
		{12 * time.Minute, "12 minutes ago"},
		{time.Hour, "1 hour ago"},
		{2 * time.Hour, "2 hours ago"},
		{24 * time.Hour, "1 day ago"},
		{3 * 24 * time.Hour, "3 days ago"},
	}
	for _, c := range cases {
		d := &ReviewDraft{UpdatedAt: now.Add(-c.age)}
		if got := d.AgeDisplay(now); got != c.want {
			t.Fatalf("AgeDisplay(%v): expected %q, got %q", c.age, c.want, got)
		}
	}

	// Clock skew renders as Just now rather than a negative age.
	d := &ReviewDraft{UpdatedAt: now.Add(time.Minute)}
	if got := d.AgeDisplay(now); got != "Just now" {
		t.Fatalf("future timestamp: expected Just now, got %q", got)
	}
}

func TestDraftExpiry(t *testing.T) {
	now := time.Now().UTC()
	fresh := &ReviewDraft{UpdatedAt: now.Add(-DraftTTL + time.Hour)}
	if fresh.IsExpired(now) {
		t.Fatalf("draft inside the TTL must not expire")
	}
	stale := &ReviewDraft{UpdatedAt: now.Add(-DraftTTL - time.Hour)}
	if !stale.IsExpired(now) {
		t.Fatalf("draft past the TTL must expire")
	}
}
