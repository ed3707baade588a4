package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DraftTTL is how long an unfinished draft stays resumable. Older drafts
// are ignored by the latest-draft lookup and reaped by cleanup.
const DraftTTL = 7 * 24 * time.Hour

// ReviewDraft is the durable snapshot of one in-progress guided
// submission. The store mints the ID on first save; the client adopts it
// for every later save so retries never fork a second draft.
type ReviewDraft struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index:idx_review_draft_user_updated,priority:1" json:"user_id"`

	// Step the user was on when the snapshot was taken.
	Step string `gorm:"not null;default:'basic-info'" json:"step"`

	// Accumulated form data: per-step fields plus the ordered dish list.
	Data datatypes.JSON `gorm:"column:data;type:jsonb" json:"data"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index:idx_review_draft_user_updated,priority:2,sort:desc" json:"updated_at"`
}

func (ReviewDraft) TableName() string { return "review_draft" }

func (d *ReviewDraft) IsExpired(now time.Time) bool {
	return d.UpdatedAt.Before(now.Add(-DraftTTL))
}

// AgeDisplay renders a human-readable age for the resume prompt.
func (d *ReviewDraft) AgeDisplay(now time.Time) string {
	delta := now.Sub(d.UpdatedAt)
	if delta < 0 {
		delta = 0
	}
	switch {
	case delta >= 24*time.Hour:
		days := int(delta.Hours()) / 24
		if days == 1 {
			return "1 day ago"
		}
		return fmt.Sprintf("%d days ago", days)
	case delta >= time.Hour:
		hours := int(delta.Hours())
		if hours == 1 {
			return "1 hour ago"
		}
		return fmt.Sprintf("%d hours ago", hours)
	case delta >= time.Minute:
		minutes := int(delta.Minutes())
		if minutes == 1 {
			return "1 minute ago"
		}
		return fmt.Sprintf("%d minutes ago", minutes)
	default:
		return "Just now"
	}
}
