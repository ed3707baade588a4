package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReviewDish is one ordered dish sub-record of a review. Position is the
// display and submission order. A dish references at most one catalog
// entry; the column is a plain nullable FK so the invariant is structural.
type ReviewDish struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ReviewID uuid.UUID `gorm:"type:uuid;not null;index" json:"review_id"`
	Position int       `gorm:"not null" json:"position"`

	DishName   string `gorm:"not null;column:dish_name" json:"dish_name"`
	DishRating int    `gorm:"column:dish_rating" json:"dish_rating"`
	Notes      string `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CatalogEntryID *uuid.UUID `gorm:"type:uuid;column:catalog_entry_id;index" json:"catalog_entry_id,omitempty"`
	ImageRecordID  *uuid.UUID `gorm:"type:uuid;column:image_record_id" json:"image_record_id,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (ReviewDish) TableName() string { return "review_dish" }
