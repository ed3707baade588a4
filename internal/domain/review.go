package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Review is the permanent record a finished guided submission becomes.
type Review struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title          string    `gorm:"column:title" json:"title,omitempty"`
	RestaurantName string    `gorm:"not null;index;column:restaurant_name" json:"restaurant_name"`

	VisitDate time.Time `gorm:"type:date;not null;index:idx_review_visit_date,sort:desc" json:"visit_date"`
	EntryTime string    `gorm:"column:entry_time;not null" json:"entry_time"`
	PartySize int       `gorm:"not null" json:"party_size"`

	Location string `gorm:"column:location" json:"location,omitempty"`
	Address  string `gorm:"column:address;type:text" json:"address,omitempty"`

	// Overall restaurant rating on a 0..100 scale.
	Rating int    `gorm:"not null" json:"rating"`
	Notes  string `gorm:"column:notes;type:text" json:"notes,omitempty"`

	CreatedBy uuid.UUID `gorm:"type:uuid;index" json:"created_by"`
	IsPrivate bool      `gorm:"not null;default:false" json:"is_private"`

	// Meal type, neighborhood, ambiance/service sub-ratings.
	Metadata datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	Dishes []ReviewDish `gorm:"foreignKey:ReviewID;constraint:OnDelete:CASCADE" json:"dishes,omitempty"`
}

func (Review) TableName() string { return "review" }
