package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CatalogEntry is one entry of the shared reference catalog. Entries form
// a hierarchy through Parent. Placeholder entries are minimal stubs
// created inline from the reference linker, to be fleshed out later.
type CatalogEntry struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null;index" json:"name"`
	Slug        string    `gorm:"uniqueIndex;not null" json:"slug"`
	Description string    `gorm:"column:description;type:text" json:"description"`

	ParentID *uuid.UUID `gorm:"type:uuid;column:parent_id;index" json:"parent_id,omitempty"`

	CuisineType  string `gorm:"column:cuisine_type" json:"cuisine_type,omitempty"`
	DishCategory string `gorm:"column:dish_category" json:"dish_category,omitempty"`
	Region       string `gorm:"column:region" json:"region,omitempty"`

	IsPlaceholder bool `gorm:"not null;default:false" json:"is_placeholder"`

	CreatedBy uuid.UUID      `gorm:"type:uuid" json:"created_by"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (CatalogEntry) TableName() string { return "catalog_entry" }
