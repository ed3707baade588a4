package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/domain"
)

func SeedCatalogEntry(tb testing.TB, ctx context.Context, tx *gorm.DB, name, slug string) *domain.CatalogEntry {
	tb.Helper()
	e := &domain.CatalogEntry{
		ID:          uuid.New(),
		Name:        name,
		Slug:        slug,
		Description: "seed entry",
	}
	if err := tx.WithContext(ctx).Create(e).Error; err != nil {
		tb.Fatalf("seed catalog entry: %v", err)
	}
	return e
}

func SeedDraft(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, step string, data []byte) *domain.ReviewDraft {
	tb.Helper()
	d := &domain.ReviewDraft{
		ID:     uuid.New(),
		UserID: userID,
		Step:   step,
		Data:   data,
	}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed draft: %v", err)
	}
	return d
}
