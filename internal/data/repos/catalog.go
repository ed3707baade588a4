package repos

import (
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type CatalogEntryRepo interface {
	Search(dbc dbctx.Context, query string, limit int) ([]*domain.CatalogEntry, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CatalogEntry, error)
	NameExists(dbc dbctx.Context, name string) (bool, error)
	SlugExists(dbc dbctx.Context, slug string) (bool, error)
	Create(dbc dbctx.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error)
}

type catalogEntryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCatalogEntryRepo(db *gorm.DB, baseLog *logger.Logger) CatalogEntryRepo {
	return &catalogEntryRepo{
		db:  db,
		log: baseLog.With("repo", "CatalogEntryRepo"),
	}
}

func (r *catalogEntryRepo) Search(dbc dbctx.Context, query string, limit int) ([]*domain.CatalogEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return []*domain.CatalogEntry{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	pattern := "%" + strings.ToLower(query) + "%"
	prefix := strings.ToLower(query) + "%"

	// Prefix matches first; substring matches on name or description only
	// when no prefix match exists.
	var results []*domain.CatalogEntry
	if err := t.WithContext(dbc.Ctx).
		Where("LOWER(name) LIKE ?", prefix).
		Order("name ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) > 0 {
		return results, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern).
		Order("name ASC").
		Limit(limit).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *catalogEntryRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.CatalogEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []domain.CatalogEntry
	if err := t.WithContext(dbc.Ctx).
		Where("id = ?", id).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *catalogEntryRepo) NameExists(dbc dbctx.Context, name string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&domain.CatalogEntry{}).
		Where("LOWER(name) = ?", strings.ToLower(strings.TrimSpace(name))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *catalogEntryRepo) SlugExists(dbc dbctx.Context, slug string) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	var count int64
	if err := t.WithContext(dbc.Ctx).
		Model(&domain.CatalogEntry{}).
		Where("slug = ?", slug).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *catalogEntryRepo) Create(dbc dbctx.Context, entry *domain.CatalogEntry) (*domain.CatalogEntry, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}
