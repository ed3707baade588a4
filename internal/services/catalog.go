package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

var (
	ErrCatalogEntryNotFound = errors.New("catalog entry not found")
	ErrCatalogNameTaken     = errors.New("catalog name already exists")
	ErrCatalogNameRequired  = errors.New("catalog name required")
)

// SearchResult pairs an entry with its ancestry path, root first, so the
// picker can render "French > Desserts > Tarte Tatin".
type SearchResult struct {
	Entry      *domain.CatalogEntry `json:"entry"`
	Breadcrumb []string             `json:"breadcrumb"`
}

type CatalogService interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	// CreateStub mints a placeholder entry for a dish the catalog does
	// not know yet, optionally under a parent entry. Slugs uniquify
	// with a numeric suffix on collision.
	CreateStub(ctx context.Context, name string, parentID *uuid.UUID, createdBy uuid.UUID) (*domain.CatalogEntry, error)
	GetRef(ctx context.Context, entryID uuid.UUID) (CatalogRef, error)
}

type catalogService struct {
	log  *logger.Logger
	db   *gorm.DB
	repo repos.CatalogEntryRepo
}

func NewCatalogService(baseLog *logger.Logger, db *gorm.DB, repo repos.CatalogEntryRepo) CatalogService {
	return &catalogService{
		log:  baseLog.With("service", "CatalogService"),
		db:   db,
		repo: repo,
	}
}

func (s *catalogService) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	entries, err := s.repo.Search(dbc, query, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog search: %w", err)
	}
	results := make([]SearchResult, 0, len(entries))
	for _, e := range entries {
		crumb, err := s.breadcrumb(dbc, e)
		if err != nil {
			return nil, err
		}
		results = append(results, SearchResult{Entry: e, Breadcrumb: crumb})
	}
	return results, nil
}

// breadcrumb walks the parent chain root-first. The chain is short in
// practice; the walk caps at 8 hops to stay safe against cycles.
func (s *catalogService) breadcrumb(dbc dbctx.Context, entry *domain.CatalogEntry) ([]string, error) {
	path := []string{entry.Name}
	parentID := entry.ParentID
	for hops := 0; parentID != nil && *parentID != uuid.Nil && hops < 8; hops++ {
		parent, err := s.repo.GetByID(dbc, *parentID)
		if err != nil {
			return nil, fmt.Errorf("catalog breadcrumb: %w", err)
		}
		if parent == nil {
			break
		}
		path = append([]string{parent.Name}, path...)
		parentID = parent.ParentID
	}
	return path, nil
}

func (s *catalogService) CreateStub(ctx context.Context, name string, parentID *uuid.UUID, createdBy uuid.UUID) (*domain.CatalogEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrCatalogNameRequired
	}

	var created *domain.CatalogEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}

		taken, err := s.repo.NameExists(dbc, name)
		if err != nil {
			return err
		}
		if taken {
			return ErrCatalogNameTaken
		}

		if parentID != nil && *parentID != uuid.Nil {
			parent, err := s.repo.GetByID(dbc, *parentID)
			if err != nil {
				return err
			}
			if parent == nil {
				return ErrCatalogEntryNotFound
			}
		} else {
			parentID = nil
		}

		slug, err := s.uniqueSlug(dbc, name)
		if err != nil {
			return err
		}

		created, err = s.repo.Create(dbc, &domain.CatalogEntry{
			Name:          name,
			Slug:          slug,
			ParentID:      parentID,
			IsPlaceholder: true,
			CreatedBy:     createdBy,
		})
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCatalogNameTaken) || errors.Is(err, ErrCatalogEntryNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("create catalog stub: %w", err)
	}
	s.log.Info("created placeholder catalog entry", "entry_id", created.ID, "slug", created.Slug)
	return created, nil
}

func (s *catalogService) GetRef(ctx context.Context, entryID uuid.UUID) (CatalogRef, error) {
	entry, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, entryID)
	if err != nil {
		return CatalogRef{}, fmt.Errorf("get catalog entry: %w", err)
	}
	if entry == nil {
		return CatalogRef{}, ErrCatalogEntryNotFound
	}
	return CatalogRef{EntryID: entry.ID, Name: entry.Name, IsPlaceholder: entry.IsPlaceholder}, nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	s := slugStrip.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		s = "entry"
	}
	return s
}

func (s *catalogService) uniqueSlug(dbc dbctx.Context, name string) (string, error) {
	base := slugify(name)
	slug := base
	for n := 2; ; n++ {
		exists, err := s.repo.SlugExists(dbc, slug)
		if err != nil {
			return "", err
		}
		if !exists {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, n)
	}
}
