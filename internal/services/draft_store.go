package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/platebook-backend/internal/clients/redis"
	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

// DraftStore is the persistence seam the flow saves through. The flow
// never talks to repos directly, so tests swap in an in-memory store and
// the production store can layer the Redis latest-draft cache.
type DraftStore interface {
	// Save persists a snapshot and returns the authoritative draft ID.
	// The store mints the ID on first save; callers echo it back on
	// subsequent saves.
	Save(ctx context.Context, draftID *uuid.UUID, userID uuid.UUID, step StepID, data []byte) (uuid.UUID, error)
	// Latest returns the newest live draft for the user, or nil.
	Latest(ctx context.Context, userID uuid.UUID) (*domain.ReviewDraft, error)
	// Get fetches one draft scoped to its owner, or nil.
	Get(ctx context.Context, draftID, userID uuid.UUID) (*domain.ReviewDraft, error)
	// Discard removes a draft. Missing drafts discard silently.
	Discard(ctx context.Context, draftID, userID uuid.UUID) error
}

type draftSyncService struct {
	log   *logger.Logger
	repo  repos.ReviewDraftRepo
	cache redis.DraftCache
}

// NewDraftSyncService builds the production store. cache may be nil; the
// store then runs straight against the database.
func NewDraftSyncService(baseLog *logger.Logger, repo repos.ReviewDraftRepo, cache redis.DraftCache) DraftStore {
	return &draftSyncService{
		log:   baseLog.With("service", "DraftSyncService"),
		repo:  repo,
		cache: cache,
	}
}

func (s *draftSyncService) Save(ctx context.Context, draftID *uuid.UUID, userID uuid.UUID, step StepID, data []byte) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("save draft: missing user")
	}
	row, err := s.repo.Save(dbctx.Context{Ctx: ctx}, draftID, userID, string(step), datatypes.JSON(data))
	if err != nil {
		return uuid.Nil, fmt.Errorf("save draft: %w", err)
	}
	if s.cache != nil {
		s.cache.SetLatest(ctx, row)
	}
	return row.ID, nil
}

func (s *draftSyncService) Latest(ctx context.Context, userID uuid.UUID) (*domain.ReviewDraft, error) {
	if s.cache != nil {
		if draft, ok := s.cache.GetLatest(ctx, userID); ok {
			if !draft.IsExpired(time.Now().UTC()) {
				return draft, nil
			}
			s.cache.Invalidate(ctx, userID)
		}
	}
	draft, err := s.repo.GetLatestForUser(dbctx.Context{Ctx: ctx}, userID)
	if err != nil {
		return nil, fmt.Errorf("latest draft: %w", err)
	}
	if draft != nil && s.cache != nil {
		s.cache.SetLatest(ctx, draft)
	}
	return draft, nil
}

func (s *draftSyncService) Get(ctx context.Context, draftID, userID uuid.UUID) (*domain.ReviewDraft, error) {
	draft, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, draftID, userID)
	if err != nil {
		return nil, fmt.Errorf("get draft: %w", err)
	}
	return draft, nil
}

func (s *draftSyncService) Discard(ctx context.Context, draftID, userID uuid.UUID) error {
	if err := s.repo.Delete(dbctx.Context{Ctx: ctx}, draftID, userID); err != nil {
		return fmt.Errorf("discard draft: %w", err)
	}
	if s.cache != nil {
		s.cache.Invalidate(ctx, userID)
	}
	return nil
}
