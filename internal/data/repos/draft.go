package repos

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

// ReviewDraftRepo owns durable draft snapshots. Save is the single write
// path: it reuses the given draft ID when one is supplied and still
// present, otherwise it mints a new one, so a retried save can never
// create a second record for the same logical session.
type ReviewDraftRepo interface {
	GetLatestForUser(dbc dbctx.Context, userID uuid.UUID) (*domain.ReviewDraft, error)
	GetByID(dbc dbctx.Context, draftID, userID uuid.UUID) (*domain.ReviewDraft, error)
	Save(dbc dbctx.Context, draftID *uuid.UUID, userID uuid.UUID, step string, data datatypes.JSON) (*domain.ReviewDraft, error)
	Delete(dbc dbctx.Context, draftID, userID uuid.UUID) error
	CleanupExpired(dbc dbctx.Context) (int64, error)
}

type reviewDraftRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewDraftRepo(db *gorm.DB, baseLog *logger.Logger) ReviewDraftRepo {
	return &reviewDraftRepo{
		db:  db,
		log: baseLog.With("repo", "ReviewDraftRepo"),
	}
}

func (r *reviewDraftRepo) GetLatestForUser(dbc dbctx.Context, userID uuid.UUID) (*domain.ReviewDraft, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if userID == uuid.Nil {
		return nil, nil
	}
	cutoff := time.Now().UTC().Add(-domain.DraftTTL)
	var rows []domain.ReviewDraft
	if err := t.WithContext(dbc.Ctx).
		Where("user_id = ? AND updated_at >= ?", userID, cutoff).
		Order("updated_at DESC").
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *reviewDraftRepo) GetByID(dbc dbctx.Context, draftID, userID uuid.UUID) (*domain.ReviewDraft, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if draftID == uuid.Nil {
		return nil, nil
	}
	var rows []domain.ReviewDraft
	if err := t.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", draftID, userID).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (r *reviewDraftRepo) Save(dbc dbctx.Context, draftID *uuid.UUID, userID uuid.UUID, step string, data datatypes.JSON) (*domain.ReviewDraft, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	now := time.Now().UTC()

	if draftID != nil && *draftID != uuid.Nil {
		existing, err := r.GetByID(dbctx.Context{Ctx: dbc.Ctx, Tx: t}, *draftID, userID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			existing.Step = step
			existing.Data = data
			existing.UpdatedAt = now
			if err := t.WithContext(dbc.Ctx).
				Model(&domain.ReviewDraft{}).
				Where("id = ?", existing.ID).
				Updates(map[string]any{"step": step, "data": data, "updated_at": now}).Error; err != nil {
				return nil, err
			}
			return existing, nil
		}
		// Stale client-held ID: fall through and mint a fresh record.
	}

	row := &domain.ReviewDraft{
		ID:        uuid.New(),
		UserID:    userID,
		Step:      step,
		Data:      data,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := t.WithContext(dbc.Ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

func (r *reviewDraftRepo) Delete(dbc dbctx.Context, draftID, userID uuid.UUID) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if draftID == uuid.Nil {
		return nil
	}
	// Deleting a missing or already-deleted draft succeeds silently.
	return t.WithContext(dbc.Ctx).
		Where("id = ? AND user_id = ?", draftID, userID).
		Delete(&domain.ReviewDraft{}).Error
}

func (r *reviewDraftRepo) CleanupExpired(dbc dbctx.Context) (int64, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	cutoff := time.Now().UTC().Add(-domain.DraftTTL)
	res := t.WithContext(dbc.Ctx).
		Where("updated_at < ?", cutoff).
		Delete(&domain.ReviewDraft{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
