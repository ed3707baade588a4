package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type ImageRecordRepo interface {
	Create(dbc dbctx.Context, rec *domain.ImageRecord) (*domain.ImageRecord, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ImageRecord, error)
}

type imageRecordRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewImageRecordRepo(db *gorm.DB, baseLog *logger.Logger) ImageRecordRepo {
	return &imageRecordRepo{
		db:  db,
		log: baseLog.With("repo", "ImageRecordRepo"),
	}
}

func (r *imageRecordRepo) Create(dbc dbctx.Context, rec *domain.ImageRecord) (*domain.ImageRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(rec).Error; err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *imageRecordRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ImageRecord, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []domain.ImageRecord
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
