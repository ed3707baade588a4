package repos

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type ReviewRepo interface {
	Create(dbc dbctx.Context, review *domain.Review, dishes []*domain.ReviewDish) (*domain.Review, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error)
}

type reviewRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReviewRepo(db *gorm.DB, baseLog *logger.Logger) ReviewRepo {
	return &reviewRepo{
		db:  db,
		log: baseLog.With("repo", "ReviewRepo"),
	}
}

func (r *reviewRepo) Create(dbc dbctx.Context, review *domain.Review, dishes []*domain.ReviewDish) (*domain.Review, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if review.ID == uuid.Nil {
		review.ID = uuid.New()
	}
	if err := t.WithContext(dbc.Ctx).Create(review).Error; err != nil {
		return nil, err
	}
	for i, dish := range dishes {
		if dish.ID == uuid.Nil {
			dish.ID = uuid.New()
		}
		dish.ReviewID = review.ID
		dish.Position = i
	}
	if len(dishes) > 0 {
		if err := t.WithContext(dbc.Ctx).Create(&dishes).Error; err != nil {
			return nil, err
		}
	}
	return review, nil
}

func (r *reviewRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Review, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []domain.Review
	if err := t.WithContext(dbc.Ctx).
		Preload("Dishes", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
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
