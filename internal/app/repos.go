package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type Repos struct {
	ReviewDraft  repos.ReviewDraftRepo
	Review       repos.ReviewRepo
	CatalogEntry repos.CatalogEntryRepo
	ImageRecord  repos.ImageRecordRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		ReviewDraft:  repos.NewReviewDraftRepo(db, log),
		Review:       repos.NewReviewRepo(db, log),
		CatalogEntry: repos.NewCatalogEntryRepo(db, log),
		ImageRecord:  repos.NewImageRecordRepo(db, log),
	}
}
