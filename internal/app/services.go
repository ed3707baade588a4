package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/platebook-backend/internal/platform/logger"
	"github.com/yungbote/platebook-backend/internal/services"
)

type Services struct {
	DraftStore services.DraftStore
	Catalog    services.CatalogService
	Image      services.ImageService
	Review     services.ReviewService
	Flows      *services.FlowService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, cl Clients) (Services, error) {
	log.Info("Wiring services...")

	seq := services.DefaultStepSequence()
	if cfg.StepConfigPath != "" {
		loaded, err := services.LoadStepSequence(cfg.StepConfigPath)
		if err != nil {
			return Services{}, fmt.Errorf("load step config: %w", err)
		}
		seq = loaded
		log.Info("Loaded step sequence override", "path", cfg.StepConfigPath)
	}

	store := services.NewDraftSyncService(log, r.ReviewDraft, cl.DraftCache)
	catalog := services.NewCatalogService(log, db, r.CatalogEntry)
	image := services.NewImageService(log, r.ImageRecord, cl.Bucket)
	review := services.NewReviewService(log, db, r.Review, r.CatalogEntry, store)
	flows := services.NewFlowService(log, seq, store, catalog, review, cfg.AutosaveInterval)

	return Services{
		DraftStore: store,
		Catalog:    catalog,
		Image:      image,
		Review:     review,
		Flows:      flows,
	}, nil
}
