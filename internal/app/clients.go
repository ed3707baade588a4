package app

import (
	"github.com/yungbote/platebook-backend/internal/clients/gcs"
	"github.com/yungbote/platebook-backend/internal/clients/redis"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

type Clients struct {
	Bucket     gcs.BucketService
	DraftCache redis.DraftCache
}

// wireClients builds the outbound clients. Both are optional at startup:
// without the bucket image upload is disabled, without Redis the draft
// lookup goes straight to Postgres.
func wireClients(log *logger.Logger) Clients {
	log.Info("Wiring clients...")

	bucket, err := gcs.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService; image upload disabled", "error", err)
	}

	cache, err := redis.NewDraftCache(log)
	if err != nil {
		log.Warn("Could not init DraftCache; draft lookups hit the database", "error", err)
	}

	return Clients{
		Bucket:     bucket,
		DraftCache: cache,
	}
}
