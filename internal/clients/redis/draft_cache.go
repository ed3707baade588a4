package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

// DraftCache fronts the latest-draft-per-user lookup so the resume check
// on every flow open does not hit Postgres. The database stays the source
// of truth; cache misses and unmarshal failures just fall through.
type DraftCache interface {
	GetLatest(ctx context.Context, userID uuid.UUID) (*domain.ReviewDraft, bool)
	SetLatest(ctx context.Context, draft *domain.ReviewDraft)
	Invalidate(ctx context.Context, userID uuid.UUID)
	Close() error
}

type draftCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewDraftCache(log *logger.Logger) (DraftCache, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &draftCache{
		log: log.With("service", "RedisDraftCache"),
		rdb: rdb,
		ttl: 15 * time.Minute,
	}, nil
}

func cacheKey(userID uuid.UUID) string {
	return "draft:latest:" + userID.String()
}

func (c *draftCache) GetLatest(ctx context.Context, userID uuid.UUID) (*domain.ReviewDraft, bool) {
	if c == nil || c.rdb == nil || userID == uuid.Nil {
		return nil, false
	}
	raw, err := c.rdb.Get(ctx, cacheKey(userID)).Bytes()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("draft cache get failed", "error", err)
		}
		return nil, false
	}
	var draft domain.ReviewDraft
	if err := json.Unmarshal(raw, &draft); err != nil {
		c.log.Warn("bad draft cache payload", "error", err)
		return nil, false
	}
	return &draft, true
}

func (c *draftCache) SetLatest(ctx context.Context, draft *domain.ReviewDraft) {
	if c == nil || c.rdb == nil || draft == nil || draft.UserID == uuid.Nil {
		return
	}
	raw, err := json.Marshal(draft)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, cacheKey(draft.UserID), raw, c.ttl).Err(); err != nil {
		c.log.Warn("draft cache set failed", "error", err)
	}
}

func (c *draftCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.rdb == nil || userID == uuid.Nil {
		return
	}
	if err := c.rdb.Del(ctx, cacheKey(userID)).Err(); err != nil {
		c.log.Warn("draft cache invalidate failed", "error", err)
	}
}

func (c *draftCache) Close() error {
	if c == nil || c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}
