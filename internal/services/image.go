package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/platebook-backend/internal/clients/gcs"
	"github.com/yungbote/platebook-backend/internal/data/repos"
	"github.com/yungbote/platebook-backend/internal/domain"
	"github.com/yungbote/platebook-backend/internal/platform/dbctx"
	"github.com/yungbote/platebook-backend/internal/platform/logger"
)

const MaxImageSizeBytes = 10 << 20 // 10 MB

var allowedImageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/gif":  "gif",
	"image/webp": "webp",
}

var (
	ErrImageTypeNotAllowed = errors.New("image type not allowed")
	ErrImageTooLarge       = errors.New("image exceeds size limit")
	ErrImageStorageDown    = errors.New("image storage unavailable")
)

type ImageService interface {
	// Upload stores the binary and mints an image record. size is the
	// declared length; the read is capped at the limit regardless.
	Upload(ctx context.Context, uploadedBy uuid.UUID, contentType string, size int64, r io.Reader) (*domain.ImageRecord, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.ImageRecord, error)
}

type imageService struct {
	log    *logger.Logger
	repo   repos.ImageRecordRepo
	bucket gcs.BucketService
}

func NewImageService(baseLog *logger.Logger, repo repos.ImageRecordRepo, bucket gcs.BucketService) ImageService {
	return &imageService{
		log:    baseLog.With("service", "ImageService"),
		repo:   repo,
		bucket: bucket,
	}
}

func (s *imageService) Upload(ctx context.Context, uploadedBy uuid.UUID, contentType string, size int64, r io.Reader) (*domain.ImageRecord, error) {
	if s.bucket == nil {
		return nil, ErrImageStorageDown
	}
	ext, ok := allowedImageTypes[contentType]
	if !ok {
		return nil, ErrImageTypeNotAllowed
	}
	if size > MaxImageSizeBytes {
		return nil, ErrImageTooLarge
	}

	key := fmt.Sprintf("dish-images/%d/%s.%s", time.Now().UTC().Year(), uuid.New(), ext)

	// Cap the read one byte past the limit so an understated Content-Length
	// still gets caught.
	limited := &io.LimitedReader{R: r, N: MaxImageSizeBytes + 1}
	if err := s.bucket.UploadFile(ctx, key, contentType, limited); err != nil {
		return nil, fmt.Errorf("upload image: %w", err)
	}
	if limited.N == 0 {
		if derr := s.bucket.DeleteFile(ctx, key); derr != nil {
			s.log.Warn("failed to remove oversized upload", "key", key, "error", derr)
		}
		return nil, ErrImageTooLarge
	}

	written := MaxImageSizeBytes + 1 - limited.N
	rec, err := s.repo.Create(dbctx.Context{Ctx: ctx}, &domain.ImageRecord{
		StorageKey:  key,
		URL:         s.bucket.PublicURL(key),
		ContentType: contentType,
		SizeBytes:   written,
		UploadedBy:  uploadedBy,
	})
	if err != nil {
		if derr := s.bucket.DeleteFile(ctx, key); derr != nil {
			s.log.Warn("failed to remove orphaned upload", "key", key, "error", derr)
		}
		return nil, fmt.Errorf("record image: %w", err)
	}
	s.log.Info("stored dish image", "image_id", rec.ID, "bytes", written)
	return rec, nil
}

func (s *imageService) Get(ctx context.Context, id uuid.UUID) (*domain.ImageRecord, error) {
	rec, err := s.repo.GetByID(dbctx.Context{Ctx: ctx}, id)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	return rec, nil
}
