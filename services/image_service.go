package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"sync"

	"github.com/sweetdelights/bakery-api/config"
	"github.com/sweetdelights/bakery-api/logger"
	"github.com/sweetdelights/bakery-api/utils"
)

// S3KeyPrefix is the bucket folder holding product images.
const S3KeyPrefix = "products/"

// ImageService stores product images and resolves them to URLs
type ImageService interface {
	// UploadImage validates and stores an image file, returns the storage key
	UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error)

	// GetImageURL returns a URL for accessing a stored image
	GetImageURL(ctx context.Context, imageKey string) (string, error)

	// DeleteImage removes an image from storage
	DeleteImage(ctx context.Context, imageKey string) error
}

var (
	imageServiceInstance ImageService
	imageServiceMu       sync.RWMutex
)

// InitImageService selects S3 storage when a bucket is configured and the
// local upload directory otherwise.
func InitImageService(ctx context.Context, cfg *config.Config) (ImageService, error) {
	var svc ImageService
	if cfg.UsesS3() {
		s3svc, err := NewS3Service(ctx, cfg)
		if err != nil {
			return nil, err
		}
		svc = NewS3ImageService(s3svc)
		logger.Info(ctx, "product images stored in S3", "bucket", cfg.AWSS3Bucket)
	} else {
		svc = NewLocalImageService(cfg.UploadDir)
		logger.Info(ctx, "product images stored on local disk", "dir", cfg.UploadDir)
	}
	SetImageService(svc)
	return svc, nil
}

// GetImageService returns the initialized image service instance
func GetImageService() ImageService {
	imageServiceMu.RLock()
	defer imageServiceMu.RUnlock()
	return imageServiceInstance
}

// SetImageService sets the image service instance (primarily for testing)
func SetImageService(service ImageService) {
	imageServiceMu.Lock()
	imageServiceInstance = service
	imageServiceMu.Unlock()
}

// S3ImageService implements ImageService on top of an S3 bucket
type S3ImageService struct {
	s3Service S3Interface
}

// NewS3ImageService wraps an S3 client
func NewS3ImageService(s3Service S3Interface) *S3ImageService {
	return &S3ImageService{s3Service: s3Service}
}

// UploadImage validates the file and uploads it under products/<uuid>_<name>
func (s *S3ImageService) UploadImage(ctx context.Context, fileHeader *multipart.FileHeader) (string, error) {
	contentType, err := utils.ValidateImageFile(fileHeader)
	if err != nil {
		return "", err
	}

	key := S3KeyPrefix + utils.StorageName(fileHeader.Filename)
	if err := s.s3Service.UploadFile(ctx, fileHeader, key, contentType); err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return key, nil
}

// GetImageURL generates a presigned URL for accessing an image
func (s *S3ImageService) GetImageURL(ctx context.Context, imageKey string) (string, error) {
	if imageKey == "" {
		return "", nil
	}

	url, err := s.s3Service.GetPresignedURL(ctx, imageKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate image URL: %w", err)
	}
	return url, nil
}

// DeleteImage deletes an image from S3
func (s *S3ImageService) DeleteImage(ctx context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	if err := s.s3Service.DeleteFile(ctx, imageKey); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// LocalImageService keeps images in a directory served under /api/v1/uploads.
type LocalImageService struct {
	dir string
}

// NewLocalImageService stores images in dir
func NewLocalImageService(dir string) *LocalImageService {
	return &LocalImageService{dir: dir}
}

// Dir is the directory images are written to
func (s *LocalImageService) Dir() string {
	return s.dir
}

// UploadImage validates the file and writes it to disk
func (s *LocalImageService) UploadImage(_ context.Context, fileHeader *multipart.FileHeader) (string, error) {
	if _, err := utils.ValidateImageFile(fileHeader); err != nil {
		return "", err
	}
	name, err := utils.SaveUploadedFile(fileHeader, s.dir)
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}
	return name, nil
}

// GetImageURL returns the API path for a stored file
func (s *LocalImageService) GetImageURL(_ context.Context, imageKey string) (string, error) {
	return utils.GetImageURL(imageKey), nil
}

// DeleteImage removes the file; a missing file is not an error
func (s *LocalImageService) DeleteImage(_ context.Context, imageKey string) error {
	if imageKey == "" {
		return nil
	}
	if !utils.IsSafeFilename(imageKey) {
		return fmt.Errorf("invalid image key %q", imageKey)
	}
	err := os.Remove(filepath.Join(s.dir, imageKey))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
