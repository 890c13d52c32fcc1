// Package services holds the answer image workflow: blob storage and the
// metadata table are updated in a fixed order with no shared transaction.
//
// Upload writes the blob, then inserts the row. A failed insert leaves an
// orphan blob behind. Delete removes the blob, then the row. A failed row
// delete leaves a row whose blob is gone.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/krishkalaria12/answer-images/models"
	"github.com/krishkalaria12/answer-images/storage"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type ImageUploadService struct {
	db            *gorm.DB
	blobs         storage.Store
	containerName string
}

func NewImageUploadService(db *gorm.DB, blobs storage.Store, containerName string) *ImageUploadService {
	return &ImageUploadService{db: db, blobs: blobs, containerName: containerName}
}

// EnsureContainer provisions the image container, or picks up the one that
// is already there.
func (s *ImageUploadService) EnsureContainer(ctx context.Context) (storage.Container, error) {
	c, status, err := s.blobs.EnsureContainer(ctx, s.containerName)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvisioningFailed, err)
	}

	if status == storage.Created {
		log.Info().Str("container", s.containerName).Msg("blob container created")
	}
	return c, nil
}

func (s *ImageUploadService) List(ctx context.Context) ([]models.AnswerImage, error) {
	var images []models.AnswerImage
	if err := s.db.WithContext(ctx).Order("id").Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

func (s *ImageUploadService) Get(ctx context.Context, id uint) (*models.AnswerImage, error) {
	var image models.AnswerImage
	if err := s.db.WithContext(ctx).First(&image, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &image, nil
}

// Upload stores data under fileName, replacing any blob with the same key,
// and records it. No row is written unless the blob upload succeeded.
func (s *ImageUploadService) Upload(ctx context.Context, fileName string, data []byte) (*models.AnswerImage, error) {
	fileName = strings.TrimSpace(fileName)
	if err := validateFileName(fileName); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrInvalidUpload)
	}

	logger := log.With().Str("file_name", fileName).Logger()

	c, err := s.EnsureContainer(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("upload aborted")
		return nil, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	exists, err := c.Exists(ctx, fileName)
	if err != nil {
		logger.Error().Err(err).Msg("blob existence check failed")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if exists {
		if err := c.Delete(ctx, fileName); err != nil {
			logger.Error().Err(err).Msg("removing previous blob failed")
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}

	url, err := c.Upload(ctx, fileName, data, http.DetectContentType(data))
	if err != nil {
		logger.Error().Err(err).Msg("blob upload failed")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	image := models.AnswerImage{FileName: fileName, URL: url}
	if err := image.Validate(); err != nil {
		logger.Error().Err(err).Str("url", url).Msg("blob uploaded but record is invalid")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if err := s.db.WithContext(ctx).Create(&image).Error; err != nil {
		logger.Error().Err(err).Str("url", url).Msg("blob uploaded but record insert failed")
		return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	logger.Info().Uint("id", image.ID).Bool("replaced", exists).Int("bytes", len(data)).Msg("image uploaded")
	return &image, nil
}

// Delete removes the blob and then the row. Storage failures abort before
// the row is touched.
func (s *ImageUploadService) Delete(ctx context.Context, id uint) error {
	image, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	logger := log.With().Uint("id", id).Str("file_name", image.FileName).Logger()

	c, err := s.blobs.Container(ctx, s.containerName)
	if err != nil {
		logger.Error().Err(err).Msg("container lookup failed")
		return fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
	}

	exists, err := c.Exists(ctx, image.FileName)
	if err != nil {
		logger.Error().Err(err).Msg("blob existence check failed")
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if exists {
		if err := c.Delete(ctx, image.FileName); err != nil {
			logger.Error().Err(err).Msg("blob delete failed")
			return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
		}
	}

	result := s.db.WithContext(ctx).Delete(&models.AnswerImage{}, id)
	if result.Error != nil {
		logger.Error().Err(result.Error).Msg("blob removed but record delete failed")
		return fmt.Errorf("delete record %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}

	logger.Info().Bool("blob_present", exists).Msg("image deleted")
	return nil
}

func validateFileName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: file name required", ErrInvalidUpload)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%w: file name %q must not contain a path", ErrInvalidUpload, name)
	}
	return nil
}
