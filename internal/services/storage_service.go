package services

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"homease-backend/internal/models"
	"homease-backend/internal/photo"
	"homease-backend/internal/supabase"
)

// StorageService keeps assessment media in the storage bucket under
// assessments/{id}/.
type StorageService struct {
	objects ObjectStore
	logger  *zap.Logger
}

func NewStorageService(objects ObjectStore, logger *zap.Logger) *StorageService {
	return &StorageService{
		objects: objects,
		logger:  logger.Named("storage"),
	}
}

// StoreOriginal uploads the homeowner's photo and returns its URL and path.
func (s *StorageService) StoreOriginal(assessmentID uuid.UUID, p *photo.Photo) (string, string, error) {
	storagePath := supabase.OriginalPath(assessmentID, p.Ext)
	url, err := s.objects.Upload(storagePath, p.Data, p.MIMEType)
	if err != nil {
		return "", "", fmt.Errorf("failed to store original image: %w", err)
	}
	return url, storagePath, nil
}

// StoreVisualization uploads a generated image as JPEG, converting it when
// the model returned another format.
func (s *StorageService) StoreVisualization(assessmentID uuid.UUID, viz *models.Visualization) (string, string, error) {
	data := viz.Image
	if viz.MIMEType != "image/jpeg" {
		converted, err := photo.Normalize(viz.Image, viz.MIMEType)
		if err != nil {
			return "", "", fmt.Errorf("failed to convert visualization: %w", err)
		}
		data = converted.Data
	}

	storagePath := supabase.VisualizationPath(assessmentID)
	url, err := s.objects.Upload(storagePath, data, "image/jpeg")
	if err != nil {
		return "", "", fmt.Errorf("failed to store visualization: %w", err)
	}
	return url, storagePath, nil
}

// LoadOriginal downloads a previously stored photo.
func (s *StorageService) LoadOriginal(a *models.Assessment) (*photo.Photo, error) {
	if !a.ImagePath.Valid || a.ImagePath.String == "" {
		return nil, ErrNoImage
	}
	data, err := s.objects.Download(a.ImagePath.String)
	if err != nil {
		return nil, fmt.Errorf("failed to load original image: %w", err)
	}
	return &photo.Photo{Data: data, MIMEType: photo.DetectMIME(data, "image/jpeg")}, nil
}

// DeleteAssessmentMedia removes every stored file of an assessment. Failures
// are logged and do not block deletion of the row.
func (s *StorageService) DeleteAssessmentMedia(assessmentID uuid.UUID) {
	if err := s.objects.DeleteAssessmentFiles(assessmentID); err != nil {
		s.logger.Warn("failed to delete assessment media",
			zap.String("assessment_id", assessmentID.String()),
			zap.Error(err),
		)
	}
}
