package supabase

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	storage "github.com/supabase-community/storage-go"
)

type StorageClient struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

func NewStorageClient(supabaseURL, serviceRoleKey, bucket string) (*StorageClient, error) {
	baseURL := strings.TrimRight(supabaseURL, "/")
	if baseURL == "" {
		return nil, fmt.Errorf("supabase url is required")
	}
	client := storage.NewClient(baseURL+"/storage/v1", serviceRoleKey, nil)

	return &StorageClient{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
	}, nil
}

// OriginalPath is the object key of an assessment's uploaded photo.
func OriginalPath(assessmentID uuid.UUID, ext string) string {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	if ext == "" || ext == "jpeg" {
		ext = "jpg"
	}
	return fmt.Sprintf("assessments/%s/original.%s", assessmentID, ext)
}

// VisualizationPath is the object key of an assessment's generated "after" image.
func VisualizationPath(assessmentID uuid.UUID) string {
	return fmt.Sprintf("assessments/%s/visualization.jpg", assessmentID)
}

// Upload stores data at storagePath, replacing any existing object, and
// returns its public URL.
func (s *StorageClient) Upload(storagePath string, data []byte, contentType string) (string, error) {
	upsert := true
	_, err := s.client.UploadFile(s.bucket, storagePath, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return s.GetPublicURL(storagePath), nil
}

func (s *StorageClient) GetPublicURL(storagePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, s.bucket, storagePath)
}

// Download fetches an object previously written by Upload.
func (s *StorageClient) Download(storagePath string) ([]byte, error) {
	data, err := s.client.DownloadFile(s.bucket, storagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	return data, nil
}

// DeleteAssessmentFiles removes every object stored under the assessment's
// prefix.
func (s *StorageClient) DeleteAssessmentFiles(assessmentID uuid.UUID) error {
	prefix := fmt.Sprintf("assessments/%s", assessmentID)

	files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{Limit: 100})
	if err != nil {
		return fmt.Errorf("failed to list files: %w", err)
	}
	if len(files) == 0 {
		return nil
	}

	paths := make([]string, len(files))
	for i, file := range files {
		paths[i] = path.Join(prefix, file.Name)
	}
	if _, err := s.client.RemoveFile(s.bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}
