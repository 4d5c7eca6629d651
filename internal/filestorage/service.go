package filestorage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{0,62}$`)

// Service stores uploaded binaries on local disk under <root>/<bucket>/ and
// keeps a document per file so it can be addressed by id.
type Service struct {
	storagePath   string
	publicBaseURL string
	maxBytes      int64
	files         *gateway.Collection[StoredFile, *StoredFile]
	logger        *zap.Logger
}

// NewService creates the storage root if needed.
func NewService(cfg *config.Config, db *gorm.DB, broker gateway.Broker, logger *zap.Logger) (*Service, error) {
	if cfg.StoragePath == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}
	if err := os.MkdirAll(cfg.StoragePath, os.ModePerm); err != nil {
		logger.Error("Failed to create storage path directory", zap.String("path", cfg.StoragePath), zap.Error(err))
		return nil, fmt.Errorf("failed to create storage path %s: %w", cfg.StoragePath, err)
	}
	logger.Info("File storage initialized", zap.String("storagePath", cfg.StoragePath))
	return &Service{
		storagePath:   cfg.StoragePath,
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		maxBytes:      int64(cfg.StorageMaxUploadMB) << 20,
		files:         gateway.NewCollection[StoredFile](db, broker, logger, CollectionName, "bucket"),
		logger:        logger.Named("FileStorage"),
	}, nil
}

// Upload writes fileHeader into bucket and records it.
func (s *Service) Upload(ctx context.Context, bucket string, fileHeader *multipart.FileHeader) (*StoredFile, error) {
	if fileHeader == nil {
		return nil, common.ErrBadRequest.WithDetails("A file is required.")
	}
	if !bucketPattern.MatchString(bucket) {
		return nil, common.ErrBadRequest.WithDetails("Invalid bucket name.")
	}
	if s.maxBytes > 0 && fileHeader.Size > s.maxBytes {
		return nil, common.ErrUnprocessableEntity.WithDetails(fmt.Sprintf("File exceeds the %d byte limit.", s.maxBytes))
	}

	contentType := fileHeader.Header.Get("Content-Type")
	extension, err := extensionFor(fileHeader.Filename, contentType)
	if err != nil {
		return nil, err
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	id := uuid.New()
	relPath := filepath.ToSlash(filepath.Join(bucket, id.String()+extension))
	destinationDir := filepath.Join(s.storagePath, bucket)
	if err := os.MkdirAll(destinationDir, os.ModePerm); err != nil {
		s.logger.Error("Failed to create bucket directory", zap.String("path", destinationDir), zap.Error(err))
		return nil, fmt.Errorf("failed to create directory %s: %w", destinationDir, err)
	}

	fullPath := filepath.Join(s.storagePath, filepath.FromSlash(relPath))
	dst, err := os.Create(fullPath)
	if err != nil {
		s.logger.Error("Failed to create destination file", zap.String("path", fullPath), zap.Error(err))
		return nil, fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	written, err := io.Copy(dst, src)
	closeErr := dst.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.logger.Error("Failed to write uploaded file", zap.String("path", fullPath), zap.Error(err))
		_ = os.Remove(fullPath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}

	file := &StoredFile{
		Bucket:       bucket,
		Path:         relPath,
		ContentType:  contentType,
		Size:         written,
		OriginalName: filepath.Base(fileHeader.Filename),
	}
	file.ID = id
	if err := s.files.Create(ctx, file); err != nil {
		_ = os.Remove(fullPath)
		s.logger.Error("Failed to record stored file", zap.String("path", relPath), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not store file.")
	}
	file.URL = s.ViewURL(file)

	s.logger.Info("File stored", zap.String("bucket", bucket), zap.String("fileID", id.String()), zap.Int64("size", written))
	return file, nil
}

// ViewURL is the public address of a stored file.
func (s *Service) ViewURL(file *StoredFile) string {
	return fmt.Sprintf("%s/files/%s/%s", s.publicBaseURL, file.Bucket, file.ID)
}

// Open resolves a stored file and its absolute location on disk.
func (s *Service) Open(ctx context.Context, bucket string, id uuid.UUID) (*StoredFile, string, error) {
	file, err := s.lookup(ctx, bucket, id)
	if err != nil {
		return nil, "", err
	}
	file.URL = s.ViewURL(file)
	return file, filepath.Join(s.storagePath, filepath.FromSlash(file.Path)), nil
}

// Delete removes the record and the file. A file already missing on disk is not an error.
func (s *Service) Delete(ctx context.Context, bucket string, id uuid.UUID) error {
	file, err := s.lookup(ctx, bucket, id)
	if err != nil {
		return err
	}
	if err := s.deletePath(file.Path); err != nil {
		return err
	}
	if err := s.files.Delete(ctx, file.ID); err != nil && !errors.Is(err, common.ErrNotFound) {
		s.logger.Error("Failed to delete stored file record", zap.String("fileID", id.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not delete file.")
	}
	return nil
}

func (s *Service) lookup(ctx context.Context, bucket string, id uuid.UUID) (*StoredFile, error) {
	file, err := s.files.Get(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("File not found.")
		}
		s.logger.Error("Failed to load stored file", zap.String("fileID", id.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load file.")
	}
	if file.Bucket != bucket {
		return nil, common.ErrNotFound.WithDetails("File not found.")
	}
	return file, nil
}

func (s *Service) deletePath(relativePath string) error {
	clean := filepath.Clean(filepath.FromSlash(relativePath))
	if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
		s.logger.Warn("Attempt to delete file with path traversal", zap.String("relativePath", relativePath))
		return common.ErrBadRequest.WithDetails("Invalid file path.")
	}

	fullPath := filepath.Join(s.storagePath, clean)
	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			s.logger.Warn("Attempt to delete non-existent file", zap.String("path", fullPath))
			return nil
		}
		s.logger.Error("Failed to delete file", zap.String("path", fullPath), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}
	return nil
}

func extensionFor(filename, contentType string) (string, error) {
	switch {
	case strings.HasPrefix(contentType, "image/jpeg"):
		return ".jpg", nil
	case strings.HasPrefix(contentType, "image/png"):
		return ".png", nil
	case strings.HasPrefix(contentType, "image/gif"):
		return ".gif", nil
	case strings.HasPrefix(contentType, "image/webp"):
		return ".webp", nil
	}
	if ext := strings.ToLower(filepath.Ext(filepath.Base(filename))); ext != "" {
		return ext, nil
	}
	return "", common.ErrUnprocessableEntity.WithDetails(fmt.Sprintf("Unsupported file type or missing extension: %s", contentType))
}
