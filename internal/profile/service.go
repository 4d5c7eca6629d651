package profile

import (
	"context"
	"errors"
	"mime/multipart"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/filestorage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AvatarBucket holds profile pictures.
const AvatarBucket = "avatars"

// FileUploader stores binary uploads.
type FileUploader interface {
	Upload(ctx context.Context, bucket string, fileHeader *multipart.FileHeader) (*filestorage.StoredFile, error)
}

// Service defines profile operations.
type Service interface {
	GetCurrent(ctx context.Context, accountID uuid.UUID) (*UserProfile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
	GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	GetOrCreate(ctx context.Context, in NewProfileInput) (*UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserProfile, error)
	UploadAvatar(ctx context.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (*UserProfile, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserProfile, error)
	Search(ctx context.Context, term string, limit int) ([]UserProfile, error)
}

type service struct {
	repo   Repository
	files  FileUploader
	logger *zap.Logger
}

// NewService creates a profile service.
func NewService(repo Repository, files FileUploader, logger *zap.Logger) Service {
	return &service{repo: repo, files: files, logger: logger.Named("ProfileService")}
}

// GetCurrent returns the profile of accountID, or nil when none exists yet.
func (s *service) GetCurrent(ctx context.Context, accountID uuid.UUID) (*UserProfile, error) {
	p, err := s.repo.FindByUserID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("Failed to load current profile", zap.String("accountID", accountID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load profile.")
	}
	return p, nil
}

// GetByUserID looks a profile up by its account id. Absence and lookup
// failures both read as nil.
func (s *service) GetByUserID(ctx context.Context, userID uuid.UUID) (*UserProfile, error) {
	p, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			s.logger.Warn("Profile lookup by user failed", zap.String("userID", userID.String()), zap.Error(err))
		}
		return nil, nil
	}
	return p, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found.")
		}
		s.logger.Error("Failed to load profile", zap.String("profileID", id.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load profile.")
	}
	return p, nil
}

// GetOrCreate is a check-then-create. Two concurrent first sign-ins may both
// create; FindByUserID always resolves to the oldest afterwards.
func (s *service) GetOrCreate(ctx context.Context, in NewProfileInput) (*UserProfile, error) {
	existing, err := s.GetCurrent(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	p := &UserProfile{UserID: in.UserID, Name: in.Name, Email: in.Email, Avatar: in.Avatar}
	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("Failed to create profile", zap.String("accountID", in.UserID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create profile.")
	}
	s.logger.Info("Profile created", zap.String("profileID", p.ID.String()), zap.String("accountID", in.UserID.String()))
	return p, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*UserProfile, error) {
	changes := map[string]interface{}{}
	if req.Name != nil {
		changes["name"] = *req.Name
	}
	if req.Avatar != nil {
		changes["avatar"] = *req.Avatar
	}
	if len(changes) == 0 {
		return s.GetByID(ctx, id)
	}
	return s.update(ctx, id, changes)
}

// UploadAvatar stores the picture and points the profile at its view URL.
func (s *service) UploadAvatar(ctx context.Context, id uuid.UUID, fileHeader *multipart.FileHeader) (*UserProfile, error) {
	stored, err := s.files.Upload(ctx, AvatarBucket, fileHeader)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, id, map[string]interface{}{"avatar": stored.URL})
}

func (s *service) update(ctx context.Context, id uuid.UUID, changes map[string]interface{}) (*UserProfile, error) {
	p, err := s.repo.Update(ctx, id, changes)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Profile not found.")
		}
		s.logger.Error("Failed to update profile", zap.String("profileID", id.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not update profile.")
	}
	return p, nil
}

func (s *service) FindByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserProfile, error) {
	out := make(map[uuid.UUID]UserProfile, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	profiles, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("Failed to load profiles", zap.Int("count", len(ids)), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load profiles.")
	}
	for _, p := range profiles {
		out[p.ID] = p
	}
	return out, nil
}

func (s *service) Search(ctx context.Context, term string, limit int) ([]UserProfile, error) {
	profiles, err := s.repo.Search(ctx, term, limit)
	if err != nil {
		s.logger.Error("Profile search failed", zap.String("term", term), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not search profiles.")
	}
	return profiles, nil
}
