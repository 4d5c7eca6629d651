package firebase

import (
	"context"
	"fmt"
	"path/filepath"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/config"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// Service verifies identity-provider tokens through the Firebase Admin SDK.
type Service struct {
	authClient *auth.Client
	logger     *zap.Logger
}

// NewService initializes the Admin SDK. Without FIREBASE_SERVICE_ACCOUNT_KEY_PATH the
// service is created disabled and every call answers ErrServiceUnavailable.
func NewService(cfg *config.Config, logger *zap.Logger) (*Service, error) {
	logger = logger.Named("Firebase")
	if cfg.FirebaseServiceAccountKeyPath == "" {
		logger.Warn("Firebase service account key path is not configured, sign-in is disabled")
		return &Service{logger: logger}, nil
	}

	cleanPath := filepath.Clean(cfg.FirebaseServiceAccountKeyPath)
	opt := option.WithCredentialsFile(cleanPath)

	var conf *firebase.Config
	if cfg.FirebaseProjectID != "" {
		conf = &firebase.Config{ProjectID: cfg.FirebaseProjectID}
	}
	app, err := firebase.NewApp(context.Background(), conf, opt)
	if err != nil {
		logger.Error("Failed to initialize Firebase Admin SDK app", zap.Error(err), zap.String("keyPath", cleanPath))
		return nil, fmt.Errorf("error initializing Firebase app: %w", err)
	}

	authClient, err := app.Auth(context.Background())
	if err != nil {
		logger.Error("Failed to get Firebase Auth client", zap.Error(err))
		return nil, fmt.Errorf("error getting Firebase Auth client: %w", err)
	}

	logger.Info("Firebase Admin SDK initialized")
	return &Service{authClient: authClient, logger: logger}, nil
}

// VerifyIDToken verifies a Firebase ID token and returns its claims.
func (s *Service) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if s.authClient == nil {
		return nil, common.ErrServiceUnavailable.WithDetails("Identity provider is not configured.")
	}
	if idToken == "" {
		return nil, common.ErrUnauthorized.WithDetails("ID token must not be empty.")
	}

	token, err := s.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		s.logger.Warn("Firebase ID token verification failed", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid identity token.")
	}

	s.logger.Debug("Firebase ID token verified", zap.String("uid", token.UID))
	return token, nil
}

// RevokeRefreshTokens revokes every refresh token of uid at the provider.
func (s *Service) RevokeRefreshTokens(ctx context.Context, uid string) error {
	if s.authClient == nil {
		return common.ErrServiceUnavailable.WithDetails("Identity provider is not configured.")
	}
	if err := s.authClient.RevokeRefreshTokens(ctx, uid); err != nil {
		s.logger.Error("Failed to revoke refresh tokens", zap.Error(err), zap.String("uid", uid))
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	s.logger.Info("Revoked refresh tokens", zap.String("uid", uid))
	return nil
}
