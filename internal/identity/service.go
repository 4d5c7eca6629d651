package identity

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/config"
	"estate_marketplace_backend/internal/profile"

	"firebase.google.com/go/v4/auth"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TokenVerifier is the identity provider as seen by sign-in.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
	RevokeRefreshTokens(ctx context.Context, uid string) error
}

// ProfileProvisioner lazily creates the profile of a signed-in account.
type ProfileProvisioner interface {
	GetOrCreate(ctx context.Context, in profile.NewProfileInput) (*profile.UserProfile, error)
}

// Service defines account and session operations.
type Service interface {
	SignIn(ctx context.Context, idToken string) (*SignInResult, error)
	SignOut(ctx context.Context, sessionID uuid.UUID) error
	Authenticate(ctx context.Context, token string) (*Principal, error)
	CurrentAccount(ctx context.Context, accountID uuid.UUID) (*Account, error)
}

type service struct {
	repo          Repository
	verifier      TokenVerifier
	profiles      ProfileProvisioner
	tokens        *TokenService
	revoked       *RevocationCache
	avatarBaseURL string
	logger        *zap.Logger
}

func NewService(
	cfg *config.Config,
	repo Repository,
	verifier TokenVerifier,
	profiles ProfileProvisioner,
	tokens *TokenService,
	revoked *RevocationCache,
	logger *zap.Logger,
) Service {
	return &service{
		repo:          repo,
		verifier:      verifier,
		profiles:      profiles,
		tokens:        tokens,
		revoked:       revoked,
		avatarBaseURL: cfg.InitialsAvatarURL,
		logger:        logger.Named("IdentityService"),
	}
}

func (s *service) SignIn(ctx context.Context, idToken string) (*SignInResult, error) {
	token, err := s.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	account, err := s.upsertAccount(ctx, token)
	if err != nil {
		return nil, err
	}

	session := &Session{AccountID: account.ID, ExpiresAt: time.Now().Add(s.tokens.Expiry())}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.logger.Error("Failed to create session", zap.String("accountID", account.ID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not create session.")
	}

	signed, err := s.tokens.Generate(account.ID, session.ID, session.ExpiresAt)
	if err != nil {
		return nil, common.ErrInternalServer.WithDetails("Could not issue session token.")
	}

	p, err := s.profiles.GetOrCreate(ctx, profile.NewProfileInput{
		UserID: account.ID,
		Name:   account.Name,
		Email:  account.Email,
		Avatar: account.Avatar,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account signed in",
		zap.String("accountID", account.ID.String()),
		zap.String("sessionID", session.ID.String()),
	)
	return &SignInResult{
		Token:     signed,
		TokenType: common.AuthorizationTypeBearer,
		ExpiresAt: session.ExpiresAt,
		Account:   ToAccountResponse(account),
		Profile:   profile.ToProfileResponse(p),
	}, nil
}

func (s *service) upsertAccount(ctx context.Context, token *auth.Token) (*Account, error) {
	email := claimString(token.Claims, "email")
	name := claimString(token.Claims, "name")
	if name == "" {
		name = strings.SplitN(email, "@", 2)[0]
	}
	avatar := claimString(token.Claims, "picture")
	if avatar == "" {
		avatar = s.initialsAvatar(name)
	}

	existing, err := s.repo.FindAccountByFirebaseUID(ctx, token.UID)
	switch {
	case err == nil:
		changes := map[string]interface{}{}
		if email != "" && email != existing.Email {
			changes["email"] = email
		}
		if name != "" && name != existing.Name {
			changes["name"] = name
		}
		if len(changes) == 0 {
			return existing, nil
		}
		updated, err := s.repo.UpdateAccount(ctx, existing.ID, changes)
		if err != nil {
			s.logger.Error("Failed to refresh account", zap.String("accountID", existing.ID.String()), zap.Error(err))
			return nil, common.ErrInternalServer.WithDetails("Could not update account.")
		}
		return updated, nil
	case errors.Is(err, common.ErrNotFound):
		account := &Account{FirebaseUID: token.UID, Email: email, Name: name, Avatar: avatar}
		if err := s.repo.CreateAccount(ctx, account); err != nil {
			s.logger.Error("Failed to create account", zap.String("uid", token.UID), zap.Error(err))
			return nil, common.ErrInternalServer.WithDetails("Could not create account.")
		}
		s.logger.Info("Account created", zap.String("accountID", account.ID.String()))
		return account, nil
	default:
		s.logger.Error("Failed to look up account", zap.String("uid", token.UID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load account.")
	}
}

// initialsAvatar renders an avatar URL for accounts without a provider photo.
func (s *service) initialsAvatar(name string) string {
	if s.avatarBaseURL == "" || name == "" {
		return ""
	}
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "random")
	return s.avatarBaseURL + "?" + q.Encode()
}

func claimString(claims map[string]interface{}, key string) string {
	v, _ := claims[key].(string)
	return strings.TrimSpace(v)
}

func (s *service) SignOut(ctx context.Context, sessionID uuid.UUID) error {
	session, err := s.repo.RevokeSession(ctx, sessionID, time.Now())
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNotFound.WithDetails("Session not found.")
		}
		s.logger.Error("Failed to revoke session", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return common.ErrInternalServer.WithDetails("Could not sign out.")
	}
	s.revoked.Revoke(sessionID.String(), session.ExpiresAt)

	account, err := s.repo.FindAccountByID(ctx, session.AccountID)
	if err != nil {
		s.logger.Warn("Signed out session has no account", zap.String("sessionID", sessionID.String()), zap.Error(err))
		return nil
	}
	if err := s.verifier.RevokeRefreshTokens(ctx, account.FirebaseUID); err != nil {
		s.logger.Warn("Provider token revocation failed", zap.String("accountID", account.ID.String()), zap.Error(err))
	}
	s.logger.Info("Account signed out", zap.String("accountID", account.ID.String()), zap.String("sessionID", sessionID.String()))
	return nil
}

func (s *service) Authenticate(ctx context.Context, token string) (*Principal, error) {
	if token == "" {
		return nil, common.ErrUnauthorized.WithDetails("Authorization header is required.")
	}
	claims, err := s.tokens.Validate(token)
	if err != nil {
		s.logger.Debug("Session token rejected", zap.Error(err))
		return nil, common.ErrUnauthorized.WithDetails("Invalid or expired session token.")
	}
	if s.revoked.IsRevoked(claims.ID) {
		return nil, common.ErrUnauthorized.WithDetails("Session has been revoked.")
	}

	sessionID := uuid.MustParse(claims.ID)
	session, err := s.repo.FindSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized.WithDetails("Session not found.")
		}
		s.logger.Error("Failed to load session", zap.String("sessionID", claims.ID), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not verify session.")
	}
	if !session.Active(time.Now()) {
		if session.RevokedAt != nil {
			s.revoked.Revoke(claims.ID, session.ExpiresAt)
		}
		return nil, common.ErrUnauthorized.WithDetails("Session is no longer active.")
	}
	return &Principal{AccountID: session.AccountID, SessionID: session.ID, ExpiresAt: session.ExpiresAt}, nil
}

func (s *service) CurrentAccount(ctx context.Context, accountID uuid.UUID) (*Account, error) {
	account, err := s.repo.FindAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrNotFound.WithDetails("Account not found.")
		}
		s.logger.Error("Failed to load account", zap.String("accountID", accountID.String()), zap.Error(err))
		return nil, common.ErrInternalServer.WithDetails("Could not load account.")
	}
	return account, nil
}
