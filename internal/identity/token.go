package identity

import (
	"errors"
	"fmt"
	"time"

	"estate_marketplace_backend/internal/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Claims are the session token claims. The registered ID carries the session id.
type Claims struct {
	AccountID uuid.UUID `json:"account_id"`
	jwt.RegisteredClaims
}

// TokenService signs and validates HS256 session tokens.
type TokenService struct {
	secret []byte
	issuer string
	expiry time.Duration
	logger *zap.Logger
}

func NewTokenService(cfg *config.Config, logger *zap.Logger) *TokenService {
	return &TokenService{
		secret: []byte(cfg.JWTSecretKey),
		issuer: cfg.JWTIssuer,
		expiry: cfg.SessionExpiry,
		logger: logger.Named("TokenService"),
	}
}

// Expiry is the lifetime given to new sessions.
func (s *TokenService) Expiry() time.Duration { return s.expiry }

// Generate signs a token for sessionID that expires at expiresAt.
func (s *TokenService) Generate(accountID, sessionID uuid.UUID, expiresAt time.Time) (string, error) {
	now := time.Now()
	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID.String(),
			Subject:   accountID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign session token", zap.Error(err))
		return "", fmt.Errorf("could not sign session token: %w", err)
	}
	return signed, nil
}

// Validate parses tokenString and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if _, err := uuid.Parse(claims.ID); err != nil {
		return nil, fmt.Errorf("invalid token id: %w", err)
	}
	return claims, nil
}
