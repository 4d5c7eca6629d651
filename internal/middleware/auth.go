package middleware

import (
	"context"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Authenticator resolves a bearer token to a principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*identity.Principal, error)
}

// AuthMiddleware authenticates the bearer token and attaches a session State
// for the account, with its profile loaded, to the request.
func AuthMiddleware(auth Authenticator, accounts session.AccountLoader, profiles session.ProfileLoader, logger *zap.Logger) gin.HandlerFunc {
	logger = logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		token := common.GetTokenFromContext(c)
		if token == "" {
			logger.Debug("Authorization header missing or malformed")
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header format must be 'Bearer <token>'."))
			return
		}

		principal, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			common.RespondWithError(c, err)
			return
		}

		st := session.NewState(accounts, profiles, logger)
		if err := st.SignIn(c.Request.Context(), principal.AccountID); err != nil {
			common.RespondWithError(c, err)
			return
		}

		c.Set(common.AccountIDKey, principal.AccountID)
		c.Set(common.SessionIDKey, principal.SessionID)
		if p := st.Profile(); p != nil {
			c.Set(common.ProfileIDKey, p.ID)
		}
		session.Set(c, st)

		logger.Debug("Request authenticated",
			zap.String("accountID", principal.AccountID.String()),
			zap.String("sessionID", principal.SessionID.String()),
		)
		c.Next()
	}
}
