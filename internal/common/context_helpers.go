package common

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// AccountIDKey is the context key for the authenticated account id.
	AccountIDKey = "accountID"
	// ProfileIDKey is the context key for the authenticated account's profile id.
	ProfileIDKey = "profileID"
	// SessionIDKey is the context key for the session backing the request.
	SessionIDKey = "sessionID"
)

// GetTokenFromContext returns the bearer token from the Authorization header, or "".
func GetTokenFromContext(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], AuthorizationTypeBearer) {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func uuidFromContext(c *gin.Context, key string) uuid.UUID {
	val, exists := c.Get(key)
	if !exists {
		return uuid.Nil
	}
	id, ok := val.(uuid.UUID)
	if !ok {
		return uuid.Nil
	}
	return id
}

// GetAccountIDFromContext returns the authenticated account id or uuid.Nil.
func GetAccountIDFromContext(c *gin.Context) uuid.UUID {
	return uuidFromContext(c, AccountIDKey)
}

// GetProfileIDFromContext returns the authenticated profile id or uuid.Nil.
func GetProfileIDFromContext(c *gin.Context) uuid.UUID {
	return uuidFromContext(c, ProfileIDKey)
}

// GetSessionIDFromContext returns the current session id or uuid.Nil.
func GetSessionIDFromContext(c *gin.Context) uuid.UUID {
	return uuidFromContext(c, SessionIDKey)
}

// ParseUUIDParam parses a path parameter as a uuid.
func ParseUUIDParam(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, ErrBadRequest.WithDetails("Invalid " + name + " format.")
	}
	return id, nil
}
