package common

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestAPIError_WithDetails_DoesNotMutateSentinel(t *testing.T) {
	detailed := ErrNotFound.WithDetails("Property not found.")

	assert.Equal(t, "Property not found.", detailed.Details)
	assert.Nil(t, ErrNotFound.Details)
	assert.Equal(t, http.StatusNotFound, detailed.StatusCode)
}

func TestAPIError_Is_MatchesByCode(t *testing.T) {
	wrapped := fmt.Errorf("loading chat: %w", ErrForbidden.WithDetails("not a participant"))

	assert.True(t, errors.Is(wrapped, ErrForbidden))
	assert.False(t, errors.Is(wrapped, ErrNotFound))

	apiErr, ok := IsAPIError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, "FORBIDDEN", apiErr.Code)
}

func TestGetLimitOffsetParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"", 100, 0},
		{"?limit=20&offset=40", 20, 40},
		{"?limit=-1&offset=-5", 100, 0},
		{"?limit=abc&offset=xyz", 100, 0},
	}
	for _, tt := range tests {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/properties"+tt.query, nil)

		limit, offset := GetLimitOffsetParams(c, 100)
		assert.Equal(t, tt.wantLimit, limit, tt.query)
		assert.Equal(t, tt.wantOffset, offset, tt.query)
	}
}
