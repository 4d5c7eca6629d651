package common

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLimitOffsetParams extracts limit and offset, falling back to the given default limit.
func GetLimitOffsetParams(c *gin.Context, defaultLimit int) (limit, offset int) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
