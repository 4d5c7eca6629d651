package search

import (
	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("SearchHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/search", authMW, h.universal)
}

func (h *Handler) universal(c *gin.Context) {
	var f Filters
	if err := c.ShouldBindQuery(&f); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	common.RespondOK(c, "Search completed successfully", h.service.Universal(c.Request.Context(), common.GetAccountIDFromContext(c), f))
}
