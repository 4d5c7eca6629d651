package property

import (
	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for properties.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("PropertyHandler")}
}

// RegisterRoutes sets up the routes for properties.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	properties := router.Group("/properties", authMW)
	{
		properties.GET("", h.list)
		properties.GET("/latest", h.latest)
		properties.GET("/:id", h.get)
		properties.POST("", h.create)
		properties.DELETE("/:id", h.delete)
	}
	router.GET("/profiles/:id/properties", authMW, h.listByProfile)
}

func (h *Handler) list(c *gin.Context) {
	limit, offset := common.GetLimitOffsetParams(c, DefaultListLimit)
	props := h.service.List(c.Request.Context(), ListParams{
		Filter: c.Query("filter"),
		Query:  c.Query("query"),
		Limit:  limit,
		Offset: offset,
	})
	common.RespondOK(c, "Properties retrieved successfully", h.service.Annotate(c.Request.Context(), props, common.GetAccountIDFromContext(c)))
}

func (h *Handler) latest(c *gin.Context) {
	ctx := c.Request.Context()
	common.RespondOK(c, "Latest properties retrieved successfully", h.service.Annotate(ctx, h.service.Latest(ctx), common.GetAccountIDFromContext(c)))
}

func (h *Handler) get(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := h.service.GetByID(c.Request.Context(), id, common.GetAccountIDFromContext(c))
	if resp == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Property not found."))
		return
	}
	common.RespondOK(c, "Property retrieved successfully", resp)
}

func (h *Handler) create(c *gin.Context) {
	var req CreatePropertyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Create property: invalid request body", zap.Error(err))
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	p, err := h.service.Create(c.Request.Context(), common.GetProfileIDFromContext(c), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Property created successfully", ToPropertyResponse(p))
}

func (h *Handler) delete(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, common.GetProfileIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

func (h *Handler) listByProfile(c *gin.Context) {
	profileID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	props, err := h.service.ListByProfile(c.Request.Context(), profileID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Properties retrieved successfully", h.service.Annotate(c.Request.Context(), props, common.GetAccountIDFromContext(c)))
}
