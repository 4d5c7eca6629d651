package profile

import (
	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler handles HTTP requests for profiles.
type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("ProfileHandler")}
}

// RegisterRoutes sets up the routes for profiles.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	profiles := router.Group("/profiles", authMW)
	{
		profiles.GET("/me", h.getMe)
		profiles.PATCH("/me", h.updateMe)
		profiles.POST("/me/avatar", h.uploadAvatar)
		profiles.GET("/by-user/:userId", h.getByUserID)
		profiles.GET("/:id", h.getByID)
	}
}

func (h *Handler) currentProfileID(c *gin.Context) (uuid.UUID, bool) {
	id := common.GetProfileIDFromContext(c)
	if id == uuid.Nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No profile for this session."))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) getMe(c *gin.Context) {
	p, err := h.service.GetCurrent(c.Request.Context(), common.GetAccountIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if p == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Profile not found."))
		return
	}
	common.RespondOK(c, "Profile retrieved successfully", ToProfileResponse(p))
}

func (h *Handler) updateMe(c *gin.Context) {
	id, ok := h.currentProfileID(c)
	if !ok {
		return
	}
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	p, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile updated successfully", ToProfileResponse(p))
}

func (h *Handler) uploadAvatar(c *gin.Context) {
	id, ok := h.currentProfileID(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Multipart field 'file' is required."))
		return
	}
	p, err := h.service.UploadAvatar(c.Request.Context(), id, fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Avatar updated successfully", ToProfileResponse(p))
}

func (h *Handler) getByID(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	p, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Profile retrieved successfully", ToProfileResponse(p))
}

func (h *Handler) getByUserID(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	p, _ := h.service.GetByUserID(c.Request.Context(), userID)
	if p == nil {
		common.RespondWithError(c, common.ErrNotFound.WithDetails("Profile not found."))
		return
	}
	common.RespondOK(c, "Profile retrieved successfully", ToProfileResponse(p))
}
