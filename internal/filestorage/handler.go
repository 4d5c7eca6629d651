package filestorage

import (
	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves uploads and public file views.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("FileHandler")}
}

// RegisterRoutes mounts uploads behind authMW; views are public like the gateway's file URLs.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.POST("/files/:bucket", authMW, h.upload)
}

// RegisterPublicRoutes mounts GET /files/:bucket/:id on the root router.
func (h *Handler) RegisterPublicRoutes(router gin.IRoutes) {
	router.GET("/files/:bucket/:id", h.view)
}

func (h *Handler) upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Multipart field 'file' is required."))
		return
	}
	stored, err := h.service.Upload(c.Request.Context(), c.Param("bucket"), fileHeader)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "File uploaded successfully", stored)
}

func (h *Handler) view(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	file, fullPath, err := h.service.Open(c.Request.Context(), c.Param("bucket"), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if file.ContentType != "" {
		c.Header("Content-Type", file.ContentType)
	}
	c.File(fullPath)
}
