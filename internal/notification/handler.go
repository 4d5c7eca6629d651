package notification

import (
	"io"

	"estate_marketplace_backend/internal/common"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("NotificationHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	notifications := router.Group("/notifications", authMW)
	{
		notifications.GET("", h.list)
		notifications.GET("/unread-count", h.unreadCount)
		notifications.GET("/stream", h.stream)
		notifications.PATCH("/read-all", h.markAllRead)
		notifications.PATCH("/:id/read", h.markRead)
	}
}

func profileID(c *gin.Context) (uuid.UUID, bool) {
	id := common.GetProfileIDFromContext(c)
	if id == uuid.Nil {
		common.RespondWithError(c, common.ErrForbidden.WithDetails("A profile is required for notifications."))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) list(c *gin.Context) {
	pid, ok := profileID(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), pid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notifications retrieved successfully", items)
}

func (h *Handler) unreadCount(c *gin.Context) {
	pid, ok := profileID(c)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), pid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread count retrieved successfully", gin.H{"count": n})
}

func (h *Handler) markRead(c *gin.Context) {
	pid, ok := profileID(c)
	if !ok {
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.MarkAsRead(c.Request.Context(), id, pid); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read successfully", nil)
}

func (h *Handler) markAllRead(c *gin.Context) {
	pid, ok := profileID(c)
	if !ok {
		return
	}
	n, err := h.service.MarkAllAsRead(c.Request.Context(), pid)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read successfully", gin.H{"updated": n})
}

// stream pushes the unread count as a server-sent event whenever it may have
// changed. Only the latest count is kept while the client is slow.
func (h *Handler) stream(c *gin.Context) {
	pid, ok := profileID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	counts := make(chan int64, 1)
	push := func(n int64) {
		for {
			select {
			case counts <- n:
				return
			default:
			}
			select {
			case <-counts:
			default:
			}
		}
	}

	w, err := h.service.WatchUnread(ctx, pid, push)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	defer w.Close()

	h.logger.Debug("Unread stream opened", zap.String("profileID", pid.String()))
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case n := <-counts:
			c.SSEvent("unread", gin.H{"count": n})
			return true
		}
	})
	h.logger.Debug("Unread stream closed", zap.String("profileID", pid.String()))
}
