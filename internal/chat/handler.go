package chat

import (
	"io"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const streamBuffer = 64

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("ChatHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	chats := router.Group("/chats", authMW)
	{
		chats.POST("", h.start)
		chats.GET("", h.list)
		chats.DELETE("/:id", h.deleteChat)
		chats.GET("/:id/messages", h.messages)
		chats.POST("/:id/messages", h.send)
		chats.POST("/:id/messages/delete", h.deleteMessages)
		chats.GET("/:id/stream", h.stream)
	}
}

func (h *Handler) start(c *gin.Context) {
	var req StartChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	chat, err := h.service.GetOrCreate(c.Request.Context(), common.GetAccountIDFromContext(c), req.PartnerID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Chat opened successfully", chat)
}

func (h *Handler) list(c *gin.Context) {
	common.RespondOK(c, "Chats retrieved successfully", h.service.ListForUser(c.Request.Context(), common.GetAccountIDFromContext(c)))
}

// authorized loads the chat named by the path for the current account.
func (h *Handler) authorized(c *gin.Context) (*Chat, bool) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return nil, false
	}
	chat, err := h.service.Get(c.Request.Context(), id, common.GetAccountIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return nil, false
	}
	return chat, true
}

func (h *Handler) messages(c *gin.Context) {
	chat, ok := h.authorized(c)
	if !ok {
		return
	}
	common.RespondOK(c, "Messages retrieved successfully", h.service.Messages(c.Request.Context(), chat.ID))
}

func (h *Handler) send(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	m, err := h.service.Send(c.Request.Context(), id, common.GetAccountIDFromContext(c), req.Content)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Message sent successfully", m)
}

func (h *Handler) deleteMessages(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req DeleteMessagesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	chatDeleted, err := h.service.DeleteMessages(c.Request.Context(), id, common.GetAccountIDFromContext(c), req.IDs)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Messages deleted successfully", gin.H{"chat_deleted": chatDeleted})
}

func (h *Handler) deleteChat(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteChatAndMessages(c.Request.Context(), id, common.GetAccountIDFromContext(c)); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}

// stream sends the chat history as one "history" event, then every message
// create or delete that changes the timeline. The subscription opens before
// the history is fetched so nothing sent in between is lost.
func (h *Handler) stream(c *gin.Context) {
	chat, ok := h.authorized(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events := make(chan gateway.Event, streamBuffer)
	sub := h.service.Subscribe(chat.ID, func(ev gateway.Event) {
		select {
		case events <- ev:
		case <-ctx.Done():
		}
	})
	defer sub.Unsubscribe()

	timeline := NewTimeline(h.service.Messages(ctx, chat.ID))
	c.SSEvent("history", timeline.Messages())
	c.Writer.Flush()

	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case ev := <-events:
			changed, err := timeline.Apply(ev)
			if err != nil {
				h.logger.Warn("Skipping malformed message event", zap.String("eventID", ev.ID.String()), zap.Error(err))
				return true
			}
			if !changed {
				return true
			}
			if ev.Type == gateway.EventDelete {
				c.SSEvent("delete", gin.H{"id": ev.DocumentID})
			} else {
				c.SSEvent("message", ev.Payload)
			}
			return true
		}
	})
}
