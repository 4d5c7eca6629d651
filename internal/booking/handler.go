package booking

import (
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
	return &Handler{service: service, logger: logger.Named("BookingHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	bookings := router.Group("/bookings", authMW)
	{
		bookings.POST("", h.create)
		bookings.GET("", h.list)
		bookings.POST("/:id/respond", h.respond)
		bookings.DELETE("/:id", h.delete)
	}
}

type viewerListsResponse struct {
	Sent     []*BookingResponse `json:"sent"`
	Received []*BookingResponse `json:"received"`
	Granted  []*BookingResponse `json:"granted"`
}

func toResponses(items []BookingRequest) []*BookingResponse {
	out := make([]*BookingResponse, 0, len(items))
	for i := range items {
		out = append(out, ToBookingResponse(&items[i]))
	}
	return out
}

func (h *Handler) create(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	b, err := h.service.Create(c.Request.Context(), req.PropertyID, common.GetProfileIDFromContext(c), req.ReceiverProfileID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Booking request sent successfully", ToBookingResponse(b))
}

func (h *Handler) list(c *gin.Context) {
	var propertyID *uuid.UUID
	if raw := c.Query("property_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid property_id format."))
			return
		}
		propertyID = &id
	}
	lists, err := h.service.ListForViewer(c.Request.Context(), common.GetProfileIDFromContext(c), propertyID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Booking requests retrieved successfully", viewerListsResponse{
		Sent:     toResponses(lists.Sent),
		Received: toResponses(lists.Received),
		Granted:  toResponses(lists.Granted),
	})
}

func (h *Handler) respond(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req RespondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondWithError(c, common.BindingError(err))
		return
	}
	b, err := h.service.Respond(c.Request.Context(), id, common.GetProfileIDFromContext(c), req.Status)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Booking request updated successfully", ToBookingResponse(b))
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
