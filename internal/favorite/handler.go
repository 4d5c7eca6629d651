package favorite

import (
	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/property"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("FavoriteHandler")}
}

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	favorites := router.Group("/favorites", authMW)
	{
		favorites.GET("", h.list)
		favorites.GET("/version", h.version)
	}
	router.GET("/properties/:id/favorite", authMW, h.status)
	router.POST("/properties/:id/favorite", authMW, h.toggle)
}

func (h *Handler) list(c *gin.Context) {
	props, err := h.service.ListProperties(c.Request.Context(), common.GetAccountIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	resp := property.ToPropertyResponses(props)
	for _, p := range resp {
		p.IsFavorite = true
	}
	common.RespondOK(c, "Favorites retrieved successfully", resp)
}

func (h *Handler) version(c *gin.Context) {
	v, err := h.service.Version(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Favorites version retrieved successfully", gin.H{"version": v})
}

func (h *Handler) status(c *gin.Context) {
	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	favorited, favoriteID, err := h.service.IsFavorite(c.Request.Context(), propertyID, common.GetAccountIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	st := Status{PropertyID: propertyID, Favorited: favorited}
	if favorited {
		st.FavoriteID = &favoriteID
	}
	common.RespondOK(c, "Favorite status retrieved successfully", st)
}

func (h *Handler) toggle(c *gin.Context) {
	propertyID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	st, err := h.service.Toggle(c.Request.Context(), propertyID, common.GetAccountIDFromContext(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Favorite toggled successfully", st)
}
