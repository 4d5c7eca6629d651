package session

import (
	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/profile"

	"github.com/gin-gonic/gin"
)

// Handler serves the caller's session state.
type Handler struct{}

func NewHandler() *Handler { return &Handler{} }

func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	router.GET("/auth/me", authMW, h.me)
}

type meResponse struct {
	Account *identity.AccountResponse `json:"account"`
	Profile *profile.ProfileResponse  `json:"profile"`
}

func (h *Handler) me(c *gin.Context) {
	st := FromContext(c)
	if st == nil || st.Account() == nil {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("No active session."))
		return
	}
	common.RespondOK(c, "Session retrieved successfully", meResponse{
		Account: identity.ToAccountResponse(st.Account()),
		Profile: profile.ToProfileResponse(st.Profile()),
	})
}
