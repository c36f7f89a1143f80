package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
	"github.com/planhub-io/planhub/internal/ws"
)

type WsHandler struct {
	hub *ws.Hub
	log *zap.Logger
}

func NewWsHandler(hub *ws.Hub, log *zap.Logger) *WsHandler {
	return &WsHandler{hub: hub, log: log}
}

// Notifications godoc
//
//	@Summary		Notification stream
//	@Description	Websocket stream of broadcast and private notifications for the caller
//	@Tags			user
//	@Security		BearerAuth
//	@Success		101
//	@Router			/ws/notifications [get]
func (h *WsHandler) Notifications(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, serializer.AuthErr("Unauthorized"))
		return
	}

	err := h.hub.Serve(c.Request.Context(), c.Writer, c.Request,
		service.UserChannel(user.Username), service.BroadcastChannel)
	if err != nil {
		// Serve only errors when the upgrade itself fails, and the upgrader
		// has already written the HTTP error response. Once the connection
		// is hijacked there is nothing left to write here.
		h.log.Sugar().Warnw("websocket upgrade failed", "user", user.Username, "err", err)
		c.Abort()
	}
}
