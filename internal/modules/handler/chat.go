package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type ChatHandler struct {
	svc service.ChatService
}

func NewChatHandler(s service.ChatService) *ChatHandler {
	return &ChatHandler{svc: s}
}

type CreateChatSessionReq struct {
	Name    string                 `form:"name" json:"name"`
	Configs map[string]interface{} `form:"configs" json:"configs"`
}

// CreateSession godoc
//
//	@Summary		Create chat session
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	handler.CreateChatSessionReq	true	"CreateSession payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.ChatSession}
//	@Router			/chat/sessions [post]
func (h *ChatHandler) CreateSession(c *gin.Context) {
	req := CreateChatSessionReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	sess, err := h.svc.CreateSession(c.Request.Context(), middleware.CurrentUser(c), req.Name, req.Configs)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: sess})
}

// GetSessions godoc
//
//	@Summary		List chat sessions
//	@Description	List the caller's chat sessions, most recently active first
//	@Tags			chat
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.ChatSession}
//	@Router			/chat/sessions [get]
func (h *ChatHandler) GetSessions(c *gin.Context) {
	sessions, err := h.svc.ListSessions(c.Request.Context(), middleware.CurrentUser(c))
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: sessions})
}

// GetSession godoc
//
//	@Summary		Get chat session
//	@Description	Get a chat session with its transcript, oldest message first
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.ChatSession}
//	@Router			/chat/sessions/{session_id} [get]
func (h *ChatHandler) GetSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	sess, err := h.svc.GetSession(c.Request.Context(), middleware.CurrentUser(c), sessionID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: sess})
}

// DeleteSession godoc
//
//	@Summary		Delete chat session
//	@Tags			chat
//	@Produce		json
//	@Param			session_id	path	string	true	"Session ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/chat/sessions/{session_id} [delete]
func (h *ChatHandler) DeleteSession(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.DeleteSession(c.Request.Context(), middleware.CurrentUser(c), sessionID); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}

type SendMessageReq struct {
	// SessionID is only honored on the sessionless route; empty starts a
	// fresh session.
	SessionID string `form:"session_id" json:"session_id"`
	Content   string `form:"content" json:"content" binding:"required"`
}

// SendMessage godoc
//
//	@Summary		Send chat message
//	@Description	Append a user message, generate the assistant reply and return it
//	@Tags			chat
//	@Accept			json
//	@Produce		json
//	@Param			session_id	path	string					true	"Session ID"	format(uuid)
//	@Param			payload		body	handler.SendMessageReq	true	"SendMessage payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.ChatMessage}
//	@Router			/chat/sessions/{session_id}/messages [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	req := SendMessageReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if p := c.Param("session_id"); p != "" {
		req.SessionID = p
	}
	sessionID := uuid.Nil
	if req.SessionID != "" {
		var err error
		if sessionID, err = uuid.Parse(req.SessionID); err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
			return
		}
	}

	msg, err := h.svc.SendMessage(c.Request.Context(), middleware.CurrentUser(c), sessionID, req.Content)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: msg})
}
