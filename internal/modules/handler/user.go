package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type UserHandler struct {
	svc      service.UserService
	activity service.ActivityService
}

func NewUserHandler(s service.UserService, a service.ActivityService) *UserHandler {
	return &UserHandler{svc: s, activity: a}
}

// InviteUser godoc
//
//	@Summary		Invite user
//	@Description	Provision an identity-provider account with an invitation mail and mirror it locally
//	@Tags			user
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	service.InviteUserInput	true	"InviteUser payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.User}
//	@Router			/users [post]
func (h *UserHandler) InviteUser(c *gin.Context) {
	req := service.InviteUserInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, err := h.svc.Invite(c.Request.Context(), req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: user})
}

// GetUsers godoc
//
//	@Summary		List users
//	@Tags			user
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.User}
//	@Router			/users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.svc.List(c.Request.Context())
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: users})
}

// GetProfile godoc
//
//	@Summary		Get own profile
//	@Tags			user
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.User}
//	@Router			/users/profile [get]
func (h *UserHandler) GetProfile(c *gin.Context) {
	c.JSON(http.StatusOK, serializer.Response{Data: middleware.CurrentUser(c)})
}

type GetNotificationsReq struct {
	Limit  int    `form:"limit,default=20" json:"limit" binding:"min=1,max=100" example:"20"`
	Cursor string `form:"cursor" json:"cursor"`
}

// GetNotifications godoc
//
//	@Summary		Get notifications
//	@Description	Activity feed over the caller's project memberships, newest first
//	@Tags			user
//	@Produce		json
//	@Param			limit	query	integer	false	"Page size, default 20. Max 100."
//	@Param			cursor	query	string	false	"Cursor from the previous page"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListActivitiesOutput}
//	@Router			/users/notifications [get]
func (h *UserHandler) GetNotifications(c *gin.Context) {
	req := GetNotificationsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	out, err := h.activity.ListForUser(c.Request.Context(), service.ListActivitiesInput{
		UserID: middleware.CurrentUser(c).ID,
		Limit:  req.Limit,
		Cursor: req.Cursor,
	})
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: out})
}

// GetUser godoc
//
//	@Summary		Get user
//	@Tags			user
//	@Produce		json
//	@Param			user_id	path	string	true	"User ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.User}
//	@Router			/users/{user_id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, err := h.svc.GetByID(c.Request.Context(), userID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: user})
}

// UpdateUser godoc
//
//	@Summary		Update user
//	@Description	Update a user in the identity provider and the local mirror
//	@Tags			user
//	@Accept			json
//	@Produce		json
//	@Param			user_id	path	string					true	"User ID"	format(uuid)
//	@Param			payload	body	service.UpdateUserInput	true	"UpdateUser payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.User}
//	@Router			/users/{user_id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := service.UpdateUserInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, err := h.svc.Update(c.Request.Context(), userID, req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: user})
}

// DeleteUser godoc
//
//	@Summary		Delete user
//	@Description	Remove the identity-provider account, then the local mirror
//	@Tags			user
//	@Produce		json
//	@Param			user_id	path	string	true	"User ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/users/{user_id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("user_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), userID); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
