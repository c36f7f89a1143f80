package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type CommentHandler struct {
	svc service.CommentService
}

func NewCommentHandler(s service.CommentService) *CommentHandler {
	return &CommentHandler{svc: s}
}

type CreateCommentReq struct {
	// TaskID is only honored on the body-addressed route; the task-scoped
	// route takes it from the path.
	TaskID  string `form:"task_id" json:"task_id"`
	Content string `form:"content" json:"content" binding:"required"`
}

// CreateComment godoc
//
//	@Summary		Add comment
//	@Description	Add a comment to a task
//	@Tags			comment
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string						true	"Task ID"	format(uuid)
//	@Param			payload	body	handler.CreateCommentReq	true	"CreateComment payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Comment}
//	@Router			/tasks/{task_id}/comments [post]
func (h *CommentHandler) CreateComment(c *gin.Context) {
	req := CreateCommentReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if p := c.Param("task_id"); p != "" {
		req.TaskID = p
	}
	taskID, err := uuid.Parse(req.TaskID)
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	comment, err := h.svc.Create(c.Request.Context(), service.CreateCommentInput{
		Content: req.Content,
		TaskID:  taskID,
		UserID:  middleware.CurrentUser(c).ID,
	})
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: comment})
}

// GetComments godoc
//
//	@Summary		List task comments
//	@Description	List comments on a task, oldest first
//	@Tags			comment
//	@Produce		json
//	@Param			task_id	path	string	true	"Task ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Comment}
//	@Router			/tasks/{task_id}/comments [get]
func (h *CommentHandler) GetComments(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	comments, err := h.svc.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: comments})
}

// GetAllComments godoc
//
//	@Summary		List comments
//	@Description	List all comments, oldest first
//	@Tags			comment
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Comment}
//	@Router			/comments [get]
func (h *CommentHandler) GetAllComments(c *gin.Context) {
	comments, err := h.svc.List(c.Request.Context())
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: comments})
}

// GetComment godoc
//
//	@Summary		Get comment
//	@Tags			comment
//	@Produce		json
//	@Param			comment_id	path	string	true	"Comment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Comment}
//	@Router			/comments/{comment_id} [get]
func (h *CommentHandler) GetComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	comment, err := h.svc.GetByID(c.Request.Context(), commentID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: comment})
}

type UpdateCommentReq struct {
	Content string `form:"content" json:"content" binding:"required"`
}

// UpdateComment godoc
//
//	@Summary		Edit comment
//	@Description	Edit a comment; only the author may edit
//	@Tags			comment
//	@Accept			json
//	@Produce		json
//	@Param			comment_id	path	string						true	"Comment ID"	format(uuid)
//	@Param			payload		body	handler.UpdateCommentReq	true	"UpdateComment payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Comment}
//	@Router			/comments/{comment_id} [put]
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := UpdateCommentReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	comment, err := h.svc.Update(c.Request.Context(), commentID, middleware.CurrentUser(c).ID, req.Content)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: comment})
}

// DeleteComment godoc
//
//	@Summary		Delete comment
//	@Description	Delete a comment; the author or an admin may delete
//	@Tags			comment
//	@Produce		json
//	@Param			comment_id	path	string	true	"Comment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/comments/{comment_id} [delete]
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), commentID, middleware.CurrentUser(c)); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
