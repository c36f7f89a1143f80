package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type AttachmentHandler struct {
	svc service.AttachmentService
}

func NewAttachmentHandler(s service.AttachmentService) *AttachmentHandler {
	return &AttachmentHandler{svc: s}
}

type UploadAttachmentReq struct {
	TaskID    string `form:"task_id" json:"task_id" format:"uuid"`
	CommentID string `form:"comment_id" json:"comment_id" format:"uuid"`
}

// UploadAttachment godoc
//
//	@Summary		Upload attachment
//	@Description	Upload a file attached to exactly one of a task or a comment
//	@Tags			attachment
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			file		formData	file	true	"File to upload"
//	@Param			task_id		formData	string	false	"Task ID"		format(uuid)
//	@Param			comment_id	formData	string	false	"Comment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Attachment}
//	@Router			/attachments [post]
func (h *AttachmentHandler) UploadAttachment(c *gin.Context) {
	req := UploadAttachmentReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("file is required", err))
		return
	}

	in := service.UploadAttachmentInput{
		File:         fh,
		UploadedByID: middleware.CurrentUser(c).ID,
	}
	if req.TaskID != "" {
		taskID, err := uuid.Parse(req.TaskID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid task_id", err))
			return
		}
		in.TaskID = &taskID
	}
	if req.CommentID != "" {
		commentID, err := uuid.Parse(req.CommentID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid comment_id", err))
			return
		}
		in.CommentID = &commentID
	}

	attachment, err := h.svc.Upload(c.Request.Context(), in)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: attachment})
}

// GetTaskAttachments godoc
//
//	@Summary		List task attachments
//	@Tags			attachment
//	@Produce		json
//	@Param			task_id	path	string	true	"Task ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Attachment}
//	@Router			/tasks/{task_id}/attachments [get]
func (h *AttachmentHandler) GetTaskAttachments(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	attachments, err := h.svc.ListByTask(c.Request.Context(), taskID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: attachments})
}

// GetCommentAttachments godoc
//
//	@Summary		List comment attachments
//	@Tags			attachment
//	@Produce		json
//	@Param			comment_id	path	string	true	"Comment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Attachment}
//	@Router			/comments/{comment_id}/attachments [get]
func (h *AttachmentHandler) GetCommentAttachments(c *gin.Context) {
	commentID, err := uuid.Parse(c.Param("comment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	attachments, err := h.svc.ListByComment(c.Request.Context(), commentID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: attachments})
}

// GetAttachment godoc
//
//	@Summary		Get attachment
//	@Tags			attachment
//	@Produce		json
//	@Param			attachment_id	path	string	true	"Attachment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Attachment}
//	@Router			/attachments/{attachment_id} [get]
func (h *AttachmentHandler) GetAttachment(c *gin.Context) {
	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	a, err := h.svc.GetByID(c.Request.Context(), attachmentID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: a})
}

type DownloadURLResp struct {
	URL string `json:"url"`
}

// DownloadAttachment godoc
//
//	@Summary		Download attachment
//	@Description	Return a short-lived pre-signed URL for direct download
//	@Tags			attachment
//	@Produce		json
//	@Param			attachment_id	path	string	true	"Attachment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.DownloadURLResp}
//	@Router			/attachments/{attachment_id}/download [get]
func (h *AttachmentHandler) DownloadAttachment(c *gin.Context) {
	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	url, err := h.svc.DownloadURL(c.Request.Context(), attachmentID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: DownloadURLResp{URL: url}})
}

// DeleteAttachment godoc
//
//	@Summary		Delete attachment
//	@Description	Delete an attachment; the uploader or an admin may delete
//	@Tags			attachment
//	@Produce		json
//	@Param			attachment_id	path	string	true	"Attachment ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/attachments/{attachment_id} [delete]
func (h *AttachmentHandler) DeleteAttachment(c *gin.Context) {
	attachmentID, err := uuid.Parse(c.Param("attachment_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), attachmentID, middleware.CurrentUser(c)); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
