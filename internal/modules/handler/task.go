package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(s service.TaskService) *TaskHandler {
	return &TaskHandler{svc: s}
}

// CreateTask godoc
//
//	@Summary		Create task
//	@Description	Create a new task in a project; status always starts at todo
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	service.CreateTaskInput	true	"CreateTask payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Task}
//	@Router			/tasks [post]
func (h *TaskHandler) CreateTask(c *gin.Context) {
	req := service.CreateTaskInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req.CreatedByID = middleware.CurrentUser(c).ID

	task, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: task})
}

type GetTasksReq struct {
	Status    string `form:"status" json:"status" example:"in-progress"`
	ProjectID string `form:"project_id" json:"project_id" format:"uuid"`
}

// GetTasks godoc
//
//	@Summary		List tasks
//	@Description	List tasks, optionally filtered by status or project
//	@Tags			task
//	@Produce		json
//	@Param			status		query	string	false	"Filter by status"
//	@Param			project_id	query	string	false	"Filter by project"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Task}
//	@Router			/tasks [get]
func (h *TaskHandler) GetTasks(c *gin.Context) {
	req := GetTasksReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	ctx := c.Request.Context()
	switch {
	case req.ProjectID != "":
		projectID, err := uuid.Parse(req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project_id", err))
			return
		}
		tasks, err := h.svc.ListByProject(ctx, projectID)
		if err != nil {
			res := serializer.FromErr(err)
			c.JSON(res.Code, res)
			return
		}
		c.JSON(http.StatusOK, serializer.Response{Data: tasks})
	case req.Status != "":
		tasks, err := h.svc.ListByStatus(ctx, req.Status)
		if err != nil {
			res := serializer.FromErr(err)
			c.JSON(res.Code, res)
			return
		}
		c.JSON(http.StatusOK, serializer.Response{Data: tasks})
	default:
		tasks, err := h.svc.List(ctx)
		if err != nil {
			res := serializer.FromErr(err)
			c.JSON(res.Code, res)
			return
		}
		c.JSON(http.StatusOK, serializer.Response{Data: tasks})
	}
}

// GetTask godoc
//
//	@Summary		Get task
//	@Tags			task
//	@Produce		json
//	@Param			task_id	path	string	true	"Task ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/tasks/{task_id} [get]
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	task, err := h.svc.GetByID(c.Request.Context(), taskID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

// UpdateTask godoc
//
//	@Summary		Update task
//	@Description	Partially update a task; absent fields keep their value
//	@Tags			task
//	@Accept			json
//	@Produce		json
//	@Param			task_id	path	string					true	"Task ID"	format(uuid)
//	@Param			payload	body	service.UpdateTaskInput	true	"UpdateTask payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Task}
//	@Router			/tasks/{task_id} [put]
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := service.UpdateTaskInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	task, err := h.svc.Update(c.Request.Context(), taskID, req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: task})
}

// DeleteTask godoc
//
//	@Summary		Delete task
//	@Tags			task
//	@Produce		json
//	@Param			task_id	path	string	true	"Task ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/tasks/{task_id} [delete]
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	taskID, err := uuid.Parse(c.Param("task_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), taskID); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
