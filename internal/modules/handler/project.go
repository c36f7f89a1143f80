package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/planhub-io/planhub/internal/middleware"
	"github.com/planhub-io/planhub/internal/modules/serializer"
	"github.com/planhub-io/planhub/internal/modules/service"
)

type ProjectHandler struct {
	svc      service.ProjectService
	analysis service.AnalysisService
}

func NewProjectHandler(s service.ProjectService, a service.AnalysisService) *ProjectHandler {
	return &ProjectHandler{svc: s, analysis: a}
}

// CreateProject godoc
//
//	@Summary		Create project
//	@Description	Create a new project with an optional initial member set
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			payload	body	service.CreateProjectInput	true	"CreateProject payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.Project}
//	@Router			/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	req := service.CreateProjectInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	req.CreatedByID = middleware.CurrentUser(c).ID

	project, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: project})
}

// GetProjects godoc
//
//	@Summary		List projects
//	@Tags			project
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.Project}
//	@Router			/projects [get]
func (h *ProjectHandler) GetProjects(c *gin.Context) {
	projects, err := h.svc.List(c.Request.Context())
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: projects})
}

// GetProject godoc
//
//	@Summary		Get project
//	@Description	Get a project by id, members included
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Router			/projects/{project_id} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	project, err := h.svc.GetByID(c.Request.Context(), projectID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: project})
}

// UpdateProject godoc
//
//	@Summary		Update project
//	@Description	Partially update a project; member_ids replaces the membership set wholesale
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string						true	"Project ID"	format(uuid)
//	@Param			payload		body	service.UpdateProjectInput	true	"UpdateProject payload"
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Project}
//	@Router			/projects/{project_id} [put]
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := service.UpdateProjectInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	project, err := h.svc.Update(c.Request.Context(), projectID, req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: project})
}

// GetMembers godoc
//
//	@Summary		List project members
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]model.User}
//	@Router			/projects/{project_id}/members [get]
func (h *ProjectHandler) GetMembers(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	members, err := h.svc.ListMembers(c.Request.Context(), projectID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: members})
}

// InviteMember godoc
//
//	@Summary		Invite project member
//	@Description	Provision an identity-provider account and add it to the project
//	@Tags			project
//	@Accept			json
//	@Produce		json
//	@Param			project_id	path	string						true	"Project ID"	format(uuid)
//	@Param			payload		body	service.InviteMemberInput	true	"InviteMember payload"
//	@Security		BearerAuth
//	@Success		201	{object}	serializer.Response{data=model.User}
//	@Router			/projects/{project_id}/members [post]
func (h *ProjectHandler) InviteMember(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	req := service.InviteMemberInput{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	user, err := h.svc.InviteMember(c.Request.Context(), projectID, req)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusCreated, serializer.Response{Data: user})
}

// AnalyzeProject godoc
//
//	@Summary		Analyze project
//	@Description	Infer task dependencies, risk scores and the critical path for a project's tasks
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.TaskInsight}
//	@Router			/projects/{project_id}/analyze [post]
func (h *ProjectHandler) AnalyzeProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	insights, err := h.analysis.AnalyzeProject(c.Request.Context(), projectID)
	if err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{Data: insights})
}

// DeleteProject godoc
//
//	@Summary		Delete project
//	@Description	Delete a project and everything under it
//	@Tags			project
//	@Produce		json
//	@Param			project_id	path	string	true	"Project ID"	format(uuid)
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{}
//	@Router			/projects/{project_id} [delete]
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("project_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	if err := h.svc.Delete(c.Request.Context(), projectID); err != nil {
		res := serializer.FromErr(err)
		c.JSON(res.Code, res)
		return
	}
	c.JSON(http.StatusOK, serializer.Response{})
}
