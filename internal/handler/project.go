package handler

import (
	"net/http"

	"devdecks-backend/internal/model"
	"devdecks-backend/internal/provider"
	"devdecks-backend/internal/service"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	workspace *service.WorkspaceService
}

func NewProjectHandler(workspace *service.WorkspaceService) *ProjectHandler {
	return &ProjectHandler{workspace: workspace}
}

func (h *ProjectHandler) Register(api *gin.RouterGroup) {
	api.GET("/models", h.ListModels)
	api.GET("/templates", h.ListTemplates)

	projects := api.Group("/projects")
	{
		projects.POST("", h.CreateProject)
		projects.GET("", h.ListProjects)
		projects.GET("/:id", h.GetProject)
		projects.PATCH("/:id", h.UpdateProject)
		projects.DELETE("/:id", h.DeleteProject)
	}
}

func (h *ProjectHandler) ListModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"models": provider.Models(),
		"aspectRatios": gin.H{
			string(provider.KindImage): provider.AspectRatios(provider.KindImage),
			string(provider.KindVideo): provider.AspectRatios(provider.KindVideo),
		},
	})
}

func (h *ProjectHandler) ListTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"templates": model.Templates()})
}

func (h *ProjectHandler) CreateProject(c *gin.Context) {
	var req service.CreateProjectInput
	// An empty body opens the manual builder.
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	project, err := h.workspace.CreateProject(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.workspace.ListProjects(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, err := h.workspace.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	var patch model.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	project, err := h.workspace.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	if err := h.workspace.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}
