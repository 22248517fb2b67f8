package handlers

import (
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/models"
	"github.com/ledata-dev/ledata/internal/utils"
	"gorm.io/gorm"
)

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// projectsWithDatasets renders the caller's project list with each stored
// dataset reference resolved to its display name. Dangling references are
// skipped.
func (h *Handler) projectsWithDatasets(user *models.User) []gin.H {
	out := make([]gin.H, 0, len(user.Projects))

	for _, project := range user.Projects {
		ids := project.DatasetIDs

		if ids == nil {
			ids = []string{}
		}

		resolved := make([]gin.H, 0, len(ids))

		for _, id := range ids {
			var dataset models.Dataset

			if err := h.DB.First(&dataset, "id = ?", id).Error; err != nil {
				continue
			}

			resolved = append(resolved, gin.H{"id": dataset.ID, "dataset_name": dataset.Name})
		}

		out = append(out, gin.H{
			"id":          project.ID,
			"name":        project.Name,
			"description": project.Description,
			"dataset_ids": ids,
			"datasets":    resolved,
		})
	}

	return out
}

func (h *Handler) ListProjects(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"projects": h.projectsWithDatasets(user)})
}

// CreateProject appends a project with a fresh locally-unique id to the
// caller's list.
func (h *Handler) CreateProject(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req CreateProjectRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name := strings.TrimSpace(req.Name)

	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Project name required"})
		return
	}

	project := models.Project{
		ID:          utils.RandomID(8),
		Name:        name,
		Description: req.Description,
		DatasetIDs:  []string{},
	}

	user.Projects = append(user.Projects, project)

	if err := h.DB.Save(user).Error; err != nil {
		log.Printf("Failed to create project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"project": project})
}

func (h *Handler) removeProject(ctx *gin.Context, user *models.User, projectID string) {
	index := -1

	for i, project := range user.Projects {
		if project.ID == projectID {
			index = i
			break
		}
	}

	if index == -1 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	user.Projects = append(user.Projects[:index], user.Projects[index+1:]...)

	if err := h.DB.Save(user).Error; err != nil {
		log.Printf("Failed to delete project: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete project"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"deleted":    true,
		"project_id": projectID,
		"projects":   h.projectsWithDatasets(user),
	})
}

// DeleteProject removes a project matched by id within the caller's own
// list only; colliding ids on other users are unaffected.
func (h *Handler) DeleteProject(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	h.removeProject(ctx, user, ctx.Param("id"))
}

// DeleteProjectByQuery supports clients that call DELETE /api/projects with
// the project id in the query string or the JSON body.
func (h *Handler) DeleteProjectByQuery(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	projectID := ctx.Query("project_id")

	if projectID == "" {
		var body struct {
			ProjectID string `json:"project_id"`
		}

		if err := ctx.ShouldBindJSON(&body); err == nil {
			projectID = body.ProjectID
		}
	}

	if projectID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "project_id required. Use DELETE /api/projects/{project_id} or provide project_id as query param or JSON body"})
		return
	}

	h.removeProject(ctx, user, projectID)
}

// AddDatasetToProject appends a resolvable dataset reference to one of the
// caller's projects, de-duplicating by id.
func (h *Handler) AddDatasetToProject(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req struct {
		DatasetID string `json:"dataset_id"`
	}

	if err := ctx.BindJSON(&req); err != nil || req.DatasetID == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "dataset_id required"})
		return
	}

	var dataset models.Dataset

	if err := h.DB.First(&dataset, "id = ?", req.DatasetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		} else {
			log.Printf("Failed to fetch dataset: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		}
		return
	}

	index := -1

	for i, project := range user.Projects {
		if project.ID == ctx.Param("id") {
			index = i
			break
		}
	}

	if index == -1 {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
		return
	}

	project := &user.Projects[index]

	if !slices.Contains(project.DatasetIDs, dataset.ID) {
		project.DatasetIDs = append(project.DatasetIDs, dataset.ID)

		if err := h.DB.Save(user).Error; err != nil {
			log.Printf("Failed to add dataset to project: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"added":    true,
		"project":  user.Projects[index],
		"projects": h.projectsWithDatasets(user),
	})
}
