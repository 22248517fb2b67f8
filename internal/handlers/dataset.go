package handlers

import (
	"errors"
	"log"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/ledata-dev/ledata/internal/auth"
	"github.com/ledata-dev/ledata/internal/models"
	"github.com/ledata-dev/ledata/internal/utils"
	"gorm.io/gorm"
)

func datasetJSON(dataset *models.Dataset) gin.H {
	out := gin.H{
		"id":           dataset.ID,
		"dataset_name": dataset.Name,
	}

	for key, value := range dataset.Fields {
		out[key] = value
	}

	return out
}

// CreateDataset stores a new catalog record and appends it to the caller's
// submitted list. The submitted entry is a denormalized index: failure to
// record it must never undo the dataset itself.
func (h *Handler) CreateDataset(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var body map[string]interface{}

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name, _ := body["dataset_name"].(string)
	name = strings.TrimSpace(name)

	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "dataset_name is a required field and cannot be empty"})
		return
	}

	delete(body, "dataset_name")

	fields, err := models.CleanFields(body)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset := models.Dataset{
		ID:     uuid.NewString(),
		Name:   name,
		Fields: fields,
	}

	if err := h.DB.Create(&dataset).Error; err != nil {
		log.Printf("Failed to create dataset: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create dataset"})
		return
	}

	user.Submitted = append(user.Submitted, dataset.ID)

	if err := h.DB.Save(user).Error; err != nil {
		log.Printf("Failed to record submitted dataset %s for user %d: %v", dataset.ID, user.ID, err)
	}

	ctx.JSON(http.StatusCreated, datasetJSON(&dataset))
}

func (h *Handler) ListDatasets(ctx *gin.Context) {
	var datasets []models.Dataset

	if err := h.DB.Find(&datasets).Error; err != nil {
		log.Printf("Failed to list datasets: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve datasets"})
		return
	}

	response := make([]gin.H, 0, len(datasets))

	for i := range datasets {
		response = append(response, datasetJSON(&datasets[i]))
	}

	ctx.JSON(http.StatusOK, response)
}

func (h *Handler) GetDataset(ctx *gin.Context) {
	var dataset models.Dataset

	if err := h.DB.First(&dataset, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		} else {
			log.Printf("Failed to fetch dataset: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		}
		return
	}

	ctx.JSON(http.StatusOK, datasetJSON(&dataset))
}

func (h *Handler) UpdateDataset(ctx *gin.Context) {
	var dataset models.Dataset

	if err := h.DB.First(&dataset, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		} else {
			log.Printf("Failed to fetch dataset: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		}
		return
	}

	var body map[string]interface{}

	if err := ctx.BindJSON(&body); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	name, _ := body["dataset_name"].(string)
	name = strings.TrimSpace(name)

	if name == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "dataset_name is a required field and cannot be empty"})
		return
	}

	delete(body, "dataset_name")

	fields, err := models.CleanFields(body)

	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset.Name = name
	dataset.Fields = fields

	if err := h.DB.Save(&dataset).Error; err != nil {
		log.Printf("Failed to update dataset: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update dataset"})
		return
	}

	ctx.JSON(http.StatusOK, datasetJSON(&dataset))
}

// DeleteDataset removes the record and cleans it out of the deleting user's
// own saved list. Other users' saved lists and projects are left alone;
// readers skip references that no longer resolve.
func (h *Handler) DeleteDataset(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var dataset models.Dataset

	if err := h.DB.First(&dataset, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		} else {
			log.Printf("Failed to fetch dataset: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		}
		return
	}

	if err := h.DB.Delete(&dataset).Error; err != nil {
		log.Printf("Failed to delete dataset: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete dataset"})
		return
	}

	removed := false

	if slices.Contains(user.SavedDatasets, dataset.ID) {
		user.SavedDatasets = slices.DeleteFunc(user.SavedDatasets, func(id string) bool {
			return id == dataset.ID
		})

		if err := h.DB.Save(user).Error; err != nil {
			log.Printf("Failed to clean saved list for user %d: %v", user.ID, err)
		} else {
			removed = true
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Deleted", "removed_from_saved": removed})
}

// SaveDataset is an idempotent membership add on the caller's saved list.
func (h *Handler) SaveDataset(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var dataset models.Dataset

	if err := h.DB.First(&dataset, "id = ?", ctx.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Dataset not found"})
		} else {
			log.Printf("Failed to fetch dataset: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve dataset"})
		}
		return
	}

	if !slices.Contains(user.SavedDatasets, dataset.ID) {
		user.SavedDatasets = append(user.SavedDatasets, dataset.ID)

		if err := h.DB.Save(user).Error; err != nil {
			log.Printf("Failed to save dataset for user %d: %v", user.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{"saved": true})
}

// UnsaveDataset removes the reference if present and reports whether a
// removal actually happened.
func (h *Handler) UnsaveDataset(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	datasetID := ctx.Param("id")
	removed := false

	if slices.Contains(user.SavedDatasets, datasetID) {
		user.SavedDatasets = slices.DeleteFunc(user.SavedDatasets, func(id string) bool {
			return id == datasetID
		})

		if err := h.DB.Save(user).Error; err != nil {
			log.Printf("Failed to unsave dataset for user %d: %v", user.ID, err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		removed = true
	}

	ctx.JSON(http.StatusOK, gin.H{"unsaved": removed})
}

// resolveDatasets maps stored references to full records, silently skipping
// any that no longer resolve.
func (h *Handler) resolveDatasets(ids []string) []gin.H {
	out := make([]gin.H, 0, len(ids))

	for _, id := range ids {
		var dataset models.Dataset

		if err := h.DB.First(&dataset, "id = ?", id).Error; err != nil {
			continue
		}

		out = append(out, datasetJSON(&dataset))
	}

	return out
}

func (h *Handler) SavedDatasets(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, h.resolveDatasets(user.SavedDatasets))
}

func (h *Handler) SubmittedDatasets(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, h.resolveDatasets(user.Submitted))
}

// SearchDatasets accepts the session token either as a bearer header or
// under the reserved "token" key in the body, which is stripped before the
// rest of the body is used as search parameters. Matching records come
// first; every other dataset is appended after them.
func (h *Handler) SearchDatasets(ctx *gin.Context) {
	token := auth.BearerToken(ctx.GetHeader("Authorization"))

	var params map[string]interface{}

	if err := ctx.ShouldBindJSON(&params); err != nil || params == nil {
		params = map[string]interface{}{}
	}

	if token == "" {
		if bodyToken, ok := params["token"].(string); ok {
			token = bodyToken
			delete(params, "token")
		}
	}

	if token == "" {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication token required"})
		return
	}

	if _, err := auth.ResolveSession(h.DB, token); err != nil {
		switch {
		case errors.Is(err, auth.ErrTokenExpired):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
		case errors.Is(err, auth.ErrInvalidToken):
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		default:
			log.Printf("Failed to resolve session: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	var datasets []models.Dataset

	if err := h.DB.Find(&datasets).Error; err != nil {
		log.Printf("Failed to list datasets: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve datasets"})
		return
	}

	relevant := make([]gin.H, 0)
	others := make([]gin.H, 0)

	for i := range datasets {
		if matchesParams(&datasets[i], params) {
			relevant = append(relevant, datasetJSON(&datasets[i]))
		} else {
			others = append(others, datasetJSON(&datasets[i]))
		}
	}

	ctx.JSON(http.StatusOK, append(relevant, others...))
}

// matchesParams applies case-insensitive substring matching for string
// parameters and equality for numeric ones. Empty strings and unsupported
// value kinds are ignored, mirroring how callers pass whole search forms.
func matchesParams(dataset *models.Dataset, params map[string]interface{}) bool {
	for key, value := range params {
		switch v := value.(type) {
		case string:
			if strings.TrimSpace(v) == "" {
				continue
			}

			var field string

			if key == "dataset_name" {
				field = dataset.Name
			} else {
				raw, ok := dataset.Fields[key]
				if !ok {
					return false
				}
				field, ok = raw.(string)
				if !ok {
					return false
				}
			}

			if !strings.Contains(strings.ToLower(field), strings.ToLower(v)) {
				return false
			}
		case float64:
			raw, ok := dataset.Fields[key]
			if !ok {
				return false
			}

			num, ok := raw.(float64)
			if !ok || num != v {
				return false
			}
		}
	}

	return true
}
