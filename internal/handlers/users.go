package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/models"
	"gorm.io/gorm"
)

// PublicProfile resolves a slug to the public-facing subset of a user's
// data. Email, password hash, and tokens are never included.
func (h *Handler) PublicProfile(ctx *gin.Context) {
	var user models.User

	err := h.DB.Where("public_profile_slug = ?", ctx.Param("slug")).First(&user).Error

	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Failed to fetch public profile: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if err != nil || !user.PublicProfile {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Public profile not found"})
		return
	}

	datasets := make([]gin.H, 0, len(user.SavedDatasets))

	for _, id := range user.SavedDatasets {
		var dataset models.Dataset

		if err := h.DB.First(&dataset, "id = ?", id).Error; err != nil {
			continue
		}

		description, _ := dataset.Fields["description"].(string)

		datasets = append(datasets, gin.H{
			"id":           dataset.ID,
			"dataset_name": dataset.Name,
			"description":  description,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"username":     user.Username,
		"role_title":   user.RoleTitle,
		"organization": user.Organization,
		"bio":          user.Bio,
		"image_url":    user.ImageURL,
		"datasets":     datasets,
	})
}
