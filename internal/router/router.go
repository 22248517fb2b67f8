package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/handlers"
	"github.com/ledata-dev/ledata/internal/middleware"
	"github.com/ledata-dev/ledata/internal/types"
	"gorm.io/gorm"
)

func NewRouter(db *gorm.DB, h *handlers.Handler) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     types.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	authRequired := middleware.AuthMiddleware(db)

	api := r.Group("/api")
	{
		api.GET("/health", handlers.HealthCheck)

		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Signup)
			auth.GET("/verify-email", h.VerifyEmail)
			auth.GET("/poll-verification", h.PollVerification)
			auth.POST("/login", h.Login)
			auth.POST("/logout", h.Logout)
			auth.POST("/forgot-password", h.ForgotPassword)
			auth.GET("/check-slug/:slug", h.CheckSlug)
			auth.GET("/me", authRequired, h.Me)
			auth.PUT("/profile", authRequired, h.UpdateProfile)
			auth.POST("/reset-password", authRequired, h.ResetPassword)
			auth.DELETE("/delete", authRequired, h.DeleteAccount)
		}

		api.GET("/users/public/:slug", h.PublicProfile)

		datasets := api.Group("/datasets")
		{
			datasets.GET("", h.ListDatasets)
			datasets.POST("", authRequired, h.CreateDataset)
			// search manages its own token extraction: the token may travel
			// in the request body instead of the Authorization header
			datasets.POST("/search", h.SearchDatasets)
			datasets.GET("/saved", authRequired, h.SavedDatasets)
			datasets.GET("/submitted", authRequired, h.SubmittedDatasets)
			datasets.GET("/:id", h.GetDataset)
			datasets.PUT("/:id", h.UpdateDataset)
			datasets.DELETE("/:id", authRequired, h.DeleteDataset)
			datasets.POST("/:id/save", authRequired, h.SaveDataset)
			datasets.DELETE("/:id/unsave", authRequired, h.UnsaveDataset)
		}

		projects := api.Group("/projects", authRequired)
		{
			projects.GET("", h.ListProjects)
			projects.POST("", h.CreateProject)
			projects.DELETE("", h.DeleteProjectByQuery)
			projects.DELETE("/:id", h.DeleteProject)
			projects.POST("/:id/add-dataset", h.AddDatasetToProject)
		}
	}

	return r
}
