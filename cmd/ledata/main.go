package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/ledata-dev/ledata/db"
	"github.com/ledata-dev/ledata/internal/handlers"
	"github.com/ledata-dev/ledata/internal/router"
	"github.com/ledata-dev/ledata/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	dsn := os.Getenv("DATABASE_URL")

	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable is not set")
	}

	database, err := db.Connect(dsn)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	h := &handlers.Handler{
		DB:      database,
		Mailer:  services.NewMailerFromEnv(),
		Captcha: services.NewCaptchaVerifierFromEnv(),
	}

	r := router.NewRouter(database, h)

	var port string

	if port = os.Getenv("PORT"); port == "" {
		port = "8000"
		log.Println("PORT not set, defaulting to 8000")
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
