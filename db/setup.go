package db

import (
	"github.com/ledata-dev/ledata/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the postgres-backed gorm handle. Callers own the returned
// handle and inject it into the components that need it.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

func Migrate(database *gorm.DB) error {
	models := []interface{}{
		&models.User{},
		&models.Dataset{},
	}

	migrator := database.Migrator()

	for _, model := range models {
		if !migrator.HasTable(model) {
			if err := database.AutoMigrate(model); err != nil {
				return err
			}
		}
	}

	return nil
}
