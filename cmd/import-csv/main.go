package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/ledata-dev/ledata/db"
	"github.com/ledata-dev/ledata/internal/models"
	"gorm.io/datatypes"
)

// Columns whose cleaned name contains one of these are coerced to numbers;
// values that fail to parse are dropped rather than stored as text.
var numericHints = []string{
	"year", "count", "gb", "episodes", "hours", "size", "frame",
	"duration", "trajectories", "timesteps", "robots", "demos",
}

var headerReplacer = strings.NewReplacer(
	" ", "_",
	"-", "_",
	"/", "_",
	"(", "",
	")", "",
	"?", "",
	"#", "",
)

func cleanHeader(key string) string {
	return strings.ToLower(headerReplacer.Replace(strings.TrimSpace(key)))
}

func convertField(cleanKey string, value string) interface{} {
	value = strings.TrimSpace(value)

	if value == "" {
		return nil
	}

	for _, hint := range numericHints {
		if strings.Contains(cleanKey, hint) {
			if n, err := strconv.ParseInt(value, 10, 64); err == nil {
				return float64(n)
			}
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				return f
			}
			return nil
		}
	}

	return value
}

func main() {
	var path string
	flag.StringVar(&path, "file", "", "path to the CSV file to import")
	flag.Parse()

	if path == "" {
		log.Fatal("-file is required")
	}

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

	file, err := os.Open(path)

	if err != nil {
		log.Fatalf("Failed to open CSV file: %v", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)

	header, err := reader.Read()

	if err != nil {
		log.Fatalf("Failed to read CSV header: %v", err)
	}

	cleaned := make([]string, len(header))

	for i, key := range header {
		cleaned[i] = cleanHeader(key)
	}

	var entries []models.Dataset

	for {
		record, err := reader.Read()

		if err == io.EOF {
			break
		}

		if err != nil {
			log.Printf("Skipping malformed row: %v", err)
			continue
		}

		fields := datatypes.JSONMap{}
		name := ""

		for i, raw := range record {
			if i >= len(cleaned) {
				break
			}

			value := convertField(cleaned[i], raw)

			if value == nil {
				continue
			}

			if cleaned[i] == "dataset_name" {
				if s, ok := value.(string); ok {
					name = s
				}
				continue
			}

			fields[cleaned[i]] = value
		}

		if strings.TrimSpace(name) == "" {
			log.Println("Skipping row without dataset_name")
			continue
		}

		entries = append(entries, models.Dataset{
			ID:     uuid.NewString(),
			Name:   name,
			Fields: fields,
		})
	}

	if len(entries) == 0 {
		log.Println("No valid entries found in CSV")
		return
	}

	if err := database.CreateInBatches(entries, 100).Error; err != nil {
		log.Fatalf("Failed to insert datasets: %v", err)
	}

	log.Printf("Imported %d datasets", len(entries))
}
