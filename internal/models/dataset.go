package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Dataset is a catalog record: a required display name plus an open bag of
// metadata fields keyed by cleaned column names. Field values are limited to
// strings and numbers; CleanFields enforces that at the boundary.
type Dataset struct {
	ID     string            `gorm:"primaryKey"`
	Name   string            `gorm:"column:dataset_name;not null"`
	Fields datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CleanFields validates an incoming field bag down to the closed set of
// value kinds a dataset may carry. Empty and nil values are treated as
// absent; anything that is not a string or a number is rejected.
func CleanFields(in map[string]interface{}) (datatypes.JSONMap, error) {
	out := datatypes.JSONMap{}

	for key, value := range in {
		switch v := value.(type) {
		case nil:
		case string:
			if strings.TrimSpace(v) != "" {
				out[key] = v
			}
		case float64:
			out[key] = v
		default:
			return nil, fmt.Errorf("field %q must be a string or a number", key)
		}
	}

	return out, nil
}
