package models

// Project is owned by exactly one user and lives inside the owner's
// Projects list. Its ID is unique within that list only, not globally.
type Project struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	DatasetIDs  []string `json:"dataset_ids"`
}
