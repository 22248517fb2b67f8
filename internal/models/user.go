package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	gorm.Model

	Username     string `gorm:"uniqueIndex;not null"`
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`

	// Profile
	RoleTitle         string
	Organization      string
	GithubURL         string
	LinkedinURL       string
	Bio               string
	ImageURL          string
	PublicProfile     bool
	PublicProfileSlug string `gorm:"index"`

	// Session token. AuthToken set implies TokenExpires set.
	AuthToken    *string `gorm:"index"`
	TokenExpires *time.Time

	// Email verification, a separate token namespace from sessions
	EmailVerified            bool
	EmailVerificationToken   *string `gorm:"index"`
	EmailVerificationExpires *time.Time

	// Per-user collections, embedded on the user document itself
	Projects      []Project `gorm:"serializer:json;type:jsonb"`
	SavedDatasets []string  `gorm:"serializer:json;type:jsonb"`
	Submitted     []string  `gorm:"serializer:json;type:jsonb"`
}
