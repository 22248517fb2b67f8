package auth

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/ledata-dev/ledata/internal/models"
	"gorm.io/gorm"
)

const (
	// SessionTTL is how long a session token stays valid after issue.
	// Validation never extends it.
	SessionTTL = 30 * time.Minute

	// VerificationTTL bounds the email verification window opened at signup.
	VerificationTTL = 24 * time.Hour
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// NewSessionToken returns an opaque 256-bit token, hex encoded.
func NewSessionToken() (string, error) {
	buf := make([]byte, 32)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return hex.EncodeToString(buf), nil
}

// NewVerificationToken returns a URL-safe 256-bit token for email
// verification links.
func NewVerificationToken() (string, error) {
	buf := make([]byte, 32)

	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// IssueSession stores a fresh session token on the user and persists any
// other pending changes on the record. It returns the token and its absolute
// expiry.
func IssueSession(db *gorm.DB, user *models.User) (string, time.Time, error) {
	token, err := NewSessionToken()

	if err != nil {
		return "", time.Time{}, err
	}

	expires := time.Now().UTC().Add(SessionTTL)
	user.AuthToken = &token
	user.TokenExpires = &expires

	if err := db.Save(user).Error; err != nil {
		return "", time.Time{}, err
	}

	return token, expires, nil
}

// ResolveSession looks up the user owning the presented token. An expired
// token is cleared server-side before ErrTokenExpired is reported, so any
// later attempt with the same value fails with ErrInvalidToken.
func ResolveSession(db *gorm.DB, token string) (*models.User, error) {
	var user models.User

	if err := db.Where("auth_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if user.TokenExpires != nil && user.TokenExpires.Before(time.Now().UTC()) {
		user.AuthToken = nil
		user.TokenExpires = nil

		if err := db.Save(&user).Error; err != nil {
			return nil, err
		}

		return nil, ErrTokenExpired
	}

	return &user, nil
}

// RevokeSession clears the session unconditionally; safe to call twice.
func RevokeSession(db *gorm.DB, user *models.User) error {
	user.AuthToken = nil
	user.TokenExpires = nil

	return db.Save(user).Error
}

// BearerToken extracts the token from an Authorization header value. The
// scheme keyword is matched case-insensitively; an empty result means no
// usable bearer credential was presented.
func BearerToken(header string) string {
	parts := strings.SplitN(header, " ", 2)

	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
