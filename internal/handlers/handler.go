package handlers

import (
	"github.com/ledata-dev/ledata/internal/services"
	"gorm.io/gorm"
)

// Handler carries the collaborators every endpoint needs. It is constructed
// once at startup and injected into the router.
type Handler struct {
	DB      *gorm.DB
	Mailer  *services.Mailer
	Captcha *services.CaptchaVerifier
}
