package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ledata-dev/ledata/internal/auth"
	"github.com/ledata-dev/ledata/internal/models"
	"github.com/ledata-dev/ledata/internal/slug"
	"github.com/ledata-dev/ledata/internal/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type SignupRequest struct {
	Username       string `json:"username" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	RecaptchaToken string `json:"recaptcha_token"`
}

type LoginRequest struct {
	EmailOrUsername string `json:"email_or_username" binding:"required"`
	Password        string `json:"password" binding:"required"`
	RecaptchaToken  string `json:"recaptcha_token"`
}

type ProfileUpdateRequest struct {
	RoleTitle         *string `json:"role_title"`
	Organization      *string `json:"organization"`
	GithubURL         *string `json:"github_url"`
	LinkedinURL       *string `json:"linkedin_url"`
	Bio               *string `json:"bio"`
	ImageURL          *string `json:"image_url"`
	PublicProfile     *bool   `json:"public_profile"`
	PublicProfileSlug *string `json:"public_profile_slug"`
	Username          *string `json:"username"`
	Email             *string `json:"email"`
}

type ForgotPasswordRequest struct {
	Email          string `json:"email" binding:"required,email"`
	RecaptchaToken string `json:"recaptcha_token"`
}

func profileResponse(user *models.User) gin.H {
	projects := user.Projects

	if projects == nil {
		projects = []models.Project{}
	}

	return gin.H{
		"id":                  user.ID,
		"username":            user.Username,
		"email":               user.Email,
		"role_title":          user.RoleTitle,
		"organization":        user.Organization,
		"github_url":          user.GithubURL,
		"linkedin_url":        user.LinkedinURL,
		"bio":                 user.Bio,
		"image_url":           user.ImageURL,
		"public_profile":      user.PublicProfile,
		"public_profile_slug": user.PublicProfileSlug,
		"projects":            projects,
	}
}

// Signup creates an unverified account and opens a 24-hour email
// verification window. No session token is issued here; the first session
// comes from verification (or a later login). Delivery problems are logged
// and swallowed so infrastructure errors never leak to the client.
func (h *Handler) Signup(ctx *gin.Context) {
	var req SignupRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.Captcha.Verify(req.RecaptchaToken, "SIGNUP") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "recaptcha verification failed"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)

	var existingUser models.User

	err := h.DB.Where("email = ? OR username = ?", req.Email, req.Username).First(&existingUser).Error

	if err == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "User with given email or username already exists"})
		return
	}

	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking existing user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)

	if err != nil {
		log.Printf("Failed to hash password: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	verificationToken, err := auth.NewVerificationToken()

	if err != nil {
		log.Printf("Failed to generate verification token: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	verificationExpires := time.Now().UTC().Add(auth.VerificationTTL)

	newUser := models.User{
		Username:                 req.Username,
		Email:                    req.Email,
		PasswordHash:             string(passwordHash),
		EmailVerificationToken:   &verificationToken,
		EmailVerificationExpires: &verificationExpires,
	}

	if err := h.DB.Create(&newUser).Error; err != nil {
		log.Printf("Failed to create user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := h.Mailer.SendVerificationEmail(newUser.Email, newUser.Username, verificationToken); err != nil {
		log.Printf("Failed to send verification email to %s: %v", newUser.Email, err)
	}

	ctx.JSON(http.StatusOK, gin.H{
		"id":                newUser.ID,
		"username":          newUser.Username,
		"email":             newUser.Email,
		"verification_sent": true,
	})
}

// VerifyEmail consumes a single-use verification token and issues the first
// session. An expired token is left in place and reported as such.
func (h *Handler) VerifyEmail(ctx *gin.Context) {
	token := ctx.Query("token")

	var user models.User

	if err := h.DB.Where("email_verification_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Verification token not found"})
		} else {
			log.Printf("Database error when fetching verification token: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if user.EmailVerificationExpires == nil || user.EmailVerificationExpires.Before(time.Now().UTC()) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Verification token expired"})
		return
	}

	user.EmailVerified = true
	user.EmailVerificationToken = nil
	user.EmailVerificationExpires = nil

	sessionToken, expires, err := auth.IssueSession(h.DB, &user)

	if err != nil {
		log.Printf("Failed to issue session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"verified":      true,
		"token":         sessionToken,
		"token_expires": expires.Format(time.RFC3339),
	})
}

// PollVerification is an unauthenticated status check used by the signup
// flow while the user opens the verification link in another tab. It exposes
// the current session token on purpose; it is a convenience endpoint, not a
// security boundary.
func (h *Handler) PollVerification(ctx *gin.Context) {
	email := ctx.Query("email")

	var user models.User

	if err := h.DB.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			log.Printf("Database error when polling verification: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"email_verified": user.EmailVerified,
		"token":          user.AuthToken,
	})
}

// Login issues a fresh 30-minute session for a matching email or username.
// Email verification is not re-checked here; signup only withholds the
// initial token.
func (h *Handler) Login(ctx *gin.Context) {
	var req LoginRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	var user models.User

	err := h.DB.Where("email = ? OR username = ?", req.EmailOrUsername, req.EmailOrUsername).First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		log.Printf("Database error when fetching user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !h.Captcha.Verify(req.RecaptchaToken, "LOGIN") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "recaptcha verification failed"})
		return
	}

	token, expires, err := auth.IssueSession(h.DB, &user)

	if err != nil {
		log.Printf("Failed to issue session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	response := profileResponse(&user)
	response["token"] = token
	response["token_expires"] = expires.Format(time.RFC3339)

	ctx.JSON(http.StatusOK, response)
}

// Logout revokes the session named in the body. The token travels in the
// body here because the frontend calls this after it has already dropped the
// Authorization header.
func (h *Handler) Logout(ctx *gin.Context) {
	var req struct {
		Token string `json:"token"`
	}

	if err := ctx.BindJSON(&req); err != nil || req.Token == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}

	var user models.User

	if err := h.DB.Where("auth_token = ?", req.Token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "token not found"})
		} else {
			log.Printf("Database error when fetching user for logout: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := auth.RevokeSession(h.DB, &user); err != nil {
		log.Printf("Failed to revoke session: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *Handler) Me(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, profileResponse(user))
}

// UpdateProfile applies partial profile updates. Changing the email clears
// the session to force re-login; switching the profile public without a slug
// triggers slug auto-generation.
func (h *Handler) UpdateProfile(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req ProfileUpdateRequest

	if err := ctx.BindJSON(&req); err != nil {
		log.Printf("Failed to bind JSON: %v", err)
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	updated := false

	if req.Username != nil {
		newUsername := strings.TrimSpace(*req.Username)

		if newUsername != "" && newUsername != user.Username {
			var existingUser models.User

			err := h.DB.Where("username = ?", newUsername).First(&existingUser).Error

			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Username already taken"})
				return
			}

			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Database error when checking username: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			user.Username = newUsername
			updated = true
		}
	}

	emailChanged := false

	if req.Email != nil {
		newEmail := strings.TrimSpace(*req.Email)

		if newEmail != "" && newEmail != user.Email {
			var existingUser models.User

			err := h.DB.Where("email = ?", newEmail).First(&existingUser).Error

			if err == nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": "Email already in use"})
				return
			}

			if !errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("Database error when checking email: %v", err)
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
				return
			}

			user.Email = newEmail
			// force re-login with the new address
			user.AuthToken = nil
			user.TokenExpires = nil
			emailChanged = true
			updated = true
		}
	}

	if req.RoleTitle != nil {
		user.RoleTitle = *req.RoleTitle
		updated = true
	}

	if req.Organization != nil {
		user.Organization = *req.Organization
		updated = true
	}

	if req.GithubURL != nil {
		user.GithubURL = *req.GithubURL
		updated = true
	}

	if req.LinkedinURL != nil {
		user.LinkedinURL = *req.LinkedinURL
		updated = true
	}

	if req.Bio != nil {
		user.Bio = *req.Bio
		updated = true
	}

	if req.ImageURL != nil {
		user.ImageURL = *req.ImageURL
		updated = true
	}

	if req.PublicProfile != nil {
		user.PublicProfile = *req.PublicProfile
		updated = true
	}

	if req.PublicProfileSlug != nil {
		requested := slug.Normalize(*req.PublicProfileSlug)

		if !slug.Valid(requested) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug format"})
			return
		}

		var existingUser models.User

		err := h.DB.Where("public_profile_slug = ?", requested).First(&existingUser).Error

		if err == nil && existingUser.ID != user.ID {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Slug already taken"})
			return
		}

		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Database error when checking slug: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		user.PublicProfileSlug = requested
		updated = true
	}

	if updated {
		if err := h.DB.Save(user).Error; err != nil {
			log.Printf("Failed to update profile: %v", err)
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	if user.PublicProfile && user.PublicProfileSlug == "" {
		h.generateSlug(user)
	}

	response := profileResponse(user)

	if emailChanged {
		response["email_changed"] = true
	}

	ctx.JSON(http.StatusOK, response)
}

// generateSlug derives a slug from the username plus a random suffix,
// retrying a bounded number of times on collision. If every candidate
// collides the slug is simply left unset.
func (h *Handler) generateSlug(user *models.User) {
	base := slug.Base(user.Username)

	for i := 0; i < 10; i++ {
		candidate := base + "-" + utils.RandomID(4)

		var existingUser models.User

		err := h.DB.Where("public_profile_slug = ?", candidate).First(&existingUser).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			user.PublicProfileSlug = candidate

			if err := h.DB.Save(user).Error; err != nil {
				log.Printf("Failed to store generated slug: %v", err)
				user.PublicProfileSlug = ""
			}

			return
		}

		if err != nil {
			log.Printf("Database error when generating slug: %v", err)
			return
		}
	}
}

func (h *Handler) CheckSlug(ctx *gin.Context) {
	requested := slug.Normalize(ctx.Param("slug"))

	if !slug.Valid(requested) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid slug format"})
		return
	}

	var existingUser models.User

	err := h.DB.Where("public_profile_slug = ?", requested).First(&existingUser).Error

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("Database error when checking slug: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"available": errors.Is(err, gorm.ErrRecordNotFound)})
}

// ForgotPassword answers with a generic message either way so the endpoint
// cannot be used to probe which addresses exist.
func (h *Handler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if err := ctx.BindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.Captcha.Verify(req.RecaptchaToken, "FORGOT_PASSWORD") {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "recaptcha verification failed"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "If an account with that email exists, a password reset link has been sent."})
}

// ResetPassword is a stub; completion of the reset flow is not implemented.
func (h *Handler) ResetPassword(ctx *gin.Context) {
	if _, err := utils.GetCurrentUser(ctx); err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Password reset initiated. Check your email (simulated)."})
}

// DeleteAccount removes the caller's user record outright. Unscoped so the
// unique username/email indexes do not block a later re-registration.
func (h *Handler) DeleteAccount(ctx *gin.Context) {
	user, err := utils.GetCurrentUser(ctx)

	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	if err := h.DB.Unscoped().Delete(user).Error; err != nil {
		log.Printf("Failed to delete user: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
}
