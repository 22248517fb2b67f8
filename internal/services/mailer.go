package services

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

// Mailer delivers transactional email through Mailgun. When credentials are
// not configured the send is skipped, so local setups work without an
// account.
type Mailer struct {
	APIKey      string
	Domain      string
	BaseURL     string
	FrontendURL string

	client *http.Client
}

func NewMailerFromEnv() *Mailer {
	base := os.Getenv("MAILGUN_BASE")

	if base == "" {
		base = "https://api.mailgun.net"
	}

	frontend := os.Getenv("FRONTEND_URL")

	if frontend == "" {
		frontend = "http://localhost:3000"
	}

	return &Mailer{
		APIKey:      os.Getenv("MAILGUN_API_KEY"),
		Domain:      os.Getenv("MAILGUN_DOMAIN"),
		BaseURL:     base,
		FrontendURL: frontend,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// SendVerificationEmail mails the signup verification link to email.
func (m *Mailer) SendVerificationEmail(email string, username string, token string) error {
	if m.APIKey == "" || m.Domain == "" {
		log.Printf("Mailgun not configured, skipping verification email to %s", email)
		return nil
	}

	link := fmt.Sprintf("%s/verify-email?token=%s", m.FrontendURL, url.QueryEscape(token))

	form := url.Values{}
	form.Set("from", fmt.Sprintf("LeData <mailgun@%s>", m.Domain))
	form.Set("to", email)
	form.Set("subject", "Verify your LeData email")
	form.Set("text", fmt.Sprintf("Welcome %s,\n\nPlease verify your email by clicking the link below:\n%s\n\nIf you didn't sign up, ignore this message.", username, link))
	form.Set("html", fmt.Sprintf("<p>Welcome %s,</p><p>Please verify your email by clicking <a href=%q>here</a>.</p>", username, link))

	endpoint := fmt.Sprintf("%s/v3/%s/messages", m.BaseURL, m.Domain)

	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))

	if err != nil {
		return err
	}

	req.SetBasicAuth("api", m.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.client.Do(req)

	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("mailgun send failed: %d %s", resp.StatusCode, string(body))
	}

	return nil
}
