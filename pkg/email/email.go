package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"
)

const resendAPIURL = "https://api.resend.com/emails"

type EmailService struct {
	apiKey     string
	fromEmail  string
	httpClient *http.Client
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

func NewEmailService(apiKey string) *EmailService {
	return &EmailService{
		apiKey:    apiKey,
		fromEmail: "AVS Business Assistant <noreply@avs.com>",
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (s *EmailService) send(toEmail, subject, html string) error {
	payload, err := json.Marshal(resendRequest{
		From:    s.fromEmail,
		To:      []string{toEmail},
		Subject: subject,
		HTML:    html,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, resendAPIURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("email send failed with status %d", resp.StatusCode)
	}
	return nil
}

// sendTemplateEmail gömülü şablonu placeholder'larla doldurup gönderir
func (s *EmailService) sendTemplateEmail(toEmail, subject, templateName string, values map[string]string) error {
	html, err := loadTemplate(templateName)
	if err != nil {
		return err
	}
	for key, value := range values {
		html = strings.ReplaceAll(html, "{{"+key+"}}", value)
	}

	if err := s.send(toEmail, subject, html); err != nil {
		log.Printf("Failed to send %s email to %s: %v\n", templateName, toEmail, err)
		return err
	}
	return nil
}

func (s *EmailService) SendSubscriptionStartedEmail(toEmail, fullName, planName string, endDate time.Time) error {
	return s.sendTemplateEmail(toEmail, "Your subscription is active", "subscription_started", map[string]string{
		"FullName": fullName,
		"PlanName": planName,
		"EndDate":  endDate.Format("January 2, 2006"),
	})
}

func (s *EmailService) SendSubscriptionCancelledEmail(toEmail, fullName, planName string) error {
	return s.sendTemplateEmail(toEmail, "Your subscription has been cancelled", "subscription_cancelled", map[string]string{
		"FullName": fullName,
		"PlanName": planName,
	})
}

func (s *EmailService) SendSubscriptionExpiryWarning(toEmail, fullName, planName string, endDate time.Time, daysLeft int) error {
	return s.sendTemplateEmail(toEmail, "Your subscription is expiring soon", "subscription_expiry_warning", map[string]string{
		"FullName": fullName,
		"PlanName": planName,
		"EndDate":  endDate.Format("January 2, 2006"),
		"DaysLeft": fmt.Sprintf("%d", daysLeft),
	})
}
