package email

import "log"

var GlobalEmailService *EmailService

// InitEmailService API anahtarı boşsa servis devre dışı kalır
func InitEmailService(apiKey string) {
	if apiKey == "" {
		log.Println("Email service disabled: no API key configured")
		return
	}
	GlobalEmailService = NewEmailService(apiKey)
	log.Println("Email service initialized")
}
