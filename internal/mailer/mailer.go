package mailer

import (
	"context"
	"fmt"
	"log"
)

// Mailer отправляет письма сброса пароля.
// Реализация с реальным SMTP подключается на развертывании.
type Mailer interface {
	SendPasswordReset(ctx context.Context, email, resetURL string) error
}

// LogMailer пишет письмо в лог вместо отправки — для разработки и тестов
type LogMailer struct{}

// SendPasswordReset логирует ссылку сброса
func (LogMailer) SendPasswordReset(_ context.Context, email, resetURL string) error {
	log.Printf("📧 Письмо сброса пароля для %s: %s", email, resetURL)
	return nil
}

// ResetURL собирает ссылку страницы сброса пароля
func ResetURL(baseURL, token string) string {
	return fmt.Sprintf("%s/reset-password?token=%s", baseURL, token)
}
