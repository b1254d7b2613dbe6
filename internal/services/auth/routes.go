package auth

import (
	"github.com/gofiber/fiber/v3"
)

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/auth")

	api.Post("/register", s.RegisterHandler)
	api.Post("/login", s.LoginHandler)
	api.Post("/logout", s.LogoutHandler)
	api.Post("/forgot-password", s.ForgotPasswordHandler)
	api.Post("/reset-password", s.ResetPasswordHandler)

	// Социальные провайдеры
	api.Post("/google", s.GoogleAuthHandler)
	api.Post("/telegram", s.TelegramAuthHandler)
}
