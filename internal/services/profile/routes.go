package profile

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/middleware"
)

// SetupRoutes настраивает маршруты профиля
func (s *ProfileService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/profile")
	guard := middleware.RequireAuth()

	api.Get("/", s.GetProfile, guard)
	api.Put("/", s.UpdateProfile, guard)
}
