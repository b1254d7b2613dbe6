package cloudinary

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для работы с загрузками
func (s *CloudinaryService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Маршрут для получения параметров загрузки
	api.Get("/upload/params", s.GenerateUploadParams, middleware.RequireAuth())
}
