package favorite

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/middleware"
)

// SetupRoutes настраивает маршруты сохраненных объявлений
func (s *FavoriteService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/favorites")
	guard := middleware.RequireAuth()

	api.Post("/", s.AddToFavorites, guard)
	api.Get("/", s.GetFavorites, guard)
	api.Delete("/:listing_id", s.RemoveFromFavorites, guard)
}
