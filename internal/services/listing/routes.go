package listing

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/middleware"
)

// SetupRoutes настраивает маршруты для API объявлений.
// Охрана ставится на каждый защищенный маршрут отдельно: middleware группы
// срабатывает по префиксу пути и закрыла бы публичные маршруты ниже.
func (s *ListingService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/listings")
	guard := middleware.RequireAuth()

	// Маршрут для создания объявления
	api.Post("/create", s.CreateListing, guard)

	// Маршрут для получения списка своих объявлений
	api.Get("/my", s.GetMyListings, guard)

	// Маршрут для обновления объявления
	api.Put("/:id", s.UpdateListing, guard)

	// Маршрут для удаления объявления
	api.Delete("/:id", s.DeleteListing, guard)

	// Публичный список с фильтрами offer и type
	app.Get("/api/listings", s.GetPublicListings)

	// Публичная карточка объявления
	app.Get("/api/listings/:id", s.GetListing)
}
