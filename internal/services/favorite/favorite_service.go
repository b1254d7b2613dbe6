package favorite

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/models"
	"github.com/rsshonjoydas/realtor-api/internal/session"
)

// FavoriteService представляет сервис сохраненных объявлений
type FavoriteService struct {
	cfg *config.Config
}

// NewFavoriteService создает новый экземпляр FavoriteService
func NewFavoriteService(cfg *config.Config) *FavoriteService {
	return &FavoriteService{cfg: cfg}
}

// AddToFavorites добавляет объявление в сохраненные
func (s *FavoriteService) AddToFavorites(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ListingID string `json:"listing_id"`
	}

	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	listingUUID, err := uuid.Parse(requestData.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	// Проверяем, существует ли объявление
	var exists bool
	err = db.Pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1)
	`, listingUUID).Scan(&exists)
	if err != nil {
		log.Printf("Ошибка проверки существования объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки объявления"})
	}
	if !exists {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
	}

	// Повторное добавление не ошибка
	_, err = db.Pool.Exec(ctx, `
		INSERT INTO favorites (user_id, listing_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, listing_id) DO NOTHING
	`, userUUID, listingUUID)
	if err != nil {
		log.Printf("Ошибка добавления в сохраненные: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Объявление сохранено",
	})
}

// RemoveFromFavorites убирает объявление из сохраненных
func (s *FavoriteService) RemoveFromFavorites(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("listing_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	_, err = db.Pool.Exec(ctx, `
		DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2
	`, userUUID, listingUUID)
	if err != nil {
		log.Printf("Ошибка удаления из сохраненных: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление убрано из сохраненных",
	})
}

// GetFavorites возвращает сохраненные объявления пользователя
func (s *FavoriteService) GetFavorites(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT f.id, f.user_id, f.listing_id, f.created_at,
		       l.id, l.user_id, l.type, l.name, l.bedrooms, l.bathrooms, l.parking, l.furnished,
		       l.address, l.description, l.offer, l.regular_price, l.discounted_price, l.created_at, l.updated_at
		FROM favorites f
		JOIN listings l ON l.id = f.listing_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userUUID)
	if err != nil {
		log.Printf("Ошибка запроса сохраненных: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения сохраненных"})
	}
	defer rows.Close()

	var favorites []models.Favorite
	for rows.Next() {
		var fav models.Favorite
		var listing models.Listing

		if err := rows.Scan(
			&fav.ID, &fav.UserID, &fav.ListingID, &fav.CreatedAt,
			&listing.ID, &listing.UserID, &listing.Type, &listing.Name,
			&listing.Bedrooms, &listing.Bathrooms, &listing.Parking, &listing.Furnished,
			&listing.Address, &listing.Description, &listing.Offer,
			&listing.RegularPrice, &listing.DiscountedPrice,
			&listing.CreatedAt, &listing.UpdatedAt,
		); err != nil {
			log.Printf("Ошибка сканирования строки: %v", err)
			continue
		}

		fav.Listing = &listing
		favorites = append(favorites, fav)
	}
	if err := rows.Err(); err != nil {
		log.Printf("Ошибка чтения сохраненных: %v", err)
	}

	return c.JSON(models.FavoriteResponse{
		Favorites: favorites,
		Total:     len(favorites),
		Limit:     len(favorites),
		Offset:    0,
	})
}
