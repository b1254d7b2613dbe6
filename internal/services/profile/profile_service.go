package profile

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/session"
)

// ProfileService представляет сервис профиля пользователя
type ProfileService struct {
	cfg *config.Config
}

// NewProfileService создает новый экземпляр ProfileService
func NewProfileService(cfg *config.Config) *ProfileService {
	return &ProfileService{cfg: cfg}
}

// GetProfile возвращает данные текущего пользователя
func (s *ProfileService) GetProfile(c fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	user, err := db.GetUserByID(userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Пользователь не найден"})
		}
		log.Printf("Ошибка получения пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения профиля"})
	}

	return c.JSON(fiber.Map{"user": user})
}

// UpdateProfile меняет отображаемое имя. Email менять нельзя.
// Если имя не изменилось, запись не трогаем и сообщаем об этом.
func (s *ProfileService) UpdateProfile(c fiber.Ctx) error {
	userID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var payload struct {
		Name string `json:"name"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Имя обязательно"})
	}

	user, err := db.GetUserByID(userID)
	if err != nil {
		log.Printf("Ошибка получения пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления профиля"})
	}

	if user.Name == payload.Name {
		return c.JSON(fiber.Map{
			"success": false,
			"message": "Вы ничего не изменили",
		})
	}

	if err := db.UpdateUserName(userID, payload.Name); err != nil {
		log.Printf("Ошибка обновления имени: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка обновления профиля"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Профиль успешно обновлен",
	})
}
