package auth

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rsshonjoydas/realtor-api/internal/db"
)

// TelegramAuthHandler проверяет initData мини-приложения Telegram,
// создает либо привязывает пользователя и возвращает JWT
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	if s.cfg.TelegramBotToken == "" {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Вход через Telegram отключен"})
	}

	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	// Проверяем initData
	expiration := 24 * time.Hour
	if err := initdata.Validate(payload.InitData, s.cfg.TelegramBotToken, expiration); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Не удалось войти через Telegram"})
	}

	data, err := initdata.Parse(payload.InitData)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Не удалось войти через Telegram"})
	}

	name := data.User.FirstName
	if data.User.LastName != "" {
		name += " " + data.User.LastName
	}

	rawData, err := telegramRawData(data)
	if err != nil {
		log.Printf("Ошибка сериализации данных Telegram: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти через Telegram"})
	}

	user, err := db.CreateOrUpdateOAuthUser(
		"telegram",
		fmt.Sprintf("%d", data.User.ID),
		"", // Telegram не отдает email
		name,
		data.User.PhotoURL,
		rawData,
	)
	if err != nil {
		log.Printf("Ошибка сохранения пользователя Telegram: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти через Telegram"})
	}

	jwtToken, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти через Telegram"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user":  user,
	})
}

// telegramRawData сериализует разобранные initData для колонки raw_data.
// Сырая строка initData — это query string, в JSONB она не пройдет.
func telegramRawData(data initdata.InitData) ([]byte, error) {
	return json.Marshal(data)
}
