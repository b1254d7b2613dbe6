package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/mail"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/mailer"
	"github.com/rsshonjoydas/realtor-api/internal/utils"
)

const (
	minPasswordLen = 8
	resetTokenTTL  = time.Hour
)

// AuthService – структура для обработки авторизации
type AuthService struct {
	cfg        *config.Config
	jwtService *utils.JWTService
	mailer     mailer.Mailer
}

// NewAuthService – конструктор AuthService
func NewAuthService(cfg *config.Config, m mailer.Mailer) *AuthService {
	return &AuthService{
		cfg:        cfg,
		jwtService: utils.NewJWTService(cfg.JWTSecret),
		mailer:     m,
	}
}

// GetJWTService возвращает JWT-сервис для middleware
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// RegisterHandler создает пользователя по email и паролю.
// Пароль хешируется bcrypt; в документ пользователя он не попадает.
func (s *AuthService) RegisterHandler(c fiber.Ctx) error {
	var payload struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if payload.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Имя обязательно"})
	}
	if _, err := mail.ParseAddress(payload.Email); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный email"})
	}
	if len(payload.Password) < minPasswordLen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Пароль должен быть не короче 8 символов"})
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось зарегистрироваться"})
	}

	user, err := db.CreateUser(payload.Name, payload.Email, hash)
	if err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Email уже используется"})
		}
		log.Printf("Ошибка создания пользователя: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось зарегистрироваться"})
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось зарегистрироваться"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// LoginHandler проверяет email и пароль и выдает JWT.
// Конкретная причина отказа наружу не сообщается.
func (s *AuthService) LoginHandler(c fiber.Ctx) error {
	var payload struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	user, err := db.GetUserByEmail(payload.Email)
	if err != nil {
		if !errors.Is(err, db.ErrUserNotFound) {
			log.Printf("Ошибка поиска пользователя: %v", err)
		}
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	}

	if user.PasswordHash == "" || !utils.CheckPassword(user.PasswordHash, payload.Password) {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Неверный email или пароль"})
	}

	if err := db.TouchLastLogin(user.ID); err != nil {
		log.Printf("Ошибка обновления времени входа: %v", err)
	}

	token, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти"})
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  user,
	})
}

// LogoutHandler подтверждает выход. Сессии stateless: токен просто
// выбрасывается на стороне клиента.
func (s *AuthService) LogoutHandler(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success":  true,
		"redirect": "/",
	})
}

// ForgotPasswordHandler выписывает одноразовый токен сброса и отправляет
// письмо. Ответ одинаковый независимо от того, существует ли email.
func (s *AuthService) ForgotPasswordHandler(c fiber.Ctx) error {
	var payload struct {
		Email string `json:"email"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	user, err := db.GetUserByEmail(payload.Email)
	if err == nil {
		token, genErr := generateResetToken()
		if genErr != nil {
			log.Printf("Ошибка генерации токена сброса: %v", genErr)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось отправить письмо"})
		}

		if err := db.CreatePasswordReset(user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
			log.Printf("Ошибка сохранения токена сброса: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось отправить письмо"})
		}

		resetURL := mailer.ResetURL(s.cfg.AppBaseURL, token)
		if err := s.mailer.SendPasswordReset(context.Background(), user.Email, resetURL); err != nil {
			log.Printf("Ошибка отправки письма сброса: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось отправить письмо"})
		}
	} else if !errors.Is(err, db.ErrUserNotFound) {
		log.Printf("Ошибка поиска пользователя: %v", err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Если email зарегистрирован, письмо отправлено",
	})
}

// ResetPasswordHandler завершает сброс: токен гасится, пароль заменяется
func (s *AuthService) ResetPasswordHandler(c fiber.Ctx) error {
	var payload struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}

	if err := c.Bind().Body(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	if len(payload.Password) < minPasswordLen {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Пароль должен быть не короче 8 символов"})
	}

	userID, err := db.ConsumePasswordReset(payload.Token)
	if err != nil {
		if errors.Is(err, db.ErrResetTokenInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Ссылка сброса недействительна или устарела"})
		}
		log.Printf("Ошибка проверки токена сброса: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось сбросить пароль"})
	}

	hash, err := utils.HashPassword(payload.Password)
	if err != nil {
		log.Printf("Ошибка хеширования пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось сбросить пароль"})
	}

	if err := db.UpdatePassword(userID, hash); err != nil {
		log.Printf("Ошибка обновления пароля: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось сбросить пароль"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Пароль обновлен",
	})
}

// generateResetToken возвращает криптослучайный токен сброса
func generateResetToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
