package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/rsshonjoydas/realtor-api/internal/db"
)

const googleUserinfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"

// googleUserinfo — ответ эндпоинта userinfo Google
type googleUserinfo struct {
	Sub     string `json:"sub"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture"`
}

// oauthConfig собирает конфигурацию OAuth для Google
func (s *AuthService) oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.GoogleConfig.ClientID,
		ClientSecret: s.cfg.GoogleConfig.ClientSecret,
		RedirectURL:  s.cfg.GoogleConfig.RedirectURL,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

// GoogleAuthHandler завершает вход через Google: обменивает код авторизации
// из попапа на токен, забирает профиль и создает либо привязывает пользователя
func (s *AuthService) GoogleAuthHandler(c fiber.Ctx) error {
	if s.cfg.GoogleConfig.ClientID == "" {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"error": "Вход через Google отключен"})
	}

	var payload struct {
		Code        string `json:"code"`
		RedirectURI string `json:"redirect_uri"`
	}

	if err := c.Bind().Body(&payload); err != nil || payload.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}

	conf := s.oauthConfig()
	if payload.RedirectURI != "" {
		conf.RedirectURL = payload.RedirectURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	token, err := conf.Exchange(ctx, payload.Code)
	if err != nil {
		log.Printf("Ошибка обмена кода Google: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Не удалось войти через Google"})
	}

	info, raw, err := fetchGoogleUserinfo(ctx, conf, token)
	if err != nil {
		log.Printf("Ошибка получения профиля Google: %v", err)
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Не удалось войти через Google"})
	}

	user, err := db.CreateOrUpdateOAuthUser("google", info.Sub, info.Email, info.Name, info.Picture, raw)
	if err != nil {
		log.Printf("Ошибка сохранения пользователя Google: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти через Google"})
	}

	jwtToken, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		log.Printf("Ошибка генерации токена: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Не удалось войти через Google"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user":  user,
	})
}

// fetchGoogleUserinfo запрашивает профиль пользователя токеном OAuth
func fetchGoogleUserinfo(ctx context.Context, conf *oauth2.Config, token *oauth2.Token) (*googleUserinfo, []byte, error) {
	resp, err := conf.Client(ctx, token).Get(googleUserinfoURL)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		return nil, nil, fmt.Errorf("userinfo вернул статус %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, err
	}

	var info googleUserinfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, nil, err
	}
	if info.Sub == "" {
		return nil, nil, fmt.Errorf("userinfo без идентификатора пользователя")
	}

	return &info, raw, nil
}
