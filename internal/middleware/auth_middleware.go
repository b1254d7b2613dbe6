package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rsshonjoydas/realtor-api/internal/session"
	"github.com/rsshonjoydas/realtor-api/internal/utils"
)

// ResolveSession разбирает Bearer токен и кладет сессию в контекст запроса.
// Middleware всегда пропускает запрос дальше: решение принимает RequireAuth.
func ResolveSession(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			session.Store(c, session.Anonymous())
			return c.Next()
		}

		// Проверяем Bearer токен
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			session.Store(c, session.Anonymous())
			return c.Next()
		}

		userIDStr, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			session.Store(c, session.Anonymous())
			return c.Next()
		}

		userID, err := uuid.Parse(userIDStr)
		if err != nil {
			session.Store(c, session.Anonymous())
			return c.Next()
		}

		session.Store(c, session.Authenticated(userID))

		return c.Next()
	}
}

// RequireAuth закрывает маршрут для неаутентифицированных запросов.
// Браузерная навигация получает редирект на /login, API-клиенты — 401.
func RequireAuth() fiber.Handler {
	return func(c fiber.Ctx) error {
		switch session.Guard(session.Current(c)) {
		case session.Allow:
			return c.Next()
		case session.Wait:
			// Сессия не разобрана — ResolveSession не подключен к этому маршруту
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Сессия еще не разобрана",
			})
		default:
			if strings.Contains(c.Get("Accept"), "text/html") {
				return c.Redirect().To("/login")
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":    "Требуется авторизация",
				"redirect": "/login",
			})
		}
	}
}
