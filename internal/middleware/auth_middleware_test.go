package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rsshonjoydas/realtor-api/internal/utils"
)

func guardedApp(t *testing.T, jwtService *utils.JWTService) *fiber.App {
	t.Helper()

	app := fiber.New()
	app.Use(ResolveSession(jwtService))
	app.Get("/api/listings/my", func(c fiber.Ctx) error {
		return c.SendString("ok")
	}, RequireAuth())

	return app
}

func TestRequireAuthRejectsAnonymous(t *testing.T) {
	app := guardedApp(t, utils.NewJWTService("secret"))

	resp, err := app.Test(httptest.NewRequest("GET", "/api/listings/my", nil))
	if err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("статус %d, ожидался 401", resp.StatusCode)
	}
}

func TestRequireAuthRedirectsBrowser(t *testing.T) {
	app := guardedApp(t, utils.NewJWTService("secret"))

	req := httptest.NewRequest("GET", "/api/listings/my", nil)
	req.Header.Set("Accept", "text/html")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
	if resp.StatusCode != fiber.StatusFound {
		t.Fatalf("статус %d, ожидался 302", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/login" {
		t.Fatalf("Location = %q, ожидался /login", loc)
	}
}

func TestRequireAuthAllowsValidToken(t *testing.T) {
	jwtService := utils.NewJWTService("secret")
	app := guardedApp(t, jwtService)

	token, err := jwtService.GenerateToken(uuid.New().String())
	if err != nil {
		t.Fatalf("GenerateToken() вернул ошибку: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/listings/my", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("статус %d, ожидался 200", resp.StatusCode)
	}
}

func TestRequireAuthIgnoresForgedToken(t *testing.T) {
	app := guardedApp(t, utils.NewJWTService("secret"))

	forged, err := utils.NewJWTService("other-secret").GenerateToken(uuid.New().String())
	if err != nil {
		t.Fatalf("GenerateToken() вернул ошибку: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/listings/my", nil)
	req.Header.Set("Authorization", "Bearer "+forged)

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
	if resp.StatusCode != fiber.StatusUnauthorized {
		t.Fatalf("статус %d, ожидался 401", resp.StatusCode)
	}
}
