package session

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

func TestGuardDecisions(t *testing.T) {
	tests := []struct {
		name string
		sess Session
		want Decision
	}{
		{"разбор токена не завершен", Resolving(), Wait},
		{"анонимный пользователь", Anonymous(), RedirectLogin},
		{"вошедший пользователь", Authenticated(uuid.New()), Allow},
		{"нулевое значение считается разбором", Session{IsResolving: true}, Wait},
	}

	for _, tt := range tests {
		if got := Guard(tt.sess); got != tt.want {
			t.Errorf("%s: Guard() = %v, ожидалось %v", tt.name, got, tt.want)
		}
	}
}

func TestAuthenticatedCarriesUserID(t *testing.T) {
	id := uuid.New()
	s := Authenticated(id)

	if !s.IsAuthenticated || s.IsResolving {
		t.Fatalf("неверное состояние сессии: %+v", s)
	}
	if s.UserID != id {
		t.Fatalf("UserID = %s, ожидался %s", s.UserID, id)
	}
}

// UserID не должен паниковать, даже если middleware разбора токена
// не подключен и в контексте запроса вообще нет сессии
func TestUserIDWithoutSession(t *testing.T) {
	app := fiber.New()
	app.Get("/x", func(c fiber.Ctx) error {
		if _, err := UserID(c); err == nil {
			t.Errorf("ожидалась ошибка для запроса без сессии")
		}
		return c.SendString("ok")
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
}

func TestUserIDReturnsAuthenticatedUser(t *testing.T) {
	id := uuid.New()

	app := fiber.New()
	app.Get("/x", func(c fiber.Ctx) error {
		Store(c, Authenticated(id))
		got, err := UserID(c)
		if err != nil {
			t.Errorf("UserID() вернул ошибку: %v", err)
		}
		if got != id {
			t.Errorf("UserID() = %s, ожидался %s", got, id)
		}
		return c.SendString("ok")
	})

	if _, err := app.Test(httptest.NewRequest("GET", "/x", nil)); err != nil {
		t.Fatalf("app.Test() вернул ошибку: %v", err)
	}
}
