package session

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
)

// Session — локальная проекция состояния аутентификации для одного запроса.
// Нулевое значение означает, что токен еще не разбирался (фаза "resolving").
type Session struct {
	UserID          uuid.UUID `json:"user_id,omitempty"`
	IsAuthenticated bool      `json:"is_authenticated"`
	IsResolving     bool      `json:"is_resolving"`
}

// Resolving возвращает сессию до первого разбора токена
func Resolving() Session {
	return Session{IsResolving: true}
}

// Anonymous возвращает разрешенную неаутентифицированную сессию
func Anonymous() Session {
	return Session{}
}

// Authenticated возвращает сессию вошедшего пользователя
func Authenticated(userID uuid.UUID) Session {
	return Session{UserID: userID, IsAuthenticated: true}
}

// Decision — решение охраны маршрута для текущей сессии
type Decision int

const (
	// Allow — пропустить к защищенному обработчику
	Allow Decision = iota
	// Wait — сессия еще разбирается, отвечать рано
	Wait
	// RedirectLogin — отправить на страницу входа
	RedirectLogin
)

// Guard принимает решение по сессии. Функция детерминирована и не имеет
// собственного состояния: пока сессия разбирается — ждем, неаутентифицированных
// отправляем на вход, остальных пропускаем.
func Guard(s Session) Decision {
	if s.IsResolving {
		return Wait
	}
	if !s.IsAuthenticated {
		return RedirectLogin
	}
	return Allow
}

const localsKey = "session"

// Store сохраняет сессию в контексте запроса
func Store(c fiber.Ctx, s Session) {
	c.Locals(localsKey, s)
}

// Current возвращает сессию текущего запроса. Если middleware разбора токена
// еще не отработал, возвращается фаза Resolving.
func Current(c fiber.Ctx) Session {
	if s, ok := c.Locals(localsKey).(Session); ok {
		return s
	}
	return Resolving()
}

// ErrNotAuthenticated возвращается, когда у запроса нет вошедшего пользователя
var ErrNotAuthenticated = errors.New("пользователь не авторизован")

// UserID возвращает ID вошедшего пользователя текущего запроса.
// Безопасен при любом состоянии сессии, в том числе без middleware разбора.
func UserID(c fiber.Ctx) (uuid.UUID, error) {
	s := Current(c)
	if !s.IsAuthenticated {
		return uuid.Nil, ErrNotAuthenticated
	}
	return s.UserID, nil
}
