package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ErrUserNotFound возвращается, когда пользователь не найден
var ErrUserNotFound = errors.New("пользователь не найден")

// ErrEmailTaken возвращается при попытке регистрации на занятый email
var ErrEmailTaken = errors.New("email уже используется")

// ErrResetTokenInvalid возвращается для несуществующего, использованного или просроченного токена сброса
var ErrResetTokenInvalid = errors.New("токен сброса пароля недействителен")

// User представляет пользователя в системе.
// PasswordHash никогда не сериализуется в ответы API.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	AvatarURL    string    `json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
	IsActive     bool      `json:"is_active"`
}

// OAuthAccount представляет привязку внешнего провайдера (google, telegram) к пользователю
type OAuthAccount struct {
	ID             uuid.UUID `json:"id"`
	UserID         uuid.UUID `json:"user_id"`
	Provider       string    `json:"provider"`
	ProviderUserID string    `json:"provider_user_id"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	PhotoURL       string    `json:"photo_url,omitempty"`
	RawData        []byte    `json:"-"` // JSONB данные
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// CreateUser создает нового пользователя с email и хешем пароля.
// Сам пароль в документ пользователя не попадает — только хеш в отдельной колонке.
func CreateUser(name, email, passwordHash string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	// Проверяем, что email свободен
	var exists bool
	err = tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("ошибка при проверке email: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		INSERT INTO users (name, email, password_hash, last_login_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		RETURNING id
	`, name, email, passwordHash).Scan(&userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
	}

	user, err := getUserByID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, nil
}

// CreateOrUpdateOAuthUser создает пользователя через внешнего провайдера или обновляет существующего.
// Привязка ищется по паре (provider, provider_user_id); при отсутствии — по email.
func CreateOrUpdateOAuthUser(provider, providerUserID, email, name, photoURL string, rawData []byte) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	tx, err := Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx) // Откатываем транзакцию в случае ошибки

	// Проверяем, существует ли привязка провайдера
	var accountID uuid.UUID
	var userID uuid.UUID

	row := tx.QueryRow(ctx, `
		SELECT id, user_id FROM oauth_accounts WHERE provider = $1 AND provider_user_id = $2
	`, provider, providerUserID)

	err = row.Scan(&accountID, &userID)
	if err != nil && err != pgx.ErrNoRows {
		return nil, fmt.Errorf("ошибка при проверке привязки провайдера: %w", err)
	}

	if err == pgx.ErrNoRows {
		// Привязки нет. Если email уже зарегистрирован — привязываем к существующему пользователю
		found := true
		if email != "" {
			err = tx.QueryRow(ctx, `SELECT id FROM users WHERE email = $1`, email).Scan(&userID)
			if err == pgx.ErrNoRows {
				found = false
			} else if err != nil {
				return nil, fmt.Errorf("ошибка при поиске пользователя по email: %w", err)
			}
		} else {
			found = false
		}

		if !found {
			// Создаем запись в users
			err = tx.QueryRow(ctx, `
				INSERT INTO users (name, email, avatar_url, last_login_at)
				VALUES ($1, NULLIF($2, ''), $3, CURRENT_TIMESTAMP)
				RETURNING id
			`, name, email, photoURL).Scan(&userID)
			if err != nil {
				return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
			}
		} else {
			_, err = tx.Exec(ctx, `
				UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
			`, userID)
			if err != nil {
				return nil, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
			}
		}

		// Создаем запись в oauth_accounts
		err = tx.QueryRow(ctx, `
			INSERT INTO oauth_accounts (user_id, provider, provider_user_id, email, name, photo_url, raw_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id
		`, userID, provider, providerUserID, email, name, photoURL, rawData).Scan(&accountID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании привязки провайдера: %w", err)
		}
	} else {
		// Обновляем last_login_at у существующего пользователя
		_, err = tx.Exec(ctx, `
			UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
		}

		// Обновляем данные привязки
		_, err = tx.Exec(ctx, `
			UPDATE oauth_accounts
			SET email = $1, name = $2, photo_url = $3, raw_data = $4, updated_at = CURRENT_TIMESTAMP
			WHERE id = $5
		`, email, name, photoURL, rawData, accountID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении привязки провайдера: %w", err)
		}
	}

	user, err := getUserByID(ctx, tx, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}

	return user, nil
}

// getUserByID получает пользователя по ID внутри транзакции
func getUserByID(ctx context.Context, tx pgx.Tx, userID uuid.UUID) (*User, error) {
	return scanUser(tx.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(password_hash, ''), avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE id = $1
	`, userID))
}

// GetUserByID получает пользователя по ID (публичная версия)
func GetUserByID(userID uuid.UUID) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	return scanUser(Pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(password_hash, ''), avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE id = $1
	`, userID))
}

// GetUserByEmail получает пользователя по email
func GetUserByEmail(email string) (*User, error) {
	ctx, cancel := GetContext()
	defer cancel()

	return scanUser(Pool.QueryRow(ctx, `
		SELECT id, name, email, COALESCE(password_hash, ''), avatar_url,
			   created_at, updated_at, last_login_at, is_active
		FROM users WHERE email = $1
	`, email))
}

// scanUser сканирует строку пользователя с преобразованием nullable полей
func scanUser(row pgx.Row) (*User, error) {
	var user User
	var email, avatarURL pgtype.Text
	var lastLoginAt pgtype.Timestamptz

	err := row.Scan(
		&user.ID, &user.Name, &email, &user.PasswordHash,
		&avatarURL, &user.CreatedAt, &user.UpdatedAt, &lastLoginAt, &user.IsActive,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if email.Valid {
		user.Email = email.String
	}
	if avatarURL.Valid {
		user.AvatarURL = avatarURL.String
	}
	if lastLoginAt.Valid {
		user.LastLoginAt = lastLoginAt.Time
	}

	return &user, nil
}

// UpdateUserName обновляет отображаемое имя пользователя
func UpdateUserName(userID uuid.UUID, name string) error {
	ctx, cancel := GetContext()
	defer cancel()

	tag, err := Pool.Exec(ctx, `
		UPDATE users SET name = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, name, userID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении имени пользователя: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}

// TouchLastLogin фиксирует время входа пользователя
func TouchLastLogin(userID uuid.UUID) error {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
	`, userID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении времени входа: %w", err)
	}

	return nil
}

// CreatePasswordReset сохраняет одноразовый токен сброса пароля
func CreatePasswordReset(userID uuid.UUID, token string, expiresAt time.Time) error {
	ctx, cancel := GetContext()
	defer cancel()

	_, err := Pool.Exec(ctx, `
		INSERT INTO password_resets (token, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, token, userID, expiresAt)
	if err != nil {
		return fmt.Errorf("ошибка при сохранении токена сброса: %w", err)
	}

	return nil
}

// ConsumePasswordReset помечает токен использованным и возвращает ID пользователя.
// Токен одноразовый: повторное использование вернет ErrResetTokenInvalid.
func ConsumePasswordReset(token string) (uuid.UUID, error) {
	ctx, cancel := GetContext()
	defer cancel()

	var userID uuid.UUID
	err := Pool.QueryRow(ctx, `
		UPDATE password_resets
		SET used_at = CURRENT_TIMESTAMP
		WHERE token = $1 AND used_at IS NULL AND expires_at > CURRENT_TIMESTAMP
		RETURNING user_id
	`, token).Scan(&userID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, ErrResetTokenInvalid
		}
		return uuid.Nil, fmt.Errorf("ошибка при проверке токена сброса: %w", err)
	}

	return userID, nil
}

// UpdatePassword заменяет хеш пароля пользователя
func UpdatePassword(userID uuid.UUID, passwordHash string) error {
	ctx, cancel := GetContext()
	defer cancel()

	tag, err := Pool.Exec(ctx, `
		UPDATE users SET password_hash = $1, updated_at = CURRENT_TIMESTAMP WHERE id = $2
	`, passwordHash, userID)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении пароля: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}

	return nil
}
