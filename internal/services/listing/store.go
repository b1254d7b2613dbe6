package listing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/models"
)

// PgStore реализует хранилище объявлений поверх Postgres
type PgStore struct{}

// NewStore создает хранилище объявлений
func NewStore() *PgStore {
	return &PgStore{}
}

// OwnerOf возвращает владельца объявления
func (s *PgStore) OwnerOf(ctx context.Context, listingID uuid.UUID) (uuid.UUID, error) {
	var ownerID uuid.UUID
	err := db.Pool.QueryRow(ctx, "SELECT user_id FROM listings WHERE id = $1", listingID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return uuid.Nil, &FlowError{Kind: KindNotFound, Message: "Объявление не найдено"}
		}
		return uuid.Nil, fmt.Errorf("ошибка запроса объявления: %w", err)
	}
	return ownerID, nil
}

// Create вставляет объявление вместе с изображениями в одной транзакции
func (s *PgStore) Create(ctx context.Context, l *models.Listing) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO listings (id, user_id, type, name, bedrooms, bathrooms, parking, furnished,
		                      address, description, offer, regular_price, discounted_price)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, l.ID, l.UserID, l.Type, l.Name, l.Bedrooms, l.Bathrooms, l.Parking, l.Furnished,
		l.Address, l.Description, l.Offer, l.RegularPrice, l.DiscountedPrice)
	if err != nil {
		return fmt.Errorf("ошибка вставки объявления: %w", err)
	}

	if err := insertImages(ctx, tx, l.ID, l.Images); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// Update обновляет объявление; изображения заменяются только когда replaceImages = true
func (s *PgStore) Update(ctx context.Context, l *models.Listing, replaceImages bool) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE listings
		SET type = $1, name = $2, bedrooms = $3, bathrooms = $4, parking = $5, furnished = $6,
		    address = $7, description = $8, offer = $9, regular_price = $10, discounted_price = $11,
		    updated_at = NOW()
		WHERE id = $12
	`, l.Type, l.Name, l.Bedrooms, l.Bathrooms, l.Parking, l.Furnished,
		l.Address, l.Description, l.Offer, l.RegularPrice, l.DiscountedPrice, l.ID)
	if err != nil {
		return fmt.Errorf("ошибка обновления объявления: %w", err)
	}

	if replaceImages {
		// Сначала удаляем все существующие изображения
		_, err = tx.Exec(ctx, "DELETE FROM listing_images WHERE listing_id = $1", l.ID)
		if err != nil {
			return fmt.Errorf("ошибка удаления старых изображений: %w", err)
		}

		if err := insertImages(ctx, tx, l.ID, l.Images); err != nil {
			return err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return nil
}

// Delete удаляет объявление и возвращает public_id его изображений
// для последующей чистки блоб-хранилища
func (s *PgStore) Delete(ctx context.Context, listingID uuid.UUID) ([]string, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка начала транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, "SELECT public_id FROM listing_images WHERE listing_id = $1", listingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса изображений: %w", err)
	}

	var publicIDs []string
	for rows.Next() {
		var publicID string
		if err := rows.Scan(&publicID); err != nil {
			rows.Close()
			return nil, fmt.Errorf("ошибка сканирования изображения: %w", err)
		}
		if publicID != "" {
			publicIDs = append(publicIDs, publicID)
		}
	}
	rows.Close()

	// Сначала удаляем связанные изображения
	_, err = tx.Exec(ctx, "DELETE FROM listing_images WHERE listing_id = $1", listingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления изображений: %w", err)
	}

	// Удаляем само объявление
	_, err = tx.Exec(ctx, "DELETE FROM listings WHERE id = $1", listingID)
	if err != nil {
		return nil, fmt.Errorf("ошибка удаления объявления: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка фиксации транзакции: %w", err)
	}

	return publicIDs, nil
}

// insertImages вставляет изображения объявления с сохранением порядка
func insertImages(ctx context.Context, tx pgx.Tx, listingID uuid.UUID, images []models.ListingImage) error {
	for _, img := range images {
		metadata, _ := json.Marshal(img.Metadata)

		_, err := tx.Exec(ctx, `
			INSERT INTO listing_images (listing_id, url, preview_url, public_id, file_name, is_main, position, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, listingID, img.URL, img.PreviewURL, img.PublicID, img.FileName, img.IsMain, img.Position, metadata)
		if err != nil {
			return fmt.Errorf("ошибка вставки изображения: %w", err)
		}
	}
	return nil
}
