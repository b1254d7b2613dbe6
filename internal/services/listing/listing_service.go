package listing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/models"
	"github.com/rsshonjoydas/realtor-api/internal/session"
)

// ListingService представляет сервис для работы с объявлениями
type ListingService struct {
	cfg      *config.Config
	workflow *Workflow
}

// NewListingService создает новый экземпляр ListingService
func NewListingService(cfg *config.Config, uploader Uploader) *ListingService {
	return &ListingService{
		cfg:      cfg,
		workflow: NewWorkflow(uploader, NewStore()),
	}
}

// draftFromForm собирает черновик из multipart-формы: текстовые поля через
// SetField, файлы изображений — в порядке их появления в форме.
// Поле uploaded_images несет JSON-ссылки на блобы, загруженные клиентом
// напрямую по подписанным параметрам.
func draftFromForm(c fiber.Ctx) (*Draft, func(), error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil, fmt.Errorf("неверный формат формы: %w", err)
	}

	draft := NewDraft()
	for field, values := range form.Value {
		if len(values) == 0 {
			continue
		}
		if field == "uploaded_images" {
			if err := json.Unmarshal([]byte(values[0]), &draft.Uploaded); err != nil {
				return nil, nil, fmt.Errorf("неверный формат uploaded_images: %w", err)
			}
			continue
		}
		if err := draft.SetField(field, values[0]); err != nil {
			return nil, nil, err
		}
	}

	var closers []func()
	cleanup := func() {
		for _, fn := range closers {
			fn()
		}
	}

	for _, fh := range form.File["images"] {
		f, err := fh.Open()
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("не удалось открыть файл %q: %w", fh.Filename, err)
		}
		closers = append(closers, func() { f.Close() })
		draft.Images = append(draft.Images, ImageFile{
			FileName: fh.Filename,
			Size:     fh.Size,
			Reader:   f,
		})
	}

	return draft, cleanup, nil
}

// flowErrorResponse превращает ошибку процесса отправки в ответ API
func flowErrorResponse(c fiber.Ctx, err error) error {
	var fe *FlowError
	if errors.As(err, &fe) {
		if fe.Err != nil {
			log.Printf("Ошибка отправки объявления: %v", fe)
		}
		return c.Status(StatusFor(fe)).JSON(fiber.Map{"error": fe.Message})
	}
	log.Printf("Ошибка отправки объявления: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка сохранения объявления"})
}

// CreateListing обрабатывает создание нового объявления
func (s *ListingService) CreateListing(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	draft, closeFiles, err := draftFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer closeFiles()

	// Отправка не отменяется вместе с запросом: раз начали — доводим до конца
	listingID, err := s.workflow.Submit(context.Background(), userUUID, draft, nil)
	if err != nil {
		return flowErrorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success":    true,
		"listing_id": listingID,
		"message":    "Объявление успешно создано",
		"redirect":   fmt.Sprintf("/category/%s/%s", draft.Type, listingID),
	})
}

// UpdateListing обновляет существующее объявление
func (s *ListingService) UpdateListing(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	draft, closeFiles, err := draftFromForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	defer closeFiles()

	id, err := s.workflow.Submit(context.Background(), userUUID, draft, &listingUUID)
	if err != nil {
		return flowErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success":    true,
		"listing_id": id,
		"message":    "Объявление успешно обновлено",
		"redirect":   fmt.Sprintf("/category/%s/%s", draft.Type, id),
	})
}

// DeleteListing удаляет объявление
func (s *ListingService) DeleteListing(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	if err := s.workflow.Delete(ctx, userUUID, listingUUID); err != nil {
		return flowErrorResponse(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно удалено",
	})
}

// GetMyListings возвращает объявления текущего пользователя,
// новые сначала
func (s *ListingService) GetMyListings(c fiber.Ctx) error {
	userUUID, err := session.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	limit, offset := pageParams(c)

	ctx, cancel := db.GetContext()
	defer cancel()

	rows, err := db.Pool.Query(ctx, `
		SELECT id, user_id, type, name, bedrooms, bathrooms, parking, furnished,
		       address, description, offer, regular_price, discounted_price, created_at, updated_at
		FROM listings
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, userUUID, limit, offset)
	if err != nil {
		log.Printf("Ошибка запроса объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}

	listings, err := scanListings(ctx, rows)
	if err != nil {
		log.Printf("Ошибка чтения объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM listings WHERE user_id = $1
	`, userUUID).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета объявлений: %v", err)
		// Игнорируем ошибку, просто не вернем общее количество
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetPublicListings возвращает публичный список объявлений с фильтрами
// offer=true (страница скидок) и type=sale|rent (страницы категорий)
func (s *ListingService) GetPublicListings(c fiber.Ctx) error {
	limit, offset := pageParams(c)

	where := ""
	args := []any{}

	if c.Query("offer") == "true" {
		where = "WHERE offer = true"
	}

	if t := c.Query("type"); t == models.TypeSale || t == models.TypeRent {
		if where == "" {
			where = "WHERE"
		} else {
			where += " AND"
		}
		args = append(args, t)
		where += fmt.Sprintf(" type = $%d", len(args))
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	query := fmt.Sprintf(`
		SELECT id, user_id, type, name, bedrooms, bathrooms, parking, furnished,
		       address, description, offer, regular_price, discounted_price, created_at, updated_at
		FROM listings
		%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := db.Pool.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		log.Printf("Ошибка запроса объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}

	listings, err := scanListings(ctx, rows)
	if err != nil {
		log.Printf("Ошибка чтения объявлений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявлений"})
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM listings %s", where)
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		log.Printf("Ошибка подсчета объявлений: %v", err)
	}

	return c.JSON(fiber.Map{
		"listings": listings,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetListing возвращает детальную информацию об объявлении
func (s *ListingService) GetListing(c fiber.Ctx) error {
	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	ctx, cancel := db.GetContext()
	defer cancel()

	var listing models.Listing
	err = db.Pool.QueryRow(ctx, `
		SELECT id, user_id, type, name, bedrooms, bathrooms, parking, furnished,
		       address, description, offer, regular_price, discounted_price, created_at, updated_at
		FROM listings
		WHERE id = $1
	`, listingUUID).Scan(
		&listing.ID, &listing.UserID, &listing.Type, &listing.Name,
		&listing.Bedrooms, &listing.Bathrooms, &listing.Parking, &listing.Furnished,
		&listing.Address, &listing.Description, &listing.Offer,
		&listing.RegularPrice, &listing.DiscountedPrice,
		&listing.CreatedAt, &listing.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено"})
		}
		log.Printf("Ошибка получения объявления: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения объявления"})
	}

	listing.Images, err = loadImages(ctx, listing.ID)
	if err != nil {
		log.Printf("Ошибка запроса изображений: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения изображений"})
	}

	// Получаем информацию о владельце
	var owner models.User
	err = db.Pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(avatar_url, '')
		FROM users
		WHERE id = $1
	`, listing.UserID).Scan(&owner.ID, &owner.Name, &owner.AvatarURL)
	if err != nil && err != pgx.ErrNoRows {
		log.Printf("Ошибка получения данных пользователя: %v", err)
	}

	isOwner := false
	if userID, err := session.UserID(c); err == nil {
		isOwner = userID == listing.UserID
	}

	return c.JSON(fiber.Map{
		"listing":  listing,
		"user":     owner,
		"is_owner": isOwner,
	})
}

// pageParams читает параметры пагинации запроса
func pageParams(c fiber.Ctx) (int, int) {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	if limit < 1 || limit > 50 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// scanListings читает строки объявлений и подтягивает их изображения
func scanListings(ctx context.Context, rows pgx.Rows) ([]models.Listing, error) {
	defer rows.Close()

	var listings []models.Listing
	for rows.Next() {
		var listing models.Listing
		if err := rows.Scan(
			&listing.ID, &listing.UserID, &listing.Type, &listing.Name,
			&listing.Bedrooms, &listing.Bathrooms, &listing.Parking, &listing.Furnished,
			&listing.Address, &listing.Description, &listing.Offer,
			&listing.RegularPrice, &listing.DiscountedPrice,
			&listing.CreatedAt, &listing.UpdatedAt,
		); err != nil {
			return nil, err
		}
		listings = append(listings, listing)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range listings {
		images, err := loadImages(ctx, listings[i].ID)
		if err != nil {
			log.Printf("Ошибка запроса изображений: %v", err)
			continue
		}
		listings[i].Images = images
	}

	return listings, nil
}

// loadImages возвращает изображения объявления в порядке позиций
func loadImages(ctx context.Context, listingID uuid.UUID) ([]models.ListingImage, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT id, listing_id, url, COALESCE(preview_url, ''), public_id, COALESCE(file_name, ''),
		       is_main, position, metadata, created_at
		FROM listing_images
		WHERE listing_id = $1
		ORDER BY position ASC
	`, listingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []models.ListingImage
	for rows.Next() {
		var img models.ListingImage
		var metadataBytes []byte

		if err := rows.Scan(
			&img.ID, &img.ListingID, &img.URL, &img.PreviewURL, &img.PublicID,
			&img.FileName, &img.IsMain, &img.Position, &metadataBytes, &img.CreatedAt,
		); err != nil {
			return nil, err
		}

		if metadataBytes != nil {
			if err := json.Unmarshal(metadataBytes, &img.Metadata); err != nil {
				log.Printf("Ошибка разбора метаданных: %v", err)
			}
		}

		images = append(images, img)
	}

	return images, rows.Err()
}
