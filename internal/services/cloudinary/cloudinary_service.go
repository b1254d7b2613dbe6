package cloudinary

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/models"
	"github.com/rsshonjoydas/realtor-api/internal/services/listing"
)

// CloudinaryService предоставляет методы для работы с Cloudinary
type CloudinaryService struct {
	cfg          *config.Config
	cld          *cloudinary.Cloudinary
	uploadFolder string
	uploadPreset string
}

// NewCloudinaryService создает новый экземпляр CloudinaryService
func NewCloudinaryService(cfg *config.Config) (*CloudinaryService, error) {
	cld, err := cloudinary.NewFromParams(
		cfg.CloudinaryConfig.CloudName,
		cfg.CloudinaryConfig.APIKey,
		cfg.CloudinaryConfig.APISecret,
	)
	if err != nil {
		return nil, fmt.Errorf("ошибка инициализации Cloudinary: %w", err)
	}

	return &CloudinaryService{
		cfg:          cfg,
		cld:          cld,
		uploadFolder: cfg.CloudinaryConfig.UploadFolder,
		uploadPreset: cfg.CloudinaryConfig.UploadPreset,
	}, nil
}

// UploadImage загружает одно изображение и возвращает его постоянный URL.
// Public ID содержит ID владельца, чтобы блобы группировались по пользователям.
func (s *CloudinaryService) UploadImage(ctx context.Context, ownerID uuid.UUID, img listing.ImageFile) (listing.UploadedImage, error) {
	publicID := fmt.Sprintf("%s/%s", ownerID, uuid.New())

	resp, err := s.cld.Upload.Upload(ctx, img.Reader, uploader.UploadParams{
		Folder:   s.uploadFolder,
		PublicID: publicID,
	})
	if err != nil {
		return listing.UploadedImage{}, fmt.Errorf("ошибка загрузки в Cloudinary: %w", err)
	}
	if resp.Error.Message != "" {
		return listing.UploadedImage{}, fmt.Errorf("ошибка загрузки в Cloudinary: %s", resp.Error.Message)
	}

	return listing.UploadedImage{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		FileName: img.FileName,
		Metadata: models.ImageMetadata{
			AssetID:   resp.AssetID,
			PublicID:  resp.PublicID,
			Width:     resp.Width,
			Height:    resp.Height,
			CreatedAt: resp.CreatedAt,
			Bytes:     resp.Bytes,
		},
	}, nil
}

// DestroyImage удаляет блоб по public_id
func (s *CloudinaryService) DestroyImage(ctx context.Context, publicID string) error {
	resp, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("ошибка удаления из Cloudinary: %w", err)
	}
	if resp.Result != "ok" && resp.Result != "not found" {
		return errors.New("ошибка удаления из Cloudinary: " + resp.Result)
	}
	return nil
}

// GenerateSignature создаёт корректную подпись для Cloudinary
func (s *CloudinaryService) GenerateSignature(params map[string]string) string {
	// Сортируем ключи параметров
	var keys []string
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// Формируем строку для подписи
	var signParts []string
	for _, k := range keys {
		signParts = append(signParts, fmt.Sprintf("%s=%s", k, params[k]))
	}
	signatureString := strings.Join(signParts, "&")

	// Добавляем API-секрет в конец строки
	signatureString += s.cfg.CloudinaryConfig.APISecret

	// Создаем SHA-1 хеш
	h := sha1.New()
	h.Write([]byte(signatureString))

	// Возвращаем подпись в виде шестнадцатеричной строки
	return hex.EncodeToString(h.Sum(nil))
}

// GenerateUploadParams создаёт параметры для прямой загрузки из браузера:
// клиент грузит файлы сам и показывает прогресс, сервер только подписывает
func (s *CloudinaryService) GenerateUploadParams(c fiber.Ctx) error {
	// Генерируем ID для объявления, если не передан
	listingID := c.Query("listing_id")
	if listingID == "" {
		listingID = uuid.New().String()
	}

	// Текущий timestamp
	timestamp := fmt.Sprintf("%d", time.Now().Unix())

	// Параметры для подписи
	params := map[string]string{
		"timestamp": timestamp,
		"folder":    s.uploadFolder,
	}

	// Генерируем подпись
	signature := s.GenerateSignature(params)

	// Возвращаем параметры
	return c.JSON(fiber.Map{
		"timestamp":  timestamp,
		"folder":     s.uploadFolder,
		"signature":  signature,
		"api_key":    s.cfg.CloudinaryConfig.APIKey,
		"cloud_name": s.cfg.CloudinaryConfig.CloudName,
		"listing_id": listingID,
	})
}
