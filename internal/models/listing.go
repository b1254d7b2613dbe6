package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы объявления: продажа или аренда
const (
	TypeSale = "sale"
	TypeRent = "rent"
)

// MaxListingImages — не больше шести изображений на объявление,
// первое по порядку считается обложкой
const MaxListingImages = 6

// Listing представляет объявление о недвижимости
type Listing struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"user_id"`
	Type            string         `json:"type"` // sale | rent
	Name            string         `json:"name"`
	Bedrooms        int            `json:"bedrooms"`
	Bathrooms       int            `json:"bathrooms"`
	Parking         bool           `json:"parking"`
	Furnished       bool           `json:"furnished"`
	Address         string         `json:"address"`
	Description     string         `json:"description"`
	Offer           bool           `json:"offer"`
	RegularPrice    int64          `json:"regular_price"`
	DiscountedPrice int64          `json:"discounted_price,omitempty"`
	Images          []ListingImage `json:"images"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CoverImage возвращает URL обложки — изображения с позицией 0
func (l *Listing) CoverImage() string {
	if len(l.Images) == 0 {
		return ""
	}
	return l.Images[0].URL
}

// ListingImage представляет изображение объявления
type ListingImage struct {
	ID         uuid.UUID     `json:"id"`
	ListingID  uuid.UUID     `json:"listing_id"`
	URL        string        `json:"url"`
	PreviewURL string        `json:"preview_url,omitempty"`
	PublicID   string        `json:"public_id"`
	FileName   string        `json:"file_name,omitempty"`
	IsMain     bool          `json:"is_main"`
	Position   int           `json:"position"`
	Metadata   ImageMetadata `json:"metadata,omitempty"`
	CreatedAt  time.Time     `json:"created_at"`
}

// ImageMetadata содержит ключевые метаданные изображения из Cloudinary
type ImageMetadata struct {
	AssetID   string    `json:"asset_id"`
	PublicID  string    `json:"public_id"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
	Bytes     int       `json:"bytes"`
}

// User представляет минимальную информацию о владельце объявления для API
type User struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	AvatarURL string    `json:"avatar_url,omitempty"`
}
