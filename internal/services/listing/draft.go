package listing

import (
	"fmt"
	"io"
	"strconv"
	"unicode/utf8"

	"github.com/rsshonjoydas/realtor-api/internal/models"
)

// ImageFile — еще не загруженное изображение из формы
type ImageFile struct {
	FileName string
	Size     int64
	Reader   io.Reader
}

// Draft — черновик объявления, заполняемый полями формы.
// Черновик живет только до успешной отправки; при ошибке возвращается
// пользователю нетронутым, чтобы не вводить данные заново.
type Draft struct {
	Type            string
	Name            string
	Bedrooms        int
	Bathrooms       int
	Parking         bool
	Furnished       bool
	Address         string
	Description     string
	Offer           bool
	RegularPrice    int64
	DiscountedPrice int64
	Images          []ImageFile
	// Uploaded — ссылки на блобы, которые клиент уже загрузил напрямую
	// по подписанным параметрам из /api/upload/params
	Uploaded []UploadedImage
}

// NewDraft возвращает пустой черновик с дефолтами формы
func NewDraft() *Draft {
	return &Draft{
		Type:      models.TypeRent,
		Bedrooms:  1,
		Bathrooms: 1,
	}
}

// DraftFromListing наполняет черновик сохраненным объявлением (путь редактирования)
func DraftFromListing(l *models.Listing) *Draft {
	return &Draft{
		Type:            l.Type,
		Name:            l.Name,
		Bedrooms:        l.Bedrooms,
		Bathrooms:       l.Bathrooms,
		Parking:         l.Parking,
		Furnished:       l.Furnished,
		Address:         l.Address,
		Description:     l.Description,
		Offer:           l.Offer,
		RegularPrice:    l.RegularPrice,
		DiscountedPrice: l.DiscountedPrice,
	}
}

// SetField присваивает одно поле черновика по идентификатору поля формы.
// Кнопки-переключатели формы шлют строки "true"/"false" — они превращаются
// в булевы значения; числовые поля разбираются строго. Неизвестный
// идентификатор — ошибка, а не молчаливое присваивание по ключу.
// Остальные поля черновика не затрагиваются.
func (d *Draft) SetField(fieldID, raw string) error {
	switch fieldID {
	case "type":
		if raw != models.TypeSale && raw != models.TypeRent {
			return fmt.Errorf("недопустимый тип объявления: %q", raw)
		}
		d.Type = raw
	case "name":
		d.Name = raw
	case "bedrooms":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("поле bedrooms должно быть числом: %q", raw)
		}
		d.Bedrooms = n
	case "bathrooms":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("поле bathrooms должно быть числом: %q", raw)
		}
		d.Bathrooms = n
	case "parking":
		b, err := parseToggle(raw)
		if err != nil {
			return fmt.Errorf("поле parking: %w", err)
		}
		d.Parking = b
	case "furnished":
		b, err := parseToggle(raw)
		if err != nil {
			return fmt.Errorf("поле furnished: %w", err)
		}
		d.Furnished = b
	case "address":
		d.Address = raw
	case "description":
		d.Description = raw
	case "offer":
		b, err := parseToggle(raw)
		if err != nil {
			return fmt.Errorf("поле offer: %w", err)
		}
		d.Offer = b
	case "regularPrice":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("поле regularPrice должно быть числом: %q", raw)
		}
		d.RegularPrice = n
	case "discountedPrice":
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("поле discountedPrice должно быть числом: %q", raw)
		}
		d.DiscountedPrice = n
	default:
		return fmt.Errorf("неизвестное поле формы: %q", fieldID)
	}

	return nil
}

// parseToggle разбирает сентинельные значения двойных кнопок
func parseToggle(raw string) (bool, error) {
	switch raw {
	case "true":
		return true, nil
	case "false":
		return false, nil
	}
	return false, fmt.Errorf("ожидалось \"true\" или \"false\", получено %q", raw)
}

// Границы значений формы
const (
	minNameLen = 10
	maxNameLen = 32
	minRooms   = 1
	maxRooms   = 50
	minPrice   = 50
	maxPrice   = 400000000
)

// Validate проверяет черновик перед любым обращением к хранилищам.
// Порядок проверок фиксирован: сначала локальные поля, затем скидка и
// количество изображений — ни одна загрузка не начинается до валидации.
func (d *Draft) Validate() error {
	if d.Type != models.TypeSale && d.Type != models.TypeRent {
		return validationError("Тип объявления должен быть sale или rent")
	}
	if n := utf8.RuneCountInString(d.Name); n < minNameLen || n > maxNameLen {
		return validationError(fmt.Sprintf("Название должно быть от %d до %d символов", minNameLen, maxNameLen))
	}
	if d.Bedrooms < minRooms || d.Bedrooms > maxRooms {
		return validationError("Недопустимое количество спален")
	}
	if d.Bathrooms < minRooms || d.Bathrooms > maxRooms {
		return validationError("Недопустимое количество ванных")
	}
	if d.Address == "" {
		return validationError("Адрес обязателен")
	}
	if d.Description == "" {
		return validationError("Описание обязательно")
	}
	if d.RegularPrice < minPrice || d.RegularPrice > maxPrice {
		return validationError("Недопустимая цена")
	}
	if d.Offer {
		if d.DiscountedPrice < minPrice || d.DiscountedPrice > maxPrice {
			return validationError("Недопустимая цена со скидкой")
		}
		if d.DiscountedPrice >= d.RegularPrice {
			return validationError("Цена со скидкой должна быть меньше обычной цены")
		}
	}
	if len(d.Images)+len(d.Uploaded) > models.MaxListingImages {
		return validationError(fmt.Sprintf("Не больше %d изображений", models.MaxListingImages))
	}

	return nil
}
