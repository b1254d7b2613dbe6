package listing

import (
	"testing"

	"github.com/rsshonjoydas/realtor-api/internal/models"
)

func TestSetFieldToggleSentinels(t *testing.T) {
	d := NewDraft()

	if err := d.SetField("parking", "true"); err != nil {
		t.Fatalf("SetField(parking, true) вернул ошибку: %v", err)
	}
	if !d.Parking {
		t.Errorf("parking должен стать true")
	}

	if err := d.SetField("parking", "false"); err != nil {
		t.Fatalf("SetField(parking, false) вернул ошибку: %v", err)
	}
	if d.Parking {
		t.Errorf("parking должен стать false")
	}

	if err := d.SetField("offer", "yes"); err == nil {
		t.Errorf("значение \"yes\" должно отклоняться")
	}
}

func TestSetFieldPreservesOtherFields(t *testing.T) {
	d := NewDraft()
	d.Name = "Дом на берегу озера"
	d.Furnished = true

	if err := d.SetField("bedrooms", "4"); err != nil {
		t.Fatalf("SetField(bedrooms) вернул ошибку: %v", err)
	}

	if d.Bedrooms != 4 {
		t.Errorf("bedrooms = %d, ожидалось 4", d.Bedrooms)
	}
	// Структурное обновление: остальные поля не трогаются
	if d.Name != "Дом на берегу озера" || !d.Furnished || d.Type != models.TypeRent || d.Bathrooms != 1 {
		t.Errorf("остальные поля черновика изменились: %+v", d)
	}
}

func TestSetFieldUnknownField(t *testing.T) {
	d := NewDraft()
	if err := d.SetField("color", "red"); err == nil {
		t.Fatalf("неизвестное поле должно отклоняться")
	}
}

func TestSetFieldNumericParsing(t *testing.T) {
	d := NewDraft()

	if err := d.SetField("regularPrice", "250000"); err != nil {
		t.Fatalf("SetField(regularPrice) вернул ошибку: %v", err)
	}
	if d.RegularPrice != 250000 {
		t.Errorf("regularPrice = %d, ожидалось 250000", d.RegularPrice)
	}

	if err := d.SetField("bathrooms", "два"); err == nil {
		t.Errorf("нечисловое значение должно отклоняться")
	}
}

func TestSetFieldType(t *testing.T) {
	d := NewDraft()

	if err := d.SetField("type", models.TypeSale); err != nil {
		t.Fatalf("SetField(type, sale) вернул ошибку: %v", err)
	}
	if d.Type != models.TypeSale {
		t.Errorf("type = %s, ожидался sale", d.Type)
	}

	if err := d.SetField("type", "lease"); err == nil {
		t.Errorf("недопустимый тип должен отклоняться")
	}
}

func TestValidateNameBounds(t *testing.T) {
	d := validDraft()

	d.Name = "Кв. 5" // меньше десяти символов
	if err := d.Validate(); err == nil {
		t.Errorf("короткое название должно отклоняться")
	}

	d.Name = "Очень длинное название которое не помещается в лимит формы"
	if err := d.Validate(); err == nil {
		t.Errorf("длинное название должно отклоняться")
	}
}

func TestValidateDiscountOnlyWithOffer(t *testing.T) {
	d := validDraft()
	d.Offer = false
	d.RegularPrice = 100
	d.DiscountedPrice = 500 // без offer скидка не проверяется

	if err := d.Validate(); err != nil {
		t.Fatalf("Validate() вернул ошибку: %v", err)
	}
}

func TestDraftFromListingRoundTrip(t *testing.T) {
	l := &models.Listing{
		Type:            models.TypeSale,
		Name:            "Таунхаус в центре",
		Bedrooms:        3,
		Bathrooms:       2,
		Parking:         true,
		Address:         "пр. Мира, 10",
		Description:     "Таунхаус с гаражом",
		Offer:           true,
		RegularPrice:    900000,
		DiscountedPrice: 850000,
	}

	d := DraftFromListing(l)
	if d.Type != l.Type || d.Name != l.Name || d.Bedrooms != l.Bedrooms ||
		!d.Parking || d.DiscountedPrice != l.DiscountedPrice {
		t.Errorf("черновик не совпадает с объявлением: %+v", d)
	}
	if err := d.Validate(); err != nil {
		t.Errorf("черновик из сохраненного объявления должен проходить валидацию: %v", err)
	}
}
