package auth

import (
	"encoding/json"
	"testing"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

// Колонка raw_data объявлена как JSONB, поэтому туда можно писать только
// валидный JSON. Сырые initData — это query string, и их надо сериализовать.
func TestTelegramRawDataIsValidJSON(t *testing.T) {
	rawInitData := "query_id=AAH&user=%7B%22id%22%3A99281932%7D&auth_date=1716922846&hash=abc"
	if json.Valid([]byte(rawInitData)) {
		t.Fatalf("сырые initData не должны быть валидным JSON, иначе тест ничего не проверяет")
	}

	data := initdata.InitData{
		QueryID: "AAH",
		User: initdata.User{
			ID:        99281932,
			FirstName: "Иван",
			LastName:  "Петров",
		},
	}

	raw, err := telegramRawData(data)
	if err != nil {
		t.Fatalf("telegramRawData() вернула ошибку: %v", err)
	}
	if !json.Valid(raw) {
		t.Fatalf("raw_data должна быть валидным JSON, получено: %s", raw)
	}

	var decoded initdata.InitData
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("raw_data не разбирается обратно: %v", err)
	}
	if decoded.User.ID != data.User.ID {
		t.Fatalf("ID пользователя %d, ожидался %d", decoded.User.ID, data.User.ID)
	}
}
