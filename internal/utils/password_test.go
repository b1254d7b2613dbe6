package utils

import "testing"

func TestPasswordHashAndCheck(t *testing.T) {
	hash, err := HashPassword("secret123")
	if err != nil {
		t.Fatalf("HashPassword() вернул ошибку: %v", err)
	}
	if hash == "secret123" {
		t.Fatalf("пароль не должен храниться открытым текстом")
	}

	if !CheckPassword(hash, "secret123") {
		t.Errorf("правильный пароль должен проходить проверку")
	}
	if CheckPassword(hash, "secret124") {
		t.Errorf("неправильный пароль не должен проходить проверку")
	}
}
