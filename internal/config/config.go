package config

import (
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
)

// Config структура конфигурации
type Config struct {
	Port             string
	JWTSecret        string
	AppBaseURL       string
	DatabaseURL      string
	DatabaseConfig   DatabaseConfig
	CloudinaryConfig CloudinaryConfig
	GoogleConfig     GoogleConfig
	TelegramBotToken string
	AppEnv           string // Окружение приложения
}

// DatabaseConfig содержит конфигурацию базы данных
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// CloudinaryConfig содержит конфигурацию для Cloudinary
type CloudinaryConfig struct {
	CloudName    string
	APIKey       string
	APISecret    string
	UploadPreset string
	UploadFolder string
}

// GoogleConfig содержит параметры OAuth-входа через Google
type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// LoadConfig загружает переменные из .env
func LoadConfig() *Config {
	err := godotenv.Load()
	if err != nil {
		log.Println("⚠️ .env файл не найден, используем переменные окружения")
	}

	dbConfig := DatabaseConfig{
		Host:     getEnv("PGHOST", "localhost"),
		Port:     getEnv("PGPORT", "5432"),
		User:     getEnv("PGUSER", "realtor_user"),
		Password: getEnv("PGPASSWORD", "realtor_pass"),
		Name:     getEnv("PGDATABASE", "realtor"),
		SSLMode:  getEnv("PGSSLMODE", "disable"),
	}

	// Формируем строку подключения к базе данных
	dbURL := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		dbConfig.User, dbConfig.Password, dbConfig.Host, dbConfig.Port, dbConfig.Name, dbConfig.SSLMode)

	cloudinaryConfig := CloudinaryConfig{
		CloudName:    getEnv("CLOUDINARY_CLOUD_NAME", ""),
		APIKey:       getEnv("CLOUDINARY_API_KEY", ""),
		APISecret:    getEnv("CLOUDINARY_API_SECRET", ""),
		UploadPreset: getEnv("CLOUDINARY_UPLOAD_PRESET", "realtor_listings"),
		UploadFolder: getEnv("CLOUDINARY_UPLOAD_FOLDER", "listings"),
	}

	googleConfig := GoogleConfig{
		ClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		ClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		RedirectURL:  getEnv("GOOGLE_REDIRECT_URL", ""),
	}

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		AppBaseURL:       getEnv("APP_BASE_URL", "http://localhost:3000"),
		DatabaseURL:      dbURL,
		DatabaseConfig:   dbConfig,
		CloudinaryConfig: cloudinaryConfig,
		GoogleConfig:     googleConfig,
		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		AppEnv:           getEnv("APP_ENV", "production"), // По умолчанию production
	}

	if cfg.JWTSecret == "" {
		log.Fatal("❌ Ошибка: Не задан JWT_SECRET")
	}

	if cfg.GoogleConfig.ClientID == "" {
		log.Println("⚠️ GOOGLE_CLIENT_ID не задан, вход через Google отключен")
	}

	if cfg.TelegramBotToken == "" {
		log.Println("⚠️ TELEGRAM_BOT_TOKEN не задан, вход через Telegram отключен")
	}

	return cfg
}

// getEnv получает переменную окружения или использует дефолтное значение
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
