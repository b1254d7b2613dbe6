package main

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rsshonjoydas/realtor-api/internal/config"
	"github.com/rsshonjoydas/realtor-api/internal/db"
	"github.com/rsshonjoydas/realtor-api/internal/mailer"
	"github.com/rsshonjoydas/realtor-api/internal/middleware"
	"github.com/rsshonjoydas/realtor-api/internal/services/auth"
	"github.com/rsshonjoydas/realtor-api/internal/services/cloudinary"
	"github.com/rsshonjoydas/realtor-api/internal/services/favorite"
	"github.com/rsshonjoydas/realtor-api/internal/services/listing"
	"github.com/rsshonjoydas/realtor-api/internal/services/profile"
)

func main() {
	// Загружаем конфигурацию
	cfg := config.LoadConfig()

	// Инициализируем базу данных
	if err := db.InitDB(cfg); err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer db.CloseDB()

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Realtor API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	authService := auth.NewAuthService(cfg, mailer.LogMailer{})
	cloudinaryService, err := cloudinary.NewCloudinaryService(cfg)
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации Cloudinary: %v", err)
	}
	listingService := listing.NewListingService(cfg, cloudinaryService)
	profileService := profile.NewProfileService(cfg)
	favoriteService := favorite.NewFavoriteService(cfg)

	// Разбор сессии для всех маршрутов
	app.Use(middleware.ResolveSession(authService.GetJWTService()))

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	profileService.SetupRoutes(app)
	listingService.SetupRoutes(app)
	favoriteService.SetupRoutes(app)
	cloudinaryService.SetupRoutes(app)

	// Запускаем сервер
	log.Printf("✅ Realtor API запущен на порту %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
