// mentor-academy-crm/main.go
package main

import (
	"log/slog"
	"os"

	"mentor-academy-crm/config"
	"mentor-academy-crm/internal/handlers"
	"mentor-academy-crm/internal/routes"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
)

func main() {
	config.LoadConfig()
	config.ConnectDB()
	config.ConnectRedis()
	config.InitGemini()

	if err := config.DB.AutoMigrate(
		&models.User{},
		&models.Batch{},
		&models.Student{},
		&models.Assessment{},
		&models.AssessmentScore{},
		&models.EnrollmentRequest{},
		&models.Payment{},
		&models.ReceiptCounter{},
		&models.RegistrationCounter{},
	); err != nil {
		slog.Error("Ошибка миграции базы данных", "error", err)
		os.Exit(1)
	}

	// Хаб событий для админских дашбордов.
	go handlers.GlobalHub.Run()

	r := gin.Default()
	routes.SetupRoutes(r)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	slog.Info("Сервер запущен", "port", port)
	if err := r.Run(":" + port); err != nil {
		slog.Error("Ошибка запуска сервера", "error", err)
		os.Exit(1)
	}
}
