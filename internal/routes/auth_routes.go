package routes

import (
	"mentor-academy-crm/internal/handlers"

	"github.com/gin-gonic/gin"
)

// RegisterAuthRoutes регистрирует публичные маршруты.
// Эти маршруты не требуют middleware для проверки токена.
func RegisterAuthRoutes(r *gin.Engine) {
	// Вход по телефону и PIN-коду (администраторы и ученики).
	r.POST("/login", handlers.LoginHandler)

	// Выход пользователя из системы.
	r.GET("/logout", handlers.LogoutHandler)

	// Публичная заявка на зачисление с сайта.
	r.POST("/api/enroll", handlers.CreateEnrollmentRequestHandler)
}
