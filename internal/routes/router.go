package routes

import (
	"mentor-academy-crm/internal/handlers"
	"mentor-academy-crm/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes инициализирует все маршруты приложения.
func SetupRoutes(r *gin.Engine) {
	// --- Публичные маршруты ---
	// Вход, выход и публичная форма заявки на зачисление.
	RegisterAuthRoutes(r)

	// --- Защищенная группа маршрутов ---
	// Всё остальное требует валидного JWT. Роль проверяется на уровне групп:
	// CRM доступна только администраторам, кабинет — только ученикам.
	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware())
	{
		// Смена PIN-кода доступна обеим ролям.
		authRequired.POST("/me/pin", handlers.ChangePinHandler)

		RegisterAPIRoutes(authRequired)    // CRM для администраторов
		RegisterPortalRoutes(authRequired) // личный кабинет ученика
	}
}
