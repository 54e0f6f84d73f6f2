// mentor-academy-crm/internal/routes/portal_routes.go
package routes

import (
	"mentor-academy-crm/internal/handlers"
	"mentor-academy-crm/internal/middleware"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
)

// RegisterPortalRoutes регистрирует маршруты личного кабинета ученика.
// Кабинет строго read-only и отдаёт только данные самого ученика.
func RegisterPortalRoutes(api *gin.RouterGroup) {
	portal := api.Group("/portal")
	portal.Use(middleware.RequireRole(models.RoleStudent))
	{
		portal.GET("/me", handlers.PortalMeHandler)
		portal.GET("/payments", handlers.PortalPaymentsHandler)
		portal.GET("/results", handlers.PortalResultsHandler)
	}
}
