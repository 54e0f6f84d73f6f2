// mentor-academy-crm/internal/routes/api_routes.go
package routes

import (
	"mentor-academy-crm/internal/handlers"
	"mentor-academy-crm/internal/middleware"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
)

// RegisterAPIRoutes регистрирует маршруты CRM. Все они доступны
// только администраторам.
func RegisterAPIRoutes(api *gin.RouterGroup) {
	apiGroup := api.Group("/api")
	apiGroup.Use(middleware.RequireRole(models.RoleAdmin))
	{
		// --- ПАНЕЛЬ УПРАВЛЕНИЯ ---
		apiGroup.GET("/dashboard", handlers.GetDashboardHandler)
		apiGroup.GET("/events/ws", handlers.EventsWSEndpoint)

		// --- УЧЕНИКИ ---
		students := apiGroup.Group("/students")
		{
			students.GET("", handlers.ListStudentsHandler)
			students.POST("", handlers.CreateStudentHandler)
			students.GET("/:id", handlers.GetStudentHandler)
			students.PUT("/:id", handlers.UpdateStudentHandler)
			students.DELETE("/:id", handlers.DeleteStudentHandler)

			// Платежи ученика: создание выдаёт номер квитанции.
			students.POST("/:id/payments", handlers.CreatePaymentHandler)
			students.GET("/:id/payments", handlers.ListStudentPaymentsHandler)

			// Черновик характеристики успеваемости (Gemini).
			students.POST("/:id/progress-note", handlers.GenerateProgressNoteHandler)
		}

		// --- ГРУППЫ ---
		batches := apiGroup.Group("/batches")
		{
			batches.GET("", handlers.ListBatchesHandler)
			batches.POST("", handlers.CreateBatchHandler)
			batches.GET("/:id", handlers.GetBatchHandler)
			batches.PUT("/:id", handlers.UpdateBatchHandler)
			batches.DELETE("/:id", handlers.DeleteBatchHandler)

			batches.GET("/:id/assessments", handlers.ListBatchAssessmentsHandler)
			batches.POST("/:id/assessments", handlers.CreateAssessmentHandler)
		}

		// --- КОНТРОЛЬНЫЕ РАБОТЫ ---
		assessments := apiGroup.Group("/assessments")
		{
			assessments.GET("/:id", handlers.GetAssessmentHandler)
			assessments.PUT("/:id", handlers.UpdateAssessmentHandler)
			assessments.DELETE("/:id", handlers.DeleteAssessmentHandler)
			assessments.PUT("/:id/scores", handlers.UpsertScoresHandler)
		}

		// --- ЗАЯВКИ НА ЗАЧИСЛЕНИЕ ---
		requests := apiGroup.Group("/requests")
		{
			requests.GET("", handlers.ListEnrollmentRequestsHandler)
			requests.PUT("/:id", handlers.UpdateEnrollmentRequestHandler)
			requests.POST("/:id/approve", handlers.ApproveEnrollmentRequestHandler)
		}

		// --- ПЛАТЕЖИ И КВИТАНЦИИ ---
		apiGroup.DELETE("/payments/:id", handlers.DeletePaymentHandler)
		apiGroup.GET("/payments/export", handlers.ExportPaymentsHandler)
		apiGroup.GET("/receipts/:publicId", handlers.GetReceiptHandler)
	}
}
