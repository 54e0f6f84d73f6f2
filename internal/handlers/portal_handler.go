// mentor-academy-crm/internal/handlers/portal_handler.go

// Личный кабинет ученика. Все обработчики работают только с профилем,
// привязанным к учётной записи из токена: чужие данные отсюда недоступны.
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// portalStudent загружает профиль ученика текущего пользователя кабинета.
func portalStudent(c *gin.Context) (*models.Student, bool) {
	studentID, ok := currentStudentID(c)
	if !ok {
		c.JSON(http.StatusForbidden, gin.H{"error": "Учётная запись не привязана к профилю ученика"})
		return nil, false
	}

	var student models.Student
	if err := config.DB.Preload("Batch").First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Профиль ученика не найден"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске профиля"})
		return nil, false
	}
	return &student, true
}

// PortalMeHandler — профиль и статус оплаты за последние месяцы.
func PortalMeHandler(c *gin.Context) {
	student, ok := portalStudent(c)
	if !ok {
		return
	}

	statuses, err := monthlyStatuses(student, time.Now())
	if err != nil {
		slog.Error("Не удалось рассчитать статус оплаты", "error", err, "student_id", student.ID)
		statuses = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"student":       student,
		"monthlyStatus": statuses,
	})
}

// PortalPaymentsHandler — собственная история платежей с номерами квитанций.
func PortalPaymentsHandler(c *gin.Context) {
	student, ok := portalStudent(c)
	if !ok {
		return
	}

	var payments []models.Payment
	if err := config.DB.Where("student_id = ?", student.ID).
		Order("applies_to_month DESC, paid_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// PortalResultsHandler — собственные результаты контрольных работ.
func PortalResultsHandler(c *gin.Context) {
	student, ok := portalStudent(c)
	if !ok {
		return
	}

	var scores []models.AssessmentScore
	if err := config.DB.Preload("Assessment").
		Where("student_id = ?", student.ID).
		Find(&scores).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить результаты"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"scores": scores})
}
