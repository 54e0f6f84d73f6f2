// mentor-academy-crm/internal/handlers/student_handler.go
package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/Knetic/govaluate"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// --- Структуры для входящих данных и ответов по УЧЕНИКАМ ---

type StudentInput struct {
	RegistrationNo string `json:"registrationNo" binding:"required"`
	FullName       string `json:"fullName" binding:"required"`
	Phone          string `json:"phone"`
	GuardianPhone  string `json:"guardianPhone"`
	Grade          string `json:"grade"`
	School         string `json:"school"`
	PhotoURL       string `json:"photoUrl"`
	Status         string `json:"status"`
	MonthlyFee     *int   `json:"monthlyFee"`
	BatchID        *uint  `json:"batchId"`
}

// MonthStatus — состояние оплаты абонентской платы за один месяц.
type MonthStatus struct {
	Month  string `json:"month"` // YYYY-MM
	Total  int    `json:"total"`
	Status string `json:"status"` // Paid / Partial / Unpaid
}

func validStudentStatus(s string) bool {
	switch s {
	case models.StudentActive, models.StudentPaused, models.StudentGraduated, models.StudentDropped:
		return true
	}
	return false
}

// ListStudentsHandler возвращает постраничный список учеников с поиском по
// имени, регистрационному номеру и телефону и фильтрами по статусу и группе.
func ListStudentsHandler(c *gin.Context) {
	var students []models.Student
	var totalRows int64

	baseQuery := config.DB.Model(&models.Student{}).Preload("Batch")

	if searchQuery := c.Query("search"); searchQuery != "" {
		searchPattern := "%" + strings.ToLower(searchQuery) + "%"
		baseQuery = baseQuery.Where(
			"LOWER(full_name) LIKE ? OR LOWER(registration_no) LIKE ? OR phone LIKE ?",
			searchPattern, searchPattern, searchPattern,
		)
	}

	if status := c.Query("status"); status != "" {
		if !validStudentStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус ученика"})
			return
		}
		baseQuery = baseQuery.Where("status = ?", status)
	}

	if batchIDStr := c.Query("batch_id"); batchIDStr != "" {
		batchID, err := strconv.Atoi(batchIDStr)
		if err == nil {
			baseQuery = baseQuery.Where("batch_id = ?", batchID)
		}
	}

	if err := baseQuery.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать учеников"})
		return
	}

	if err := baseQuery.Scopes(Paginate(c)).Order("created_at DESC").Find(&students).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список учеников"})
		return
	}

	if students == nil {
		students = make([]models.Student, 0)
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, students, totalRows))
}

// CreateStudentHandler создаёт профиль ученика.
func CreateStudentHandler(c *gin.Context) {
	var input StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	status := input.Status
	if status == "" {
		status = models.StudentActive
	}
	if !validStudentStatus(status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус ученика"})
		return
	}
	if input.MonthlyFee != nil && *input.MonthlyFee <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Абонентская плата должна быть положительной"})
		return
	}

	now := time.Now()
	student := models.Student{
		RegistrationNo: strings.TrimSpace(input.RegistrationNo),
		FullName:       strings.TrimSpace(input.FullName),
		Phone:          input.Phone,
		GuardianPhone:  input.GuardianPhone,
		Grade:          input.Grade,
		School:         input.School,
		PhotoURL:       input.PhotoURL,
		Status:         status,
		MonthlyFee:     input.MonthlyFee,
		AdmittedAt:     &now,
		BatchID:        input.BatchID,
	}

	if err := config.DB.Create(&student).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			c.JSON(http.StatusConflict, gin.H{"error": "Регистрационный номер уже занят"})
			return
		}
		slog.Error("Не удалось создать ученика", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать ученика"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"student": student})
}

// GetStudentHandler возвращает карточку ученика: профиль, результаты работ
// и статус оплаты абонентской платы за последние шесть месяцев.
func GetStudentHandler(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID ученика"})
		return
	}

	var student models.Student
	if err := config.DB.Preload("Batch").
		Preload("Scores.Assessment").
		First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ученик не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске ученика"})
		return
	}

	statuses, err := monthlyStatuses(&student, time.Now())
	if err != nil {
		slog.Error("Не удалось рассчитать статус оплаты", "error", err, "student_id", student.ID)
		// Карточку всё равно отдаём, просто без блока задолженности.
		statuses = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"student":       student,
		"monthlyStatus": statuses,
	})
}

// UpdateStudentHandler обновляет профиль ученика.
func UpdateStudentHandler(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID ученика"})
		return
	}

	var student models.Student
	if err := config.DB.First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ученик не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске ученика"})
		return
	}

	var input StudentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	if input.Status != "" && !validStudentStatus(input.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус ученика"})
		return
	}
	if input.MonthlyFee != nil && *input.MonthlyFee <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Абонентская плата должна быть положительной"})
		return
	}

	student.RegistrationNo = strings.TrimSpace(input.RegistrationNo)
	student.FullName = strings.TrimSpace(input.FullName)
	student.Phone = input.Phone
	student.GuardianPhone = input.GuardianPhone
	student.Grade = input.Grade
	student.School = input.School
	student.PhotoURL = input.PhotoURL
	if input.Status != "" {
		student.Status = input.Status
	}
	student.MonthlyFee = input.MonthlyFee
	student.BatchID = input.BatchID

	if err := config.DB.Save(&student).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			c.JSON(http.StatusConflict, gin.H{"error": "Регистрационный номер уже занят"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить ученика"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"student": student})
}

// DeleteStudentHandler помечает ученика удалённым (soft delete).
func DeleteStudentHandler(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID ученика"})
		return
	}

	res := config.DB.Delete(&models.Student{}, studentID)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить ученика"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Ученик не найден"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Ученик удалён"})
}

// monthlyStatuses считает оплату абонентской платы за последние шесть месяцев.
// Учитываются только платежи категории MONTHLY. Если у группы ученика задана
// формула задолженности, она вычисляется через govaluate с параметрами
// fee, paid и month (номер месяца); положительный результат — долг.
// Без формулы действует обычное сравнение: paid >= fee — оплачено.
func monthlyStatuses(student *models.Student, now time.Time) ([]MonthStatus, error) {
	if student.MonthlyFee == nil {
		return nil, nil
	}
	fee := *student.MonthlyFee

	var payments []models.Payment
	if err := config.DB.
		Where("student_id = ? AND category = ?", student.ID, models.PaymentMonthly).
		Find(&payments).Error; err != nil {
		return nil, err
	}

	totals := make(map[string]int)
	for _, p := range payments {
		key := fmt.Sprintf("%04d-%02d", p.AppliesToMonth.Year(), int(p.AppliesToMonth.Month()))
		totals[key] += p.Amount
	}

	var expr *govaluate.EvaluableExpression
	if student.Batch != nil && student.Batch.DuesFormula != "" {
		var err error
		expr, err = govaluate.NewEvaluableExpression(student.Batch.DuesFormula)
		if err != nil {
			return nil, fmt.Errorf("ошибка в формуле задолженности группы: %w", err)
		}
	}

	var statuses []MonthStatus
	for _, key := range lastMonths(now, 6) {
		paid := totals[key]

		due := float64(fee - paid)
		if expr != nil {
			monthNum, _ := strconv.Atoi(key[5:])
			result, err := expr.Evaluate(map[string]interface{}{
				"fee":   float64(fee),
				"paid":  float64(paid),
				"month": float64(monthNum),
			})
			if err != nil {
				return nil, fmt.Errorf("не удалось вычислить формулу задолженности: %w", err)
			}
			f, ok := result.(float64)
			if !ok {
				return nil, fmt.Errorf("формула задолженности вернула не число")
			}
			due = f
		}

		status := "Unpaid"
		switch {
		case due <= 0:
			status = "Paid"
		case paid > 0:
			status = "Partial"
		}
		statuses = append(statuses, MonthStatus{Month: key, Total: paid, Status: status})
	}

	return statuses, nil
}
