// mentor-academy-crm/internal/handlers/enrollment_handler.go
package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EnrollmentRequestInput struct {
	StudentName string `json:"studentName" binding:"required"`
	Phone       string `json:"phone" binding:"required"`
	School      string `json:"school"`
	Grade       string `json:"grade"`
	Subjects    string `json:"subjects"`
	Message     string `json:"message"`
}

func validRequestStatus(s string) bool {
	switch s {
	case models.RequestNew, models.RequestContacted, models.RequestApproved, models.RequestRejected:
		return true
	}
	return false
}

// CreateEnrollmentRequestHandler принимает публичную заявку с сайта.
func CreateEnrollmentRequestHandler(c *gin.Context) {
	var input EnrollmentRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите имя ученика и телефон"})
		return
	}

	request := models.EnrollmentRequest{
		StudentName: strings.TrimSpace(input.StudentName),
		Phone:       strings.TrimSpace(input.Phone),
		School:      input.School,
		Grade:       input.Grade,
		Subjects:    input.Subjects,
		Message:     input.Message,
		Status:      models.RequestNew,
	}
	if err := config.DB.Create(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить заявку"})
		return
	}

	GlobalHub.BroadcastEvent("request.created", gin.H{
		"id":          request.ID,
		"studentName": request.StudentName,
	})

	c.JSON(http.StatusCreated, gin.H{"request": request})
}

// ListEnrollmentRequestsHandler возвращает заявки с фильтром по статусу.
func ListEnrollmentRequestsHandler(c *gin.Context) {
	var requests []models.EnrollmentRequest
	var totalRows int64

	baseQuery := config.DB.Model(&models.EnrollmentRequest{}).Preload("ConvertedStudent")

	if status := c.Query("status"); status != "" {
		if !validRequestStatus(status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус заявки"})
			return
		}
		baseQuery = baseQuery.Where("status = ?", status)
	}

	if err := baseQuery.Count(&totalRows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать заявки"})
		return
	}

	if err := baseQuery.Scopes(Paginate(c)).Order("created_at DESC").Find(&requests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список заявок"})
		return
	}

	if requests == nil {
		requests = make([]models.EnrollmentRequest, 0)
	}

	c.JSON(http.StatusOK, CreatePaginatedResponse(c, requests, totalRows))
}

// UpdateEnrollmentRequestHandler меняет статус заявки (NEW -> CONTACTED и т.п.).
// Перевод в APPROVED делается только через ApproveEnrollmentRequestHandler,
// потому что одобрение создаёт профиль ученика.
func UpdateEnrollmentRequestHandler(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID заявки"})
		return
	}

	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Не указан статус"})
		return
	}
	if !validRequestStatus(body.Status) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестный статус заявки"})
		return
	}
	if body.Status == models.RequestApproved {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Одобрение выполняется через /approve"})
		return
	}

	var request models.EnrollmentRequest
	if err := config.DB.First(&request, requestID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске заявки"})
		return
	}
	if request.Status == models.RequestApproved {
		c.JSON(http.StatusConflict, gin.H{"error": "Заявка уже одобрена"})
		return
	}

	request.Status = body.Status
	if err := config.DB.Save(&request).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить заявку"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": request})
}

type ApproveRequestInput struct {
	RegistrationNo string `json:"registrationNo"`
	BatchID        *uint  `json:"batchId"`
	MonthlyFee     *int   `json:"monthlyFee"`
}

// ApproveEnrollmentRequestHandler одобряет заявку: в одной транзакции создаёт
// профиль ученика, связывает его с заявкой и ставит статус APPROVED.
func ApproveEnrollmentRequestHandler(c *gin.Context) {
	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID заявки"})
		return
	}

	var input ApproveRequestInput
	if err := c.ShouldBindJSON(&input); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	if input.MonthlyFee != nil && *input.MonthlyFee <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Абонентская плата должна быть положительной"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	var request models.EnrollmentRequest
	if err := tx.First(&request, requestID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Заявка не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске заявки"})
		return
	}
	if request.Status == models.RequestApproved {
		tx.Rollback()
		c.JSON(http.StatusConflict, gin.H{"error": "Заявка уже одобрена"})
		return
	}

	regNo := strings.TrimSpace(input.RegistrationNo)
	if regNo == "" {
		regNo, err = nextRegistrationNo(tx)
		if err != nil {
			tx.Rollback()
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать регистрационный номер"})
			return
		}
	}

	now := time.Now()
	student := models.Student{
		RegistrationNo: regNo,
		FullName:       request.StudentName,
		Phone:          request.Phone,
		Grade:          request.Grade,
		School:         request.School,
		Status:         models.StudentActive,
		MonthlyFee:     input.MonthlyFee,
		AdmittedAt:     &now,
		BatchID:        input.BatchID,
	}
	if err := tx.Create(&student).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrDuplicatedKey {
			c.JSON(http.StatusConflict, gin.H{"error": "Регистрационный номер уже занят"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать ученика"})
		return
	}

	request.Status = models.RequestApproved
	request.ConvertedStudentID = &student.ID
	if err := tx.Save(&request).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить заявку"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить транзакцию"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request": request,
		"student": student,
	})
}

// nextRegistrationNo выдаёт свободный регистрационный номер вида MA-2026-0042
// из годового счётчика registration_counters. Инкремент — тот же UPSERT, что
// у счётчика квитанций: параллельные одобрения сериализуются на блокировке
// строки и получают разные номера. Значения, занятые вручную заведёнными
// учениками, пропускаются дополнительным инкрементом.
func nextRegistrationNo(tx *gorm.DB) (string, error) {
	year := time.Now().Year()
	for {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "year"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"last_number": gorm.Expr("registration_counters.last_number + 1"),
				"updated_at":  time.Now(),
			}),
		}).Create(&models.RegistrationCounter{Year: year, LastNumber: 1}).Error
		if err != nil {
			return "", err
		}

		var counter models.RegistrationCounter
		if err := tx.Take(&counter, "year = ?", year).Error; err != nil {
			return "", err
		}

		candidate := fmt.Sprintf("MA-%d-%04d", year, counter.LastNumber)
		var taken int64
		if err := tx.Model(&models.Student{}).
			Where("registration_no = ?", candidate).Count(&taken).Error; err != nil {
			return "", err
		}
		if taken == 0 {
			return candidate, nil
		}
	}
}
