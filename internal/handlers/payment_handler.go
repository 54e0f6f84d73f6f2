// mentor-academy-crm/internal/handlers/payment_handler.go
package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/internal/receipts"
	"mentor-academy-crm/models"

	"github.com/divan/num2words"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// CreatePaymentRequest определяет структуру для входящих данных платежа.
type CreatePaymentRequest struct {
	Amount         int    `json:"amount" binding:"required"`
	Category       string `json:"category" binding:"required"`
	AppliesToMonth string `json:"appliesToMonth" binding:"required"`
	Note           string `json:"note"`
}

// CreatePaymentHandler принимает платёж ученика и в одной транзакции выдаёт
// ему номер квитанции. Инкремент счётчика и вставка платежа — единое целое:
// если вставка не удалась, откатывается и инкремент, номер не теряется.
func CreatePaymentHandler(c *gin.Context) {
	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID ученика"})
		return
	}

	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	// Вся валидация — до открытия транзакции.
	if req.Amount <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Сумма должна быть положительным целым числом"})
		return
	}
	if !models.ValidPaymentCategory(req.Category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неизвестная категория платежа"})
		return
	}
	appliesTo, err := receipts.ParseMonth(req.AppliesToMonth)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Месяц должен быть в формате YYYY-MM"})
		return
	}

	adminID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не определён"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	var student models.Student
	if err := tx.First(&student, studentID).Error; err != nil {
		tx.Rollback()
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ученик не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске ученика"})
		return
	}

	receipt, err := receipts.Issue(tx, appliesTo)
	if err != nil {
		tx.Rollback()
		if errors.Is(err, receipts.ErrCounterUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Счётчик квитанций временно недоступен, повторите попытку"})
			return
		}
		slog.Error("Ошибка выдачи номера квитанции", "error", err, "month", req.AppliesToMonth)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось выдать номер квитанции"})
		return
	}

	payment := models.Payment{
		PublicID:        uuid.NewString(),
		StudentID:       student.ID,
		Amount:          req.Amount,
		Category:        req.Category,
		AppliesToMonth:  appliesTo,
		PaidAt:          time.Now(),
		ReceiptNo:       &receipt.No,
		ReceiptIssuedAt: &receipt.IssuedAt,
		Note:            strings.TrimSpace(req.Note),
		CreatedByUserID: adminID,
	}

	if err := tx.Create(&payment).Error; err != nil {
		tx.Rollback()
		slog.Error("Не удалось сохранить платёж", "error", err, "student_id", student.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить платёж"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить транзакцию"})
		return
	}

	GlobalHub.BroadcastEvent("payment.created", gin.H{
		"studentId": student.ID,
		"fullName":  student.FullName,
		"amount":    payment.Amount,
		"receiptNo": receipt.No,
	})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// ListStudentPaymentsHandler возвращает историю платежей ученика:
// сначала по расчётному месяцу (новые выше), внутри месяца — по дате оплаты.
func ListStudentPaymentsHandler(c *gin.Context) {
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

	var payments []models.Payment
	if err := config.DB.Preload("CreatedByUser").
		Where("student_id = ?", studentID).
		Order("applies_to_month DESC, paid_at DESC").
		Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// DeletePaymentHandler удаляет платёж. Счётчик квитанций при этом не трогаем:
// номера не переиспользуются, следующий платёж месяца продолжит нумерацию.
func DeletePaymentHandler(c *gin.Context) {
	paymentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || paymentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID платежа"})
		return
	}

	var payment models.Payment
	if err := config.DB.First(&payment, paymentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Платёж не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске платежа"})
		return
	}

	if err := config.DB.Delete(&payment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить платёж"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Платёж удалён"})
}

// GetReceiptHandler собирает печатную форму квитанции по публичному ID платежа.
func GetReceiptHandler(c *gin.Context) {
	publicID := c.Param("publicId")

	var payment models.Payment
	if err := config.DB.Preload("Student").Preload("CreatedByUser").
		Where("public_id = ?", publicID).First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Квитанция не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске квитанции"})
		return
	}

	receiptNo := "N/A"
	if payment.ReceiptNo != nil {
		receiptNo = *payment.ReceiptNo
	}

	// Сумма прописью для печатной формы.
	amountWords := num2words.Convert(payment.Amount) + " taka only"

	resp := gin.H{
		"receiptNo":       receiptNo,
		"receiptIssuedAt": payment.ReceiptIssuedAt,
		"amount":          payment.Amount,
		"amountInWords":   amountWords,
		"category":        payment.Category,
		"appliesToMonth":  payment.AppliesToMonth.Format("2006-01"),
		"paidAt":          payment.PaidAt,
		"note":            payment.Note,
	}
	if payment.Student != nil {
		resp["student"] = gin.H{
			"registrationNo": payment.Student.RegistrationNo,
			"fullName":       payment.Student.FullName,
		}
	}
	if payment.CreatedByUser != nil {
		resp["issuedBy"] = payment.CreatedByUser.FullName
	}

	c.JSON(http.StatusOK, resp)
}

// ExportPaymentsHandler выгружает реестр платежей в XLSX.
// Необязательный параметр ?month=YYYY-MM ограничивает выгрузку одним месяцем.
func ExportPaymentsHandler(c *gin.Context) {
	query := config.DB.Preload("Student").Order("applies_to_month, paid_at")

	if monthStr := c.Query("month"); monthStr != "" {
		month, err := receipts.ParseMonth(monthStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Месяц должен быть в формате YYYY-MM"})
			return
		}
		query = query.Where("applies_to_month = ?", month)
	}

	var payments []models.Payment
	if err := query.Find(&payments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить платежи"})
		return
	}

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"Квитанция", "Дата выдачи", "Ученик", "Рег. номер", "Категория", "Расчётный месяц", "Сумма", "Примечание"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, p := range payments {
		receiptNo := ""
		if p.ReceiptNo != nil {
			receiptNo = *p.ReceiptNo
		}
		issuedAt := ""
		if p.ReceiptIssuedAt != nil {
			issuedAt = p.ReceiptIssuedAt.Format("2006-01-02 15:04")
		}
		studentName, regNo := "", ""
		if p.Student != nil {
			studentName = p.Student.FullName
			regNo = p.Student.RegistrationNo
		}
		values := []interface{}{
			receiptNo,
			issuedAt,
			studentName,
			regNo,
			p.Category,
			p.AppliesToMonth.Format("2006-01"),
			p.Amount,
			p.Note,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	fileName := fmt.Sprintf("payments_%s.xlsx", time.Now().Format("20060102_150405"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename="+fileName)
	if err := f.Write(c.Writer); err != nil {
		slog.Error("Не удалось записать XLSX в ответ", "error", err)
	}
}
