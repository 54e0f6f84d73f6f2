// mentor-academy-crm/internal/handlers/assessment_handler.go
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

	"github.com/gin-gonic/gin"
	"github.com/google/generative-ai-go/genai"
	"gorm.io/gorm"
)

type AssessmentInput struct {
	Title    string `json:"title" binding:"required"`
	Subject  string `json:"subject" binding:"required"`
	Date     string `json:"date" binding:"required"` // YYYY-MM-DD
	MaxMarks int    `json:"maxMarks" binding:"required"`
}

// ListBatchAssessmentsHandler возвращает работы группы, новые сверху.
func ListBatchAssessmentsHandler(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil || batchID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID группы"})
		return
	}

	var batch models.Batch
	if err := config.DB.First(&batch, batchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Группа не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске группы"})
		return
	}

	var assessments []models.Assessment
	if err := config.DB.Where("batch_id = ?", batchID).
		Order("date DESC").Find(&assessments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список работ"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": assessments})
}

// CreateAssessmentHandler создаёт контрольную работу в группе.
func CreateAssessmentHandler(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil || batchID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID группы"})
		return
	}

	var input AssessmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}

	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}
	if input.MaxMarks <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Максимальный балл должен быть положительным"})
		return
	}

	var batch models.Batch
	if err := config.DB.First(&batch, batchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Группа не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске группы"})
		return
	}

	assessment := models.Assessment{
		BatchID:  batch.ID,
		Title:    strings.TrimSpace(input.Title),
		Subject:  strings.TrimSpace(input.Subject),
		Date:     date,
		MaxMarks: input.MaxMarks,
	}
	if err := config.DB.Create(&assessment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать работу"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"assessment": assessment})
}

// GetAssessmentHandler возвращает работу, баллы и сводку результатов:
// сколько учеников сдавало, средний / лучший / худший балл, процент от максимума.
func GetAssessmentHandler(c *gin.Context) {
	assessmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assessmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID работы"})
		return
	}

	var assessment models.Assessment
	if err := config.DB.Preload("Batch").
		Preload("Scores.Student").
		First(&assessment, assessmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Работа не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске работы"})
		return
	}

	entered, sum := 0, 0
	best, worst := 0, 0
	for _, s := range assessment.Scores {
		if s.Score == nil {
			continue
		}
		v := *s.Score
		if entered == 0 {
			best, worst = v, v
		} else {
			if v > best {
				best = v
			}
			if v < worst {
				worst = v
			}
		}
		entered++
		sum += v
	}

	summary := gin.H{
		"totalScores":   len(assessment.Scores),
		"enteredScores": entered,
	}
	if entered > 0 {
		avg := float64(sum) / float64(entered)
		summary["average"] = avg
		summary["best"] = best
		summary["worst"] = worst
		if assessment.MaxMarks > 0 {
			summary["averagePercent"] = avg / float64(assessment.MaxMarks) * 100
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"assessment": assessment,
		"summary":    summary,
	})
}

// UpdateAssessmentHandler обновляет работу.
func UpdateAssessmentHandler(c *gin.Context) {
	assessmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assessmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID работы"})
		return
	}

	var assessment models.Assessment
	if err := config.DB.First(&assessment, assessmentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Работа не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске работы"})
		return
	}

	var input AssessmentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	date, err := time.Parse("2006-01-02", input.Date)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверный формат даты. Используйте YYYY-MM-DD."})
		return
	}
	if input.MaxMarks <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Максимальный балл должен быть положительным"})
		return
	}

	assessment.Title = strings.TrimSpace(input.Title)
	assessment.Subject = strings.TrimSpace(input.Subject)
	assessment.Date = date
	assessment.MaxMarks = input.MaxMarks

	if err := config.DB.Save(&assessment).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить работу"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"assessment": assessment})
}

// DeleteAssessmentHandler удаляет работу вместе с баллами.
func DeleteAssessmentHandler(c *gin.Context) {
	assessmentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || assessmentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID работы"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	if err := tx.Where("assessment_id = ?", assessmentID).
		Delete(&models.AssessmentScore{}).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить баллы"})
		return
	}

	res := tx.Delete(&models.Assessment{}, assessmentID)
	if res.Error != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить работу"})
		return
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		c.JSON(http.StatusNotFound, gin.H{"error": "Работа не найдена"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить транзакцию"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Работа удалена"})
}

// GenerateProgressNoteHandler просит Gemini набросать черновик характеристики
// ученика по его результатам. Черновик, ничего не сохраняем.
func GenerateProgressNoteHandler(c *gin.Context) {
	if config.GeminiClient == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Генерация характеристик отключена"})
		return
	}

	studentID, err := strconv.Atoi(c.Param("id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID ученика"})
		return
	}

	var student models.Student
	if err := config.DB.Preload("Scores.Assessment").First(&student, studentID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Ученик не найден"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске ученика"})
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Напиши короткую характеристику успеваемости ученика %s (класс %s) для родителей. Результаты работ:\n",
		student.FullName, student.Grade)
	for _, s := range student.Scores {
		if s.Score == nil || s.Assessment == nil {
			continue
		}
		fmt.Fprintf(&sb, "- %s (%s): %d из %d\n",
			s.Assessment.Title, s.Assessment.Subject, *s.Score, s.Assessment.MaxMarks)
	}

	resp, err := config.GeminiClient.GenerateContent(c.Request.Context(), genai.Text(sb.String()))
	if err != nil {
		slog.Error("Ошибка запроса к Gemini", "error", err, "student_id", student.ID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Не удалось получить черновик характеристики"})
		return
	}

	var note strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				note.WriteString(string(txt))
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{"note": note.String()})
}
