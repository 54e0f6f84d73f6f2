// mentor-academy-crm/internal/handlers/score_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ScoreEntry — один выставляемый балл. Score == nil означает «отсутствовал».
type ScoreEntry struct {
	StudentID uint   `json:"studentId" binding:"required"`
	Score     *int   `json:"score"`
	Remarks   string `json:"remarks"`
}

type UpsertScoresRequest struct {
	Scores []ScoreEntry `json:"scores" binding:"required"`
}

// UpsertScoresHandler массово выставляет баллы за работу. Повторная отправка
// той же формы перезаписывает существующие баллы, а не плодит дубликаты:
// конфликт по паре (assessment_id, student_id) превращается в UPDATE.
func UpsertScoresHandler(c *gin.Context) {
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

	var req UpsertScoresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	if len(req.Scores) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Список баллов пуст"})
		return
	}

	records := make([]models.AssessmentScore, 0, len(req.Scores))
	for _, entry := range req.Scores {
		if entry.Score != nil && (*entry.Score < 0 || *entry.Score > assessment.MaxMarks) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Балл должен быть в диапазоне от 0 до " + strconv.Itoa(assessment.MaxMarks),
			})
			return
		}
		records = append(records, models.AssessmentScore{
			AssessmentID: assessment.ID,
			StudentID:    entry.StudentID,
			Score:        entry.Score,
			Remarks:      entry.Remarks,
		})
	}

	err = config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "assessment_id"}, {Name: "student_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "remarks", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить баллы"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Баллы сохранены", "count": len(records)})
}
