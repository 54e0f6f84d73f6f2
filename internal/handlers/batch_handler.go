// mentor-academy-crm/internal/handlers/batch_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/Knetic/govaluate"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BatchInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	DuesFormula string `json:"duesFormula"`
}

// BatchListItem — строка списка групп со счётчиком учеников.
type BatchListItem struct {
	models.Batch
	StudentCount int64 `json:"studentCount"`
}

// ListBatchesHandler возвращает все группы с количеством учеников в каждой.
func ListBatchesHandler(c *gin.Context) {
	var batches []models.Batch
	if err := config.DB.Order("name").Find(&batches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить список групп"})
		return
	}

	items := make([]BatchListItem, 0, len(batches))
	for _, b := range batches {
		var count int64
		if err := config.DB.Model(&models.Student{}).Where("batch_id = ?", b.ID).Count(&count).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать учеников группы"})
			return
		}
		items = append(items, BatchListItem{Batch: b, StudentCount: count})
	}

	c.JSON(http.StatusOK, gin.H{"data": items})
}

// CreateBatchHandler создаёт группу. Формула задолженности, если задана,
// проверяется на разборчивость сразу, а не при первом расчёте.
func CreateBatchHandler(c *gin.Context) {
	var input BatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	if input.DuesFormula != "" {
		if _, err := govaluate.NewEvaluableExpression(input.DuesFormula); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка в формуле задолженности: " + err.Error()})
			return
		}
	}

	batch := models.Batch{
		Name:        input.Name,
		Description: input.Description,
		DuesFormula: input.DuesFormula,
	}
	if err := config.DB.Create(&batch).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			c.JSON(http.StatusConflict, gin.H{"error": "Группа с таким названием уже существует"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать группу"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"batch": batch})
}

// GetBatchHandler возвращает группу со списком её учеников.
func GetBatchHandler(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil || batchID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID группы"})
		return
	}

	var batch models.Batch
	if err := config.DB.Preload("Students").First(&batch, batchID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Группа не найдена"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске группы"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

// UpdateBatchHandler обновляет группу.
func UpdateBatchHandler(c *gin.Context) {
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

	var input BatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Неверные данные: " + err.Error()})
		return
	}
	if input.DuesFormula != "" {
		if _, err := govaluate.NewEvaluableExpression(input.DuesFormula); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ошибка в формуле задолженности: " + err.Error()})
			return
		}
	}

	batch.Name = input.Name
	batch.Description = input.Description
	batch.DuesFormula = input.DuesFormula

	if err := config.DB.Save(&batch).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			c.JSON(http.StatusConflict, gin.H{"error": "Группа с таким названием уже существует"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обновить группу"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"batch": batch})
}

// DeleteBatchHandler удаляет группу. Ученики при этом остаются без группы.
func DeleteBatchHandler(c *gin.Context) {
	batchID, err := strconv.Atoi(c.Param("id"))
	if err != nil || batchID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Некорректный ID группы"})
		return
	}

	tx := config.DB.Begin()
	if tx.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось начать транзакцию"})
		return
	}

	if err := tx.Model(&models.Student{}).Where("batch_id = ?", batchID).
		Update("batch_id", nil).Error; err != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось отвязать учеников"})
		return
	}

	res := tx.Delete(&models.Batch{}, batchID)
	if res.Error != nil {
		tx.Rollback()
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось удалить группу"})
		return
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		c.JSON(http.StatusNotFound, gin.H{"error": "Группа не найдена"})
		return
	}

	if err := tx.Commit().Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось подтвердить транзакцию"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Группа удалена"})
}
