// mentor-academy-crm/internal/handlers/dashboard_handler.go
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
)

const dashboardCacheKey = "dashboard:stats"
const dashboardCacheTTL = time.Minute

// DashboardStats — сводка для главной панели.
type DashboardStats struct {
	ActiveStudents      int64                      `json:"activeStudents"`
	Batches             int64                      `json:"batches"`
	NewRequests         int64                      `json:"newRequests"`
	UpcomingAssessments int64                      `json:"upcomingAssessments"`
	RecentRequests      []models.EnrollmentRequest `json:"recentRequests"`
	RecentPayments      []models.Payment           `json:"recentPayments"`
	RecentAssessments   []models.Assessment        `json:"recentAssessments"`
}

// GetDashboardHandler собирает счётчики и последние события для панели.
// Сводка кэшируется в Redis на минуту, чтобы не гонять семь запросов
// при каждом обновлении страницы.
func GetDashboardHandler(c *gin.Context) {
	if config.RDB != nil {
		if cached, err := config.RDB.Get(config.Ctx, dashboardCacheKey).Result(); err == nil {
			var stats DashboardStats
			if json.Unmarshal([]byte(cached), &stats) == nil {
				c.JSON(http.StatusOK, stats)
				return
			}
		}
	}

	var stats DashboardStats

	if err := config.DB.Model(&models.Student{}).
		Where("status = ?", models.StudentActive).
		Count(&stats.ActiveStudents).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать учеников"})
		return
	}
	if err := config.DB.Model(&models.Batch{}).Count(&stats.Batches).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать группы"})
		return
	}
	if err := config.DB.Model(&models.EnrollmentRequest{}).
		Where("status = ?", models.RequestNew).
		Count(&stats.NewRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать заявки"})
		return
	}
	if err := config.DB.Model(&models.Assessment{}).
		Where("date >= ?", time.Now()).
		Count(&stats.UpcomingAssessments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось посчитать работы"})
		return
	}

	if err := config.DB.Order("created_at DESC").Limit(5).
		Find(&stats.RecentRequests).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить последние заявки"})
		return
	}
	if err := config.DB.Preload("Student").Order("created_at DESC").Limit(5).
		Find(&stats.RecentPayments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить последние платежи"})
		return
	}
	if err := config.DB.Preload("Batch").Order("created_at DESC").Limit(5).
		Find(&stats.RecentAssessments).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось получить последние работы"})
		return
	}

	if config.RDB != nil {
		if payload, err := json.Marshal(stats); err == nil {
			if err := config.RDB.Set(config.Ctx, dashboardCacheKey, payload, dashboardCacheTTL).Err(); err != nil {
				slog.Error("Не удалось записать кэш панели", "error", err)
			}
		}
	}

	c.JSON(http.StatusOK, stats)
}
