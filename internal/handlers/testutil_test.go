package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB подменяет config.DB изолированной in-memory базой.
// Возврат прежнего значения не нужен: каждый тест получает свежую базу.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Batch{},
		&models.Student{},
		&models.Assessment{},
		&models.AssessmentScore{},
		&models.EnrollmentRequest{},
		&models.Payment{},
		&models.ReceiptCounter{},
		&models.RegistrationCounter{},
	))

	config.DB = db
	return db
}

// newTestRouter собирает маршрутизатор с подставным администратором в контексте,
// чтобы не гонять настоящий JWT в каждом тесте обработчиков.
func newTestRouter(adminID uint) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", adminID)
		c.Set("userRole", models.RoleAdmin)
		c.Next()
	})
	return r
}

// doJSON выполняет запрос с JSON-телом и возвращает записанный ответ.
func doJSON(t *testing.T, r *gin.Engine, method, url string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&reqBody).Encode(body))
	}
	req := httptest.NewRequest(method, url, &reqBody)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func mustCreateAdmin(t *testing.T, db *gorm.DB) models.User {
	t.Helper()
	admin := models.User{
		Phone:    "01700000001",
		PinHash:  "x",
		FullName: "Админ",
		Role:     models.RoleAdmin,
	}
	require.NoError(t, db.Create(&admin).Error)
	return admin
}

func mustCreateStudent(t *testing.T, db *gorm.DB, regNo string) models.Student {
	t.Helper()
	student := models.Student{
		RegistrationNo: regNo,
		FullName:       "Тестовый Ученик " + regNo,
		Status:         models.StudentActive,
	}
	require.NoError(t, db.Create(&student).Error)
	return student
}

var errBody = func(w *httptest.ResponseRecorder) string {
	var m map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &m)
	msg, _ := m["error"].(string)
	return msg
}

// decodeBody разбирает JSON-ответ в map.
func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), "тело ответа: %s", w.Body.String())
	return m
}
