package handlers

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func studentRouter(adminID uint) *gin.Engine {
	r := newTestRouter(adminID)
	r.GET("/api/students", ListStudentsHandler)
	r.POST("/api/students", CreateStudentHandler)
	r.GET("/api/students/:id", GetStudentHandler)
	r.PUT("/api/students/:id", UpdateStudentHandler)
	r.DELETE("/api/students/:id", DeleteStudentHandler)
	return r
}

// mustCreateMonthlyPayment заводит платёж напрямую, без обработчика.
func mustCreateMonthlyPayment(t *testing.T, db *gorm.DB, adminID, studentID uint, category string, month time.Time, amount int) {
	t.Helper()
	p := models.Payment{
		PublicID:        uuid.NewString(),
		StudentID:       studentID,
		Amount:          amount,
		Category:        category,
		AppliesToMonth:  month,
		PaidAt:          month,
		CreatedByUserID: adminID,
	}
	require.NoError(t, db.Create(&p).Error)
}

func TestMonthlyStatusesClassification(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)

	fee := 3000
	student := models.Student{
		RegistrationNo: "MA-2026-0201",
		FullName:       "Джамиля Ахтер",
		Status:         models.StudentActive,
		MonthlyFee:     &fee,
	}
	require.NoError(t, db.Create(&student).Error)

	now := time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)
	jun := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	// Июнь оплачен полностью (двумя частями), май — частично.
	mustCreateMonthlyPayment(t, db, admin.ID, student.ID, models.PaymentMonthly, jun, 2000)
	mustCreateMonthlyPayment(t, db, admin.ID, student.ID, models.PaymentMonthly, jun, 1000)
	mustCreateMonthlyPayment(t, db, admin.ID, student.ID, models.PaymentMonthly, may, 1500)
	// Платежи других категорий в расчёт не входят.
	mustCreateMonthlyPayment(t, db, admin.ID, student.ID, models.PaymentModelTest, may, 5000)

	statuses, err := monthlyStatuses(&student, now)
	require.NoError(t, err)
	require.Len(t, statuses, 6)

	byMonth := make(map[string]MonthStatus, len(statuses))
	for _, s := range statuses {
		byMonth[s.Month] = s
	}

	assert.Equal(t, "Paid", byMonth["2026-06"].Status)
	assert.Equal(t, 3000, byMonth["2026-06"].Total)
	assert.Equal(t, "Partial", byMonth["2026-05"].Status)
	assert.Equal(t, 1500, byMonth["2026-05"].Total)
	assert.Equal(t, "Unpaid", byMonth["2026-04"].Status)
	assert.Equal(t, 0, byMonth["2026-04"].Total)

	// Первым в списке идёт текущий месяц.
	assert.Equal(t, "2026-06", statuses[0].Month)
}

func TestMonthlyStatusesWithoutFee(t *testing.T) {
	db := setupTestDB(t)
	mustCreateAdmin(t, db)
	student := mustCreateStudent(t, db, "MA-2026-0202")

	statuses, err := monthlyStatuses(&student, time.Now())
	require.NoError(t, err)
	assert.Nil(t, statuses)
}

// TestMonthlyStatusesBatchFormula: формула группы переопределяет простое
// сравнение paid >= fee. Здесь летние месяцы (июнь-август) бесплатны.
func TestMonthlyStatusesBatchFormula(t *testing.T) {
	db := setupTestDB(t)
	mustCreateAdmin(t, db)

	batch := models.Batch{
		Name:        "Летняя группа",
		DuesFormula: "(month >= 6 && month <= 8) ? 0 : (fee - paid)",
	}
	require.NoError(t, db.Create(&batch).Error)

	fee := 2000
	student := models.Student{
		RegistrationNo: "MA-2026-0203",
		FullName:       "Навид Хасан",
		Status:         models.StudentActive,
		MonthlyFee:     &fee,
		BatchID:        &batch.ID,
		Batch:          &batch,
	}
	require.NoError(t, db.Create(&student).Error)

	now := time.Date(2026, 7, 10, 0, 0, 0, 0, time.UTC)
	statuses, err := monthlyStatuses(&student, now)
	require.NoError(t, err)
	require.Len(t, statuses, 6)

	byMonth := make(map[string]MonthStatus, len(statuses))
	for _, s := range statuses {
		byMonth[s.Month] = s
	}

	// Июль и июнь — без платежей, но по формуле долга нет.
	assert.Equal(t, "Paid", byMonth["2026-07"].Status)
	assert.Equal(t, "Paid", byMonth["2026-06"].Status)
	// Май под формулу не попадает: платежей нет, весь fee — долг.
	assert.Equal(t, "Unpaid", byMonth["2026-05"].Status)
}

func TestStudentSearchAndFilters(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)
	r := studentRouter(admin.ID)

	batch := models.Batch{Name: "Группа А"}
	require.NoError(t, db.Create(&batch).Error)

	students := []models.Student{
		{RegistrationNo: "MA-2026-0301", FullName: "Karim Rahman", Phone: "01901", Status: models.StudentActive, BatchID: &batch.ID},
		{RegistrationNo: "MA-2026-0302", FullName: "Karina Begum", Phone: "01902", Status: models.StudentPaused},
		{RegistrationNo: "MA-2026-0303", FullName: "Faruk Islam", Phone: "01903", Status: models.StudentActive},
	}
	for i := range students {
		require.NoError(t, db.Create(&students[i]).Error)
	}

	w := doJSON(t, r, http.MethodGet, "/api/students?search=kari", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Len(t, body["data"], 2)
	assert.EqualValues(t, 2, body["totalRows"])

	w = doJSON(t, r, http.MethodGet, "/api/students?status="+models.StudentPaused, nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["data"], 1)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/students?batch_id=%d", batch.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)
	body = decodeBody(t, w)
	assert.Len(t, body["data"], 1)

	w = doJSON(t, r, http.MethodGet, "/api/students?status=UNKNOWN", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateStudentDuplicateRegistrationNo(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)
	mustCreateStudent(t, db, "MA-2026-0401")
	r := studentRouter(admin.ID)

	w := doJSON(t, r, http.MethodPost, "/api/students", gin.H{
		"registrationNo": "MA-2026-0401",
		"fullName":       "Дубликат",
	})
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	w = doJSON(t, r, http.MethodPost, "/api/students", gin.H{
		"registrationNo": "MA-2026-0402",
		"fullName":       "Новый Ученик",
		"status":         models.StudentActive,
	})
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestGetStudentCardIncludesMonthlyStatus(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)
	r := studentRouter(admin.ID)

	fee := 1000
	student := models.Student{
		RegistrationNo: "MA-2026-0501",
		FullName:       "Митхила Фарзана",
		Status:         models.StudentActive,
		MonthlyFee:     &fee,
	}
	require.NoError(t, db.Create(&student).Error)

	thisMonth := time.Date(time.Now().Year(), time.Now().Month(), 1, 0, 0, 0, 0, time.UTC)
	mustCreateMonthlyPayment(t, db, admin.ID, student.ID, models.PaymentMonthly, thisMonth, 1000)

	w := doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/students/%d", student.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)

	monthly, _ := body["monthlyStatus"].([]interface{})
	require.Len(t, monthly, 6)
	first := monthly[0].(map[string]interface{})
	assert.Equal(t, "Paid", first["status"])

	w = doJSON(t, r, http.MethodGet, "/api/students/9999", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteStudent(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)
	student := mustCreateStudent(t, db, "MA-2026-0601")
	r := studentRouter(admin.ID)

	w := doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/students/%d", student.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, r, http.MethodGet, fmt.Sprintf("/api/students/%d", student.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodDelete, fmt.Sprintf("/api/students/%d", student.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
