package handlers

import (
	"net/http"
	"testing"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func authRouter() *gin.Engine {
	r := gin.New()
	r.POST("/login", LoginHandler)
	r.GET("/logout", LogoutHandler)
	return r
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	config.JwtKey = []byte("test-secret")

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{
		Phone:    "01700000009",
		PinHash:  string(hash),
		FullName: "Махмуд Хоссейн",
		Role:     models.RoleAdmin,
	}
	require.NoError(t, db.Create(&user).Error)

	r := authRouter()

	w := doJSON(t, r, http.MethodPost, "/login", gin.H{"phone": "01700000009", "pin": "1234"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	assert.NotEmpty(t, body["token"])
	userInfo := body["user"].(map[string]interface{})
	assert.Equal(t, models.RoleAdmin, userInfo["role"])
	assert.NotEmpty(t, w.Result().Cookies())

	// Неверный PIN и несуществующий телефон дают один и тот же ответ.
	w = doJSON(t, r, http.MethodPost, "/login", gin.H{"phone": "01700000009", "pin": "0000"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	wrongPin := errBody(w)

	w = doJSON(t, r, http.MethodPost, "/login", gin.H{"phone": "01799999999", "pin": "1234"})
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, wrongPin, errBody(w))

	w = doJSON(t, r, http.MethodPost, "/login", gin.H{"phone": "01700000009"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChangePin(t *testing.T) {
	db := setupTestDB(t)

	hash, err := bcrypt.GenerateFromPassword([]byte("1234"), bcrypt.DefaultCost)
	require.NoError(t, err)
	user := models.User{
		Phone:    "01700000010",
		PinHash:  string(hash),
		FullName: "Админ",
		Role:     models.RoleAdmin,
	}
	require.NoError(t, db.Create(&user).Error)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Next()
	})
	r.POST("/me/pin", ChangePinHandler)

	// Неверный текущий PIN отклоняется, хэш не меняется.
	w := doJSON(t, r, http.MethodPost, "/me/pin", gin.H{"currentPin": "0000", "newPin": "5678"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Слишком короткий новый PIN.
	w = doJSON(t, r, http.MethodPost, "/me/pin", gin.H{"currentPin": "1234", "newPin": "56"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPost, "/me/pin", gin.H{"currentPin": "1234", "newPin": "5678"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated models.User
	require.NoError(t, db.First(&updated, user.ID).Error)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.PinHash), []byte("5678")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(updated.PinHash), []byte("1234")))
}

func portalRouter(studentID *uint) *gin.Engine {
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("userID", uint(42))
		c.Set("userRole", models.RoleStudent)
		if studentID != nil {
			c.Set("studentID", *studentID)
		}
		c.Next()
	})
	r.GET("/portal/me", PortalMeHandler)
	r.GET("/portal/payments", PortalPaymentsHandler)
	r.GET("/portal/results", PortalResultsHandler)
	return r
}

// TestPortalScopedToOwnStudent: кабинет отдаёт только данные профиля из токена,
// записи других учеников в выборку не попадают.
func TestPortalScopedToOwnStudent(t *testing.T) {
	db := setupTestDB(t)
	admin := mustCreateAdmin(t, db)
	mine := mustCreateStudent(t, db, "MA-2026-0701")
	other := mustCreateStudent(t, db, "MA-2026-0702")

	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	mustCreateMonthlyPayment(t, db, admin.ID, mine.ID, models.PaymentMonthly, jan, 1000)
	mustCreateMonthlyPayment(t, db, admin.ID, other.ID, models.PaymentMonthly, jan, 9999)

	assessment := mustCreateAssessment(t, db, 100)
	score := 70
	require.NoError(t, db.Create(&models.AssessmentScore{
		AssessmentID: assessment.ID,
		StudentID:    mine.ID,
		Score:        &score,
	}).Error)
	require.NoError(t, db.Create(&models.AssessmentScore{
		AssessmentID: assessment.ID,
		StudentID:    other.ID,
		Score:        &score,
	}).Error)

	r := portalRouter(&mine.ID)

	w := doJSON(t, r, http.MethodGet, "/portal/me", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decodeBody(t, w)
	student := body["student"].(map[string]interface{})
	assert.Equal(t, "MA-2026-0701", student["registrationNo"])

	w = doJSON(t, r, http.MethodGet, "/portal/payments", nil)
	require.Equal(t, http.StatusOK, w.Code)
	payments := decodeBody(t, w)["payments"].([]interface{})
	require.Len(t, payments, 1)
	assert.EqualValues(t, 1000, payments[0].(map[string]interface{})["amount"])

	w = doJSON(t, r, http.MethodGet, "/portal/results", nil)
	require.Equal(t, http.StatusOK, w.Code)
	scores := decodeBody(t, w)["scores"].([]interface{})
	require.Len(t, scores, 1)
}

func TestPortalWithoutStudentProfile(t *testing.T) {
	setupTestDB(t)

	r := portalRouter(nil)
	w := doJSON(t, r, http.MethodGet, "/portal/me", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
