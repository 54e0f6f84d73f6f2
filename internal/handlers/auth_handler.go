// mentor-academy-crm/internal/handlers/auth_handler.go
package handlers

import (
	"net/http"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/internal/middleware"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const tokenTTL = 7 * 24 * time.Hour

// LoginRequest определяет структуру для входящих данных формы входа.
type LoginRequest struct {
	Phone string `json:"phone" binding:"required"`
	Pin   string `json:"pin" binding:"required"`
}

// LoginHandler проверяет телефон и PIN-код и выдаёт JWT.
// Сообщение об ошибке намеренно одинаковое для всех случаев,
// чтобы не раскрывать, существует ли номер в системе.
func LoginHandler(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Необходимо указать телефон и PIN-код"})
		return
	}

	var user models.User
	if err := config.DB.Where("phone = ?", req.Phone).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверные учётные данные"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске пользователя"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(req.Pin)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Неверные учётные данные"})
		return
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"role":    user.Role,
		"iat":     now.Unix(),
		"exp":     now.Add(tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenStr, err := token.SignedString(config.JwtKey)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось создать токен"})
		return
	}

	c.SetCookie("auth_token", tokenStr, int(tokenTTL.Seconds()), "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"token": tokenStr,
		"user": gin.H{
			"id":       user.ID,
			"fullName": user.FullName,
			"role":     user.Role,
		},
	})
}

type ChangePinRequest struct {
	CurrentPin string `json:"currentPin" binding:"required"`
	NewPin     string `json:"newPin" binding:"required,min=4"`
}

// ChangePinHandler меняет PIN-код текущего пользователя после проверки
// старого. Кэш пользователя в Redis сбрасывается сразу, чтобы смена
// вступила в силу без ожидания истечения TTL.
func ChangePinHandler(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Пользователь не определён"})
		return
	}

	var req ChangePinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Укажите текущий и новый PIN-код (минимум 4 символа)"})
		return
	}

	var user models.User
	if err := config.DB.First(&user, userID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Ошибка при поиске пользователя"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PinHash), []byte(req.CurrentPin)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Текущий PIN-код указан неверно"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPin), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось обработать новый PIN-код"})
		return
	}

	if err := config.DB.Model(&user).Update("pin_hash", string(hash)).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Не удалось сохранить новый PIN-код"})
		return
	}

	middleware.InvalidateUserCache(user.ID)

	c.JSON(http.StatusOK, gin.H{"message": "PIN-код обновлён"})
}

// LogoutHandler сбрасывает cookie с токеном.
func LogoutHandler(c *gin.Context) {
	c.SetCookie("auth_token", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{"message": "Выход выполнен"})
}
