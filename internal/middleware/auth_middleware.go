// mentor-academy-crm/internal/middleware/auth_middleware.go
package middleware

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"mentor-academy-crm/config"
	"mentor-academy-crm/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
)

// CachedUserData - единая структура для всех данных пользователя в кэше.
type CachedUserData struct {
	UserID    uint   `json:"user_id"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	StudentID *uint  `json:"student_id,omitempty"`
}

const userCacheTTL = 10 * time.Minute

// AuthMiddleware проверяет JWT (cookie auth_token или заголовок Bearer),
// подтягивает данные пользователя из кэша Redis либо из БД и кладёт их в контекст.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, err := c.Cookie("auth_token")
		if err != nil || tokenStr == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				handleAuthError(c, "Токен авторизации не предоставлен")
				return
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
				handleAuthError(c, "Неверный формат заголовка Authorization")
				return
			}
			tokenStr = parts[1]
		}

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return config.JwtKey, nil
		})

		if err != nil || !token.Valid {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Недействительный или истёкший токен")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			handleAuthError(c, "Недействительные данные токена")
			return
		}

		userIDFloat, ok := claims["user_id"].(float64)
		if !ok {
			handleAuthError(c, "Неверный формат ID пользователя в токене")
			return
		}
		userID := uint(userIDFloat)

		cacheKey := fmt.Sprintf("user:%d:data", userID)
		if config.RDB != nil {
			cachedData, err := config.RDB.Get(config.Ctx, cacheKey).Result()
			if err == nil {
				var userData CachedUserData
				if json.Unmarshal([]byte(cachedData), &userData) == nil {
					setContextAndProceed(c, &userData)
					return
				}
				slog.Warn("Не удалось разобрать кэш пользователя", "user_id", userID)
			} else if err != redis.Nil {
				slog.Error("Ошибка команды Redis GET", "error", err, "user_id", userID)
			}
		}

		var dbUser models.User
		if err := config.DB.First(&dbUser, userID).Error; err != nil {
			c.SetCookie("auth_token", "", -1, "/", "", false, true)
			handleAuthError(c, "Пользователь из токена не найден")
			return
		}

		userData := CachedUserData{
			UserID:    dbUser.ID,
			FullName:  dbUser.FullName,
			Role:      dbUser.Role,
			StudentID: dbUser.StudentID,
		}

		if config.RDB != nil {
			if payload, err := json.Marshal(userData); err == nil {
				if err := config.RDB.Set(config.Ctx, cacheKey, payload, userCacheTTL).Err(); err != nil {
					slog.Error("Не удалось записать кэш пользователя", "error", err, "user_id", userID)
				}
			}
		}

		setContextAndProceed(c, &userData)
	}
}

// RequireRole пропускает дальше только пользователей с указанной ролью.
// Ставится после AuthMiddleware.
func RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("userRole") != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Недостаточно прав"})
			return
		}
		c.Next()
	}
}

func setContextAndProceed(c *gin.Context, userData *CachedUserData) {
	c.Set("userID", userData.UserID)
	c.Set("userRole", userData.Role)
	c.Set("fullName", userData.FullName)
	if userData.StudentID != nil {
		c.Set("studentID", *userData.StudentID)
	}
	c.Next()
}

func handleAuthError(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": message})
}

// InvalidateUserCache сбрасывает кэш пользователя (после смены PIN или роли).
func InvalidateUserCache(userID uint) {
	if config.RDB == nil {
		return
	}
	cacheKey := fmt.Sprintf("user:%d:data", userID)
	if err := config.RDB.Del(config.Ctx, cacheKey).Err(); err != nil {
		slog.Error("Не удалось сбросить кэш пользователя", "error", err, "user_id", userID)
	}
}
