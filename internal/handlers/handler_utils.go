// mentor-academy-crm/internal/handlers/handler_utils.go
package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
)

// currentUserID достаёт ID пользователя, положенный в контекст AuthMiddleware.
func currentUserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("userID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// currentStudentID — ID профиля ученика для пользователей личного кабинета.
func currentStudentID(c *gin.Context) (uint, bool) {
	v, ok := c.Get("studentID")
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}

// lastMonths возвращает ключи YYYY-MM последних n месяцев, начиная с текущего.
func lastMonths(now time.Time, n int) []string {
	keys := make([]string, 0, n)
	year, month, _ := now.Date()
	for i := 0; i < n; i++ {
		t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, -i, 0)
		keys = append(keys, fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
	}
	return keys
}
