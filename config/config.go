// mentor-academy-crm/config/config.go
package config

import (
	"log/slog"
	"os"
)

// JwtKey — секрет для подписи JWT. Берётся из окружения при старте.
var JwtKey []byte

func LoadConfig() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		slog.Error("Критическая ошибка: переменная окружения JWT_SECRET не установлена.")
		os.Exit(1)
	}
	JwtKey = []byte(secret)
}
