// mentor-academy-crm/config/gemini.go
package config

import (
	"context"
	"log/slog"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var (
	GeminiClient *genai.GenerativeModel
)

// InitGemini инициализирует клиент Gemini API для черновиков характеристик учеников.
// Отсутствие ключа не является фатальной ошибкой: эндпоинт просто вернёт 503.
func InitGemini() {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		slog.Warn("GEMINI_API_KEY не установлен, генерация характеристик отключена.")
		return
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		slog.Error("Не удалось создать клиент Gemini", "error", err)
		return
	}
	GeminiClient = client.GenerativeModel("gemini-1.5-flash")
	slog.Info("Клиент Gemini API успешно инициализирован.")
}
