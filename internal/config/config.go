package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	TelegramBotToken string
	OpenAIAPIKey     string
	AssistantID      string
	EdamamAppID      string
	EdamamAppKey     string
	DatabasePath     string
}

// Load читает .env (если он есть) и переменные окружения.
// Без обязательных ключей процесс стартовать не должен.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		TelegramBotToken: os.Getenv("TELEGRAM_BOT_TOKEN"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		AssistantID:      os.Getenv("ASSISTANT_ID"),
		EdamamAppID:      os.Getenv("EDAMAM_APP_ID"),
		EdamamAppKey:     os.Getenv("EDAMAM_APP_KEY"),
		DatabasePath:     os.Getenv("DATABASE_PATH"),
	}

	if cfg.TelegramBotToken == "" || cfg.OpenAIAPIKey == "" || cfg.AssistantID == "" {
		return nil, fmt.Errorf("проверь .env: нужны TELEGRAM_BOT_TOKEN, OPENAI_API_KEY и ASSISTANT_ID")
	}

	return cfg, nil
}
