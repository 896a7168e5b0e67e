package main

import (
	"context"
	"encoding/json"
	"log"
	"os/signal"
	"syscall"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fox67rus/AI-consultant-tg/internal/assistant"
	"github.com/fox67rus/AI-consultant-tg/internal/bot"
	"github.com/fox67rus/AI-consultant-tg/internal/config"
	"github.com/fox67rus/AI-consultant-tg/internal/nutrition"
	"github.com/fox67rus/AI-consultant-tg/internal/session"
)

func main() {
	log.Println("Загрузка конфигурации...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Не удалось загрузить конфигурацию: %v", err)
	}

	// Хранилище сессий: SQLite при заданном DATABASE_PATH, иначе память.
	var store session.Store
	if cfg.DatabasePath != "" {
		log.Println("Подключение базы данных...")
		db, err := session.NewSQLite(cfg.DatabasePath)
		if err != nil {
			log.Fatalf("Не удалось открыть базу данных: %v", err)
		}
		defer db.Close()
		store = db
	} else {
		store = session.NewMemory()
	}

	providers := []nutrition.Provider{nutrition.NewOpenFoodFacts()}
	if cfg.EdamamAppID != "" && cfg.EdamamAppKey != "" {
		providers = append(providers, nutrition.NewEdamam(cfg.EdamamAppID, cfg.EdamamAppKey))
	}
	lookup := nutrition.NewClient(providers...)

	registry := assistant.NewRegistry()
	registry.Register("lookup_product_nutrition", func(ctx context.Context, args json.RawMessage) (any, error) {
		var req struct {
			Product string `json:"product"`
			Per     string `json:"per"`
		}
		if err := json.Unmarshal(args, &req); err != nil {
			return nil, err
		}
		return lookup.Lookup(ctx, req.Product, req.Per), nil
	})

	orch := assistant.New(openai.NewClient(cfg.OpenAIAPIKey), cfg.AssistantID, registry)

	b, err := bot.New(cfg.TelegramBotToken, store, orch)
	if err != nil {
		log.Fatalf("Не удалось создать бота: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Println("Bot started.")
	if err := b.Start(ctx); err != nil {
		log.Fatalf("Бот остановился с ошибкой: %v", err)
	}
}
