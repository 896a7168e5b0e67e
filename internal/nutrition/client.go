// Package nutrition ищет пищевую ценность продукта по названию во
// внешних базах и нормализует ответы к единой записи.
package nutrition

import (
	"context"
	"log"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

// basePer — единственная поддерживаемая база количества.
const basePer = "100g"

// Provider — одна внешняя база нутриентов. Lookup возвращает
// (nil, nil), если совпадений нет, и ошибку при проблемах транспорта
// или разбора ответа.
type Provider interface {
	Name() string
	Lookup(ctx context.Context, product string) (*models.NutritionRecord, error)
}

// Client перебирает провайдеров по порядку, пока один не даст
// пригодную запись (есть ккал или хотя бы один макронутриент).
type Client struct {
	providers []Provider
}

func NewClient(providers ...Provider) *Client {
	return &Client{providers: providers}
}

// Lookup ищет продукт. Ошибки провайдеров наружу не всплывают:
// результат — всегда запись со статусом.
func (c *Client) Lookup(ctx context.Context, product, per string) models.NutritionRecord {
	if per != "" && per != basePer {
		return models.NutritionRecord{
			Status:  models.StatusUnsupportedPer,
			Query:   product,
			Message: "Пока поддерживается только per=100g",
		}
	}

	var firstMatch *models.NutritionRecord
	failures := 0
	for _, p := range c.providers {
		rec, err := p.Lookup(ctx, product)
		if err != nil {
			failures++
			log.Printf("⚠️ Провайдер %s: %v", p.Name(), err)
			continue
		}
		if rec == nil {
			continue
		}
		rec.Query = product
		rec.Per = basePer
		if rec.Usable() {
			rec.Status = models.StatusOK
			return *rec
		}
		if firstMatch == nil {
			firstMatch = rec
		}
	}

	if firstMatch != nil {
		// Продукт нашёлся, но без полноценной нутрициологии — отдаём
		// как есть, не выбрасываем.
		firstMatch.Status = models.StatusIncomplete
		firstMatch.Message = "Нашёлся продукт без полноценной нутрициологии."
		return *firstMatch
	}
	if failures > 0 && failures == len(c.providers) {
		return models.NutritionRecord{
			Status:  models.StatusError,
			Query:   product,
			Message: "Базы нутриентов недоступны.",
		}
	}
	return models.NutritionRecord{
		Status:  models.StatusNotFound,
		Query:   product,
		Message: "Продукт не найден ни в одной из баз.",
	}
}
