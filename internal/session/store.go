// Package session хранит состояние чатов: привязку к треду ассистента,
// предпочтения и историю недавних блюд.
package session

import (
	"context"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

// CreateThreadFunc создаёт тред на стороне ассистента.
type CreateThreadFunc func(ctx context.Context) (string, error)

// Store — хранилище сессий. Реализации обязаны быть безопасными для
// конкурентного использования и гарантировать, что тред создаётся не
// более одного раза на чат.
type Store interface {
	// GetOrCreateThread возвращает тред чата, при первом обращении
	// создавая его через create.
	GetOrCreateThread(ctx context.Context, chatID int64, create CreateThreadFunc) (string, error)
	// Preferences возвращает предпочтения чата; пустая строка — не заданы.
	Preferences(chatID int64) (string, error)
	// SetPreferences перезаписывает предпочтения целиком.
	SetPreferences(chatID int64, text string) error
	// RecordDish добавляет блюдо в историю чата.
	RecordDish(chatID int64, dish string) error
	// RecentDishes возвращает историю блюд в порядке добавления.
	RecentDishes(chatID int64) ([]string, error)
}

// appendDish добавляет блюдо без дубликатов и обрезает историю до
// models.MaxRecentDishes, вытесняя самые старые.
func appendDish(dishes []string, dish string) []string {
	for _, d := range dishes {
		if d == dish {
			return dishes
		}
	}
	dishes = append(dishes, dish)
	if len(dishes) > models.MaxRecentDishes {
		dishes = dishes[len(dishes)-models.MaxRecentDishes:]
	}
	return dishes
}
