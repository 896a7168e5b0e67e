package session

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/fox67rus/AI-consultant-tg/pkg/models"
)

// Memory — хранилище в памяти процесса: состояние живёт до рестарта.
type Memory struct {
	mu       sync.RWMutex
	sessions map[int64]*models.Session
	flight   singleflight.Group
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[int64]*models.Session)}
}

// GetOrCreateThread возвращает тред чата, создавая его не более одного
// раза: одновременные первые сообщения одного чата схлопываются в один
// вызов create через singleflight.
func (m *Memory) GetOrCreateThread(ctx context.Context, chatID int64, create CreateThreadFunc) (string, error) {
	m.mu.RLock()
	if s, ok := m.sessions[chatID]; ok && s.ThreadID != "" {
		m.mu.RUnlock()
		return s.ThreadID, nil
	}
	m.mu.RUnlock()

	// Создание идёт под контекстом первого вошедшего: если его контекст
	// отменится, ошибку получат все схлопнутые ожидающие, и следующий
	// вызов попробует создать тред заново.
	v, err, _ := m.flight.Do(strconv.FormatInt(chatID, 10), func() (interface{}, error) {
		m.mu.RLock()
		if s, ok := m.sessions[chatID]; ok && s.ThreadID != "" {
			m.mu.RUnlock()
			return s.ThreadID, nil
		}
		m.mu.RUnlock()

		threadID, err := create(ctx)
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		m.session(chatID).ThreadID = threadID
		m.mu.Unlock()
		return threadID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Memory) Preferences(chatID int64) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[chatID]; ok {
		return s.Preferences, nil
	}
	return "", nil
}

func (m *Memory) SetPreferences(chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.session(chatID).Preferences = text
	return nil
}

func (m *Memory) RecordDish(chatID int64, dish string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.session(chatID)
	s.RecentDishes = appendDish(s.RecentDishes, dish)
	return nil
}

func (m *Memory) RecentDishes(chatID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[chatID]
	if !ok {
		return nil, nil
	}
	out := make([]string, len(s.RecentDishes))
	copy(out, s.RecentDishes)
	return out, nil
}

// session возвращает сессию чата, создавая пустую при первом
// обращении. Вызывать только под mu.
func (m *Memory) session(chatID int64) *models.Session {
	s, ok := m.sessions[chatID]
	if !ok {
		s = &models.Session{ChatID: chatID}
		m.sessions[chatID] = s
	}
	return s
}
