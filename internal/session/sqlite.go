package session

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/singleflight"
)

//go:embed schema.sql
var schemaSQL string

// SQLite — хранилище сессий в SQLite. Подключается вместо Memory,
// когда состояние должно переживать рестарты (DATABASE_PATH в конфиге).
type SQLite struct {
	conn   *sql.DB
	flight singleflight.Group
	mu     sync.Mutex // сериализует read-modify-write истории блюд
}

func NewSQLite(path string) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть базу данных: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("не удалось применить схему: %w", err)
	}
	return &SQLite{conn: conn}, nil
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

func (s *SQLite) GetOrCreateThread(ctx context.Context, chatID int64, create CreateThreadFunc) (string, error) {
	if id, err := s.threadID(chatID); err != nil || id != "" {
		return id, err
	}

	v, err, _ := s.flight.Do(strconv.FormatInt(chatID, 10), func() (interface{}, error) {
		if id, err := s.threadID(chatID); err != nil || id != "" {
			return id, err
		}
		threadID, err := create(ctx)
		if err != nil {
			return "", err
		}
		_, err = s.conn.Exec(`INSERT INTO sessions (chat_id, thread_id) VALUES (?, ?)
			ON CONFLICT(chat_id) DO UPDATE SET thread_id = excluded.thread_id WHERE sessions.thread_id = ''`,
			chatID, threadID)
		if err != nil {
			return "", fmt.Errorf("не удалось сохранить тред: %w", err)
		}
		return threadID, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (s *SQLite) Preferences(chatID int64) (string, error) {
	var prefs string
	err := s.conn.QueryRow(`SELECT preferences FROM sessions WHERE chat_id = ?`, chatID).Scan(&prefs)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать предпочтения: %w", err)
	}
	return prefs, nil
}

func (s *SQLite) SetPreferences(chatID int64, text string) error {
	_, err := s.conn.Exec(`INSERT INTO sessions (chat_id, preferences) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET preferences = excluded.preferences`, chatID, text)
	if err != nil {
		return fmt.Errorf("не удалось сохранить предпочтения: %w", err)
	}
	return nil
}

func (s *SQLite) RecordDish(chatID int64, dish string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dishes, err := s.recentDishes(chatID)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(appendDish(dishes, dish))
	if err != nil {
		return err
	}
	_, err = s.conn.Exec(`INSERT INTO sessions (chat_id, recent_dishes) VALUES (?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET recent_dishes = excluded.recent_dishes`, chatID, string(raw))
	if err != nil {
		return fmt.Errorf("не удалось сохранить историю блюд: %w", err)
	}
	return nil
}

func (s *SQLite) RecentDishes(chatID int64) ([]string, error) {
	return s.recentDishes(chatID)
}

func (s *SQLite) recentDishes(chatID int64) ([]string, error) {
	var raw string
	err := s.conn.QueryRow(`SELECT recent_dishes FROM sessions WHERE chat_id = ?`, chatID).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать историю блюд: %w", err)
	}
	if raw == "" {
		return nil, nil
	}
	var dishes []string
	if err := json.Unmarshal([]byte(raw), &dishes); err != nil {
		return nil, fmt.Errorf("повреждённая история блюд: %w", err)
	}
	return dishes, nil
}

func (s *SQLite) threadID(chatID int64) (string, error) {
	var id string
	err := s.conn.QueryRow(`SELECT thread_id FROM sessions WHERE chat_id = ?`, chatID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("не удалось прочитать сессию: %w", err)
	}
	return id, nil
}
