// Package bot реализует Telegram-поверхность: команды, конвейер
// обработки сообщения и доставку ответов.
package bot

import (
	"context"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fox67rus/AI-consultant-tg/internal/assistant"
	"github.com/fox67rus/AI-consultant-tg/internal/session"
	"github.com/fox67rus/AI-consultant-tg/pkg/locales"
)

// sender отправляет сообщения в Telegram. *tgbotapi.BotAPI реализует
// интерфейс; в тестах подставляется запись отправленного.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot представляет Telegram бота
type Bot struct {
	api       *tgbotapi.BotAPI
	sender    sender
	store     session.Store
	assistant *assistant.Orchestrator
}

// New создает нового бота
func New(token string, store session.Store, orch *assistant.Orchestrator) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания бота: %w", err)
	}

	log.Printf("Авторизован как @%s", api.Self.UserName)

	return &Bot{
		api:       api,
		sender:    api,
		store:     store,
		assistant: orch,
	}, nil
}

// Start запускает обработку обновлений
func (b *Bot) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return nil
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate обрабатывает входящее обновление
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || update.Message.Text == "" {
		return
	}
	b.handleMessage(ctx, update.Message)
}

// handleMessage обрабатывает текстовые сообщения и команды
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	l := locales.Get()
	chatID := msg.Chat.ID

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "help":
			b.reply(chatID, l.Start.Text)
		case "prefs":
			b.showPreferences(chatID)
		case "setprefs":
			b.setPreferences(chatID, msg.CommandArguments())
		default:
			// Незнакомые команды до ассистента не доходят: это не
			// пользовательский текст, отвечаем подсказкой.
			b.reply(chatID, l.Start.Text)
		}
		return
	}

	b.handleAssistantMessage(ctx, chatID, strings.TrimSpace(msg.Text))
}

// showPreferences показывает текущие предпочтения
func (b *Bot) showPreferences(chatID int64) {
	l := locales.Get()

	prefs, err := b.store.Preferences(chatID)
	if err != nil {
		log.Printf("Ошибка чтения предпочтений: %v", err)
	}
	if prefs == "" {
		prefs = l.Prefs.Unset
	}
	b.reply(chatID, fmt.Sprintf(l.Prefs.Current, prefs))
}

// setPreferences перезаписывает предпочтения целиком. Пустой аргумент —
// подсказка по использованию, состояние не меняется.
func (b *Bot) setPreferences(chatID int64, args string) {
	l := locales.Get()

	text := strings.TrimSpace(args)
	if text == "" {
		b.reply(chatID, l.Prefs.Usage)
		return
	}

	if err := b.store.SetPreferences(chatID, text); err != nil {
		log.Printf("Ошибка сохранения предпочтений: %v", err)
		b.reply(chatID, l.Chat.Fallback)
		return
	}
	b.reply(chatID, fmt.Sprintf(l.Prefs.Saved, text))
}

// handleAssistantMessage — конвейер одного сообщения: сессия →
// дополненный запрос → run ассистента → история блюд → санитайз →
// доставка. Любая ошибка деградирует до вежливого ответа-заглушки.
func (b *Bot) handleAssistantMessage(ctx context.Context, chatID int64, text string) {
	l := locales.Get()

	waitMsg := tgbotapi.NewMessage(chatID, l.Chat.Processing)
	sentMsg, err := b.sender.Send(waitMsg)
	if err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
		return
	}

	threadID, err := b.store.GetOrCreateThread(ctx, chatID, b.assistant.CreateThread)
	if err != nil {
		log.Printf("Ошибка получения треда: %v", err)
		b.edit(chatID, sentMsg.MessageID, l.Chat.Fallback)
		return
	}

	answer, err := b.assistant.Run(ctx, threadID, b.augmentMessage(chatID, text))
	if err != nil {
		log.Printf("Ошибка выполнения run: %v", err)
		b.edit(chatID, sentMsg.MessageID, l.Chat.Fallback)
		return
	}

	if dish := extractDishName(answer); dish != "" {
		if err := b.store.RecordDish(chatID, dish); err != nil {
			log.Printf("Ошибка записи блюда: %v", err)
		}
	}

	b.edit(chatID, sentMsg.MessageID, sanitize(answer))
}

// augmentMessage добавляет к запросу строки с предпочтениями и
// недавними блюдами — только когда они есть.
func (b *Bot) augmentMessage(chatID int64, text string) string {
	var sb strings.Builder
	sb.WriteString(text)

	if prefs, err := b.store.Preferences(chatID); err == nil && prefs != "" {
		sb.WriteString("\n\nМои предпочтения: ")
		sb.WriteString(prefs)
	}
	if dishes, err := b.store.RecentDishes(chatID); err == nil && len(dishes) > 0 {
		sb.WriteString("\nНедавно ты уже предлагал: ")
		sb.WriteString(strings.Join(dishes, ", "))
		sb.WriteString(" — не повторяй эти блюда.")
	}
	return sb.String()
}

// reply отправляет новое сообщение
func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true
	if _, err := b.sender.Send(msg); err != nil {
		log.Printf("Ошибка отправки сообщения: %v", err)
	}
}

// edit редактирует ранее отправленное сообщение; если редактирование
// не удалось — отправляет новое.
func (b *Bot) edit(chatID int64, messageID int, text string) {
	editMsg := tgbotapi.NewEditMessageText(chatID, messageID, text)
	editMsg.ParseMode = tgbotapi.ModeMarkdown
	editMsg.DisableWebPagePreview = true
	if _, err := b.sender.Send(editMsg); err != nil {
		log.Printf("Не удалось отредактировать сообщение: %v", err)
		b.reply(chatID, text)
	}
}
