package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// Handler исполняет один вызов инструмента. Возвращённое значение
// сериализуется в JSON и уходит ассистенту как вывод вызова.
type Handler func(ctx context.Context, args json.RawMessage) (any, error)

// Registry сопоставляет имя инструмента обработчику. Диспетчеризация
// по реестру вместо цепочки сравнений имён: новый инструмент — это
// одна регистрация.
type Registry struct {
	handlers map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register добавляет обработчик инструмента.
func (r *Registry) Register(name string, h Handler) {
	r.handlers[name] = h
}

// Dispatch исполняет вызов и всегда возвращает валидный JSON: любая
// ошибка превращается в структурированный ответ, чтобы run мог
// продолжиться, а не застрять без вывода инструмента.
func (r *Registry) Dispatch(ctx context.Context, name, rawArgs string) string {
	if !json.Valid([]byte(rawArgs)) {
		return errorOutput("invalid_json")
	}

	h, ok := r.handlers[name]
	if !ok {
		return errorOutput(fmt.Sprintf("Unknown function: %s", name))
	}

	result, err := h(ctx, json.RawMessage(rawArgs))
	if err != nil {
		return errorOutput(err.Error())
	}

	out, err := json.Marshal(result)
	if err != nil {
		log.Printf("Не удалось сериализовать результат инструмента %s: %v", name, err)
		return errorOutput(err.Error())
	}
	return string(out)
}

type toolError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

func errorOutput(message string) string {
	out, _ := json.Marshal(toolError{Status: "error", Message: message})
	return string(out)
}
