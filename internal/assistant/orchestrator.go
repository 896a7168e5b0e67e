// Package assistant ведёт run OpenAI Assistants API до завершения:
// постановка в очередь, опрос статуса, вызовы инструментов, финальный
// ответ.
package assistant

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/fox67rus/AI-consultant-tg/pkg/locales"
)

const (
	// pollInterval — пауза между опросами статуса run'а. Run'ы короткие,
	// вызовы дешёвые, поэтому фиксированный интервал без backoff.
	pollInterval = 350 * time.Millisecond
	// runDeadline — жёсткий потолок на один run: зависший run на стороне
	// провайдера не должен держать обработчик сообщения вечно.
	runDeadline = 90 * time.Second

	messagesLimit = 5
)

// service — операции Assistants API, которые использует оркестратор.
// *openai.Client реализует интерфейс; в тестах подставляется фейк.
type service interface {
	CreateThread(ctx context.Context, request openai.ThreadRequest) (openai.Thread, error)
	CreateMessage(ctx context.Context, threadID string, request openai.MessageRequest) (openai.Message, error)
	CreateRun(ctx context.Context, threadID string, request openai.RunRequest) (openai.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (openai.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, request openai.SubmitToolOutputsRequest) (openai.Run, error)
	ListMessage(ctx context.Context, threadID string, limit *int, order, after, before, runID *string) (openai.MessagesList, error)
}

// Orchestrator доводит один run ассистента до терминального статуса.
type Orchestrator struct {
	svc         service
	assistantID string
	tools       *Registry
	interval    time.Duration
	deadline    time.Duration
}

// New создаёт оркестратор поверх клиента OpenAI с фиксированным
// профилем ассистента.
func New(svc service, assistantID string, tools *Registry) *Orchestrator {
	if tools == nil {
		tools = NewRegistry()
	}
	return &Orchestrator{
		svc:         svc,
		assistantID: assistantID,
		tools:       tools,
		interval:    pollInterval,
		deadline:    runDeadline,
	}
}

// CreateThread создаёт новый тред разговора.
func (o *Orchestrator) CreateThread(ctx context.Context) (string, error) {
	thread, err := o.svc.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", fmt.Errorf("не удалось создать тред: %w", err)
	}
	return thread.ID, nil
}

// Run добавляет сообщение пользователя в тред, запускает run и ведёт
// его до терминального статуса, попутно исполняя запрошенные
// инструменты. Возвращает текст последнего ответа ассистента.
func (o *Orchestrator) Run(ctx context.Context, threadID, text string) (string, error) {
	if _, err := o.svc.CreateMessage(ctx, threadID, openai.MessageRequest{
		Role:    openai.ChatMessageRoleUser,
		Content: text,
	}); err != nil {
		return "", fmt.Errorf("не удалось добавить сообщение в тред: %w", err)
	}

	run, err := o.svc.CreateRun(ctx, threadID, openai.RunRequest{AssistantID: o.assistantID})
	if err != nil {
		return "", fmt.Errorf("не удалось запустить run: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, o.deadline)
	defer cancel()

	for !terminal(run.Status) {
		if run.Status == openai.RunStatusRequiresAction &&
			run.RequiredAction != nil && run.RequiredAction.SubmitToolOutputs != nil {
			outputs := o.collectToolOutputs(ctx, run.RequiredAction.SubmitToolOutputs.ToolCalls)
			run, err = o.svc.SubmitToolOutputs(ctx, threadID, run.ID, openai.SubmitToolOutputsRequest{
				ToolOutputs: outputs,
			})
			if err != nil {
				return "", fmt.Errorf("не удалось отправить результаты инструментов: %w", err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			return "", fmt.Errorf("run %s не завершился: %w", run.ID, ctx.Err())
		case <-time.After(o.interval):
		}

		run, err = o.svc.RetrieveRun(ctx, threadID, run.ID)
		if err != nil {
			return "", fmt.Errorf("не удалось получить статус run: %w", err)
		}
	}

	if run.Status != openai.RunStatusCompleted {
		// Неуспешный терминальный статус не фатален: в треде могли
		// остаться сообщения, отдадим что есть.
		if run.LastError != nil {
			log.Printf("⚠️ Run %s завершился со статусом %s: %s (%s)",
				run.ID, run.Status, run.LastError.Message, run.LastError.Code)
		} else {
			log.Printf("⚠️ Run %s завершился со статусом %s", run.ID, run.Status)
		}
	}

	return o.lastAssistantReply(ctx, threadID)
}

// collectToolOutputs исполняет все ожидающие вызовы. Ответ уходит
// одним пакетом, и по каждому вызову обязан быть вывод — иначе run не
// продолжится.
func (o *Orchestrator) collectToolOutputs(ctx context.Context, calls []openai.ToolCall) []openai.ToolOutput {
	outputs := make([]openai.ToolOutput, 0, len(calls))
	for _, call := range calls {
		log.Printf("🔧 Вызов инструмента %s: %s", call.Function.Name, call.Function.Arguments)
		outputs = append(outputs, openai.ToolOutput{
			ToolCallID: call.ID,
			Output:     o.tools.Dispatch(ctx, call.Function.Name, call.Function.Arguments),
		})
	}
	return outputs
}

// lastAssistantReply возвращает текст самого свежего ответа ассистента
// из треда, склеивая текстовые части через перевод строки.
func (o *Orchestrator) lastAssistantReply(ctx context.Context, threadID string) (string, error) {
	limit := messagesLimit
	order := "desc"
	list, err := o.svc.ListMessage(ctx, threadID, &limit, &order, nil, nil, nil)
	if err != nil {
		return "", fmt.Errorf("не удалось получить сообщения треда: %w", err)
	}

	for _, msg := range list.Messages {
		if msg.Role != "assistant" {
			continue
		}
		var parts []string
		for _, c := range msg.Content {
			if c.Type == "text" && c.Text != nil {
				parts = append(parts, c.Text.Value)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "\n"), nil
		}
	}
	return locales.Get().Chat.Fallback, nil
}

// terminal сообщает, достиг ли run терминального статуса. Дальше
// опрашивать нечего: run переходит только вперёд.
func terminal(status openai.RunStatus) bool {
	switch status {
	case openai.RunStatusCompleted, openai.RunStatusFailed,
		openai.RunStatusCancelled, openai.RunStatusExpired:
		return true
	}
	return false
}
