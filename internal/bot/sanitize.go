package bot

import (
	"regexp"
	"strings"
)

// Служебные хвосты ответа ассистента, которые не должны попадать в
// Telegram: сноски файлового поиска, имена файлов, ссылки, хвостовые
// пробелы перед переводом строки.
var (
	citationRe      = regexp.MustCompile(`【[^】]*】`)
	fileRe          = regexp.MustCompile(`(?i)\b[\w.-]+\.(json|pdf|csv|md)\b`)
	urlRe           = regexp.MustCompile(`https?://\S+`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
)

// Привязка к формату ответа ассистента: блюдо выделяется жирным
// заголовком с эмодзи тарелки в начале строки. Если ассистент сменит
// формат, извлечение перестанет находить блюда и история просто не
// будет пополняться.
var dishRe = regexp.MustCompile(`(?m)^🍽(?:\x{FE0F})?\s*\*([^*\n]+)\*`)

// sanitize удаляет служебные хвосты и приводит текст к аккуратному
// Telegram Markdown. Функция идемпотентна.
func sanitize(text string) string {
	text = citationRe.ReplaceAllString(text, "")
	text = fileRe.ReplaceAllString(text, "")
	text = urlRe.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")

	// Непарная звёздочка ломает Markdown-рендер: убираем последнюю.
	if strings.Count(text, "*")%2 != 0 {
		i := strings.LastIndex(text, "*")
		text = text[:i] + text[i+1:]
	}

	text = trailingSpaceRe.ReplaceAllString(text, "\n")
	// Иногда модель ставит лишние бэктики/пробелы по краям — мягкая очистка.
	text = strings.Trim(text, "` \n\r\t")
	return text
}

// extractDishName достаёт название блюда из ответа ассистента.
// Пустая строка — маркер не найден.
func extractDishName(text string) string {
	m := dishRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}
