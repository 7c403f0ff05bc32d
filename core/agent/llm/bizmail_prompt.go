package llm

import (
	"fmt"
	"strings"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
)

const replySystemPrompt = "Ты профессиональный автор деловой корреспонденции. Всегда отвечай на русском языке."

// RoutingMarkerPrefix starts the line the model adds after the signature when
// a department is known. ResponseNormalizer strips it again.
const RoutingMarkerPrefix = "Направить в"

var lengthGuidelines = map[domain.Length]string{
	domain.LengthShort:  "3-4 предложения",
	domain.LengthMedium: "5-8 предложений",
	domain.LengthLong:   "8-12 предложений",
}

// LengthGuideline maps a length setting to a sentence-count hint for the model.
func LengthGuideline(l domain.Length) string {
	if g, ok := lengthGuidelines[l]; ok {
		return g
	}
	return lengthGuidelines[domain.LengthMedium]
}

// PromptOptions carries the optional inputs of a reply prompt.
type PromptOptions struct {
	Department    string
	ThreadHistory string
	RecipientName string
}

// BuildReplyMessages renders the system and user messages for drafting a reply.
func BuildReplyMessages(req *domain.GenerationRequest, opts PromptOptions) []out.Message {
	var b strings.Builder

	b.WriteString("Ты корпоративный ассистент крупного банка. Сгенерируй черновик письма,\nстрого соблюдая требования ниже.\n\n")

	b.WriteString("Входящее письмо:\n")
	fmt.Fprintf(&b, "Тема: %s\n", req.Subject)
	b.WriteString("Текст:\n")
	b.WriteString(req.Body)
	b.WriteString("\n\n")

	b.WriteString(composeContext(req, opts.RecipientName))
	b.WriteString("\n\n")

	if history := strings.TrimSpace(opts.ThreadHistory); history != "" {
		b.WriteString(history)
		b.WriteString("\n\nУчитывай историю переписки: не повторяй уже сообщённое и сохраняй последовательность позиций.\n\n")
	}

	b.WriteString("Параметры стилизации:\n")
	b.WriteString(renderParameters(req.Parameters))
	b.WriteString("\n\n")

	b.WriteString("Требования:\n")
	b.WriteString("- При необходимости переформулируй факты, но не добавляй неподтверждённые данные.\n")
	b.WriteString("- Если исходное письмо содержит вопросы, дай чёткие ответы пунктами.\n")
	b.WriteString("- Укажи степень срочности в тексте, если параметр urgency = high.\n")
	b.WriteString("- Не оставляй пустых шаблонных заглушек.\n")
	b.WriteString("- Ответ возвращай строго в формате:\n  Тема: <краткая формулировка>\n  Тело:\n  <готовый текст письма>\n")
	b.WriteString("- Заверши письмо подписью из блока \"Данные подписанта\", перечисляя каждое поле с новой строки. Если данных нет, ограничься общим корпоративным завершением.")
	if opts.Department != "" {
		fmt.Fprintf(&b, "\n- После подписи добавь отдельной строкой: %s %s", RoutingMarkerPrefix, opts.Department)
	}

	return []out.Message{
		{Role: out.RoleSystem, Content: replySystemPrompt},
		{Role: out.RoleUser, Content: b.String()},
	}
}

func renderParameters(p domain.StyleParameters) string {
	directives := []string{
		"Тон: " + string(p.Tone),
		"Цель: " + string(p.Purpose),
		"Длина: " + LengthGuideline(p.Length),
		"Аудитория: " + string(p.Audience),
		"Стиль обращения: " + string(p.AddressStyle),
		"Формальные приветствия: " + choose(p.IncludeFormalGreetings, "да", "нет"),
		"Приветствие и заключение: " + choose(p.IncludeGreetingAndSignoff, "включить", "опустить"),
		"Срочность: " + string(p.Urgency),
		"Корпоративные фразы: " + choose(p.IncludeCorporatePhrases, "использовать", "избегать"),
	}
	if extra := nonBlank(p.ExtraDirectives); len(extra) > 0 {
		directives = append(directives, "Доп. указания: "+strings.Join(extra, "; "))
	}

	lines := make([]string, len(directives))
	for i, d := range directives {
		lines[i] = "- " + d
	}
	return strings.Join(lines, "\n")
}

func composeContext(req *domain.GenerationRequest, recipientName string) string {
	sections := []string{"Постоянный корпоративный контекст:\n" + strings.TrimSpace(req.Context)}

	task := strings.TrimSpace(req.CustomPrompt)
	if recipientName != "" {
		greeting := fmt.Sprintf("Обращайся к получателю по имени: %s.", recipientName)
		if task == "" {
			task = greeting
		} else {
			task = greeting + "\n" + task
		}
	}
	if task != "" {
		sections = append(sections, "Дополнительное описание задачи:\n"+task)
	}

	if s := req.Sender; s != nil {
		var lines []string
		if s.FirstName != "" {
			lines = append(lines, "- Имя: "+s.FirstName)
		}
		if s.MiddleName != "" {
			lines = append(lines, "- Отчество: "+s.MiddleName)
		}
		if s.LastName != "" {
			lines = append(lines, "- Фамилия: "+s.LastName)
		}
		if s.Position != "" {
			lines = append(lines, "- Должность: "+s.Position)
		}
		if len(lines) > 0 {
			sections = append(sections, "Данные подписанта:\n"+strings.Join(lines, "\n"))
		}
	}

	return strings.Join(sections, "\n\n")
}

// FormatThreadHistory renders prior messages, oldest first, as a prompt block.
func FormatThreadHistory(messages []domain.ThreadMessage) string {
	if len(messages) == 0 {
		return ""
	}

	lines := []string{"История переписки:"}
	for _, m := range messages {
		kind := "Исходящее письмо"
		if m.Type == domain.MessageIncoming {
			kind = "Входящее письмо"
		}
		sender := ""
		if m.SenderName != "" {
			sender = " от " + m.SenderName
			if m.SenderPosition != "" {
				sender += " (" + m.SenderPosition + ")"
			}
		}
		lines = append(lines,
			"\n"+kind+sender+":",
			"Тема: "+m.Subject,
			"Текст: "+m.Body,
			"---",
		)
	}
	return strings.Join(lines, "\n")
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func nonBlank(items []string) []string {
	var kept []string
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return kept
}
