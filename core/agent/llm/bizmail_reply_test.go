package llm

import (
	"reflect"
	"strings"
	"testing"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantSubject string
		wantBody    string
	}{
		{
			name:        "subject and body markers",
			raw:         "Тема: Ответ на запрос\nТело:\nДобрый день!\n\nС уважением,\nИванов",
			wantSubject: "Ответ на запрос",
			wantBody:    "Добрый день!\n\nС уважением,\nИванов",
		},
		{
			name:        "no markers",
			raw:         "  Просто текст  ",
			wantSubject: DefaultSubject,
			wantBody:    "Просто текст",
		},
		{
			name:        "escaped newline in subject",
			raw:         `Тема: Ответ\nпо   запросу` + "\nТело:\nТекст",
			wantSubject: "Ответ по запросу",
			wantBody:    "Текст",
		},
		{
			name:        "subject without body marker",
			raw:         "Тема: Уведомление\nТекст письма",
			wantSubject: "Уведомление",
			wantBody:    "Текст письма",
		},
		{
			name:        "routing marker stripped",
			raw:         "Тема: Ответ\nТело:\nТекст\n\nС уважением,\nИванов\nНаправить в Отдел кредитования\n",
			wantSubject: "Ответ",
			wantBody:    "Текст\n\nС уважением,\nИванов",
		},
		{
			name:        "lower-case routing marker stripped",
			raw:         "Тема: Ответ\nТело:\nТекст\nнаправить в Юридический департамент\n\n",
			wantSubject: "Ответ",
			wantBody:    "Текст",
		},
		{
			name:        "duplicate signatures keep the last",
			raw:         "Тема: x\nТело:\nТекст\nС уважением,\nИванов\n\nС уважением,\nПетров",
			wantSubject: "x",
			wantBody:    "Текст\nС уважением,\nПетров",
		},
		{
			name: "distant signatures both kept",
			raw: "Тема: x\nТело:\nС уважением к вашему времени, сообщаем\n" +
				"1\n2\n3\n4\n5\n6\n7\n8\n9\n10\nС уважением,\nПетров",
			wantSubject: "x",
			wantBody: "С уважением к вашему времени, сообщаем\n" +
				"1\n2\n3\n4\n5\n6\n7\n8\n9\n10\nС уважением,\nПетров",
		},
		{
			name:        "whitespace collapsed per line, blank lines kept",
			raw:         "Тема: x\nТело:\n\n\n  Добрый   день!  \n\n\nСпасибо\t за  ответ",
			wantSubject: "x",
			wantBody:    "Добрый день!\n\n\nСпасибо за ответ",
		},
		{
			name:        "text before subject without body marker",
			raw:         "Добрый день, Иван Петрович.\nСообщаем о решении.\nТема: Ответ",
			wantSubject: "Ответ",
			wantBody:    "Добрый день, Иван Петрович.\nСообщаем о решении.",
		},
		{
			name:        "body marker before subject",
			raw:         "Тело:\nТекст письма\nТема: Ответ",
			wantSubject: "Ответ",
			wantBody:    "Текст письма",
		},
		{
			name:        "body marker on subject line",
			raw:         "Тема: Ответ Тело: Текст письма",
			wantSubject: "Ответ",
			wantBody:    "Текст письма",
		},
		{
			name:        "empty subject falls back",
			raw:         "Тема:   \nТело:\nТекст",
			wantSubject: DefaultSubject,
			wantBody:    "Текст",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := Normalize(tt.raw)
			if subject != tt.wantSubject {
				t.Errorf("subject: expected %q, got %q", tt.wantSubject, subject)
			}
			if body != tt.wantBody {
				t.Errorf("body: expected %q, got %q", tt.wantBody, body)
			}

			again, againBody := Normalize(JoinReply(subject, body))
			if again != subject || againBody != body {
				t.Errorf("not idempotent: got (%q, %q) after (%q, %q)", again, againBody, subject, body)
			}
		})
	}
}

func TestWrapPosition(t *testing.T) {
	tests := []struct {
		position string
		expected []string
	}{
		{
			position: "Начальник отдела медиа продвижения управления маркетинговых коммуникаций департамента маркетинга",
			expected: []string{
				"Начальник отдела",
				"медиа продвижения управления",
				"маркетинговых коммуникаций департамента",
				"маркетинга",
			},
		},
		{position: "Менеджер", expected: []string{"Менеджер"}},
		{position: "Главный специалист отдела", expected: []string{"Главный специалист отдела"}},
	}

	for _, tt := range tests {
		got := WrapPosition(tt.position)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("WrapPosition(%q): expected %q, got %q", tt.position, tt.expected, got)
		}
	}
}

func TestSplitAddress(t *testing.T) {
	tests := []struct {
		address  string
		expected []string
	}{
		{
			address:  "ул. Смирновская, д. 10, стр. 22, г. Москва, 109052",
			expected: []string{"ул. Смирновская, д. 10, стр. 22,", "г. Москва, 109052"},
		},
		{address: "Москва", expected: []string{"Москва"}},
		{address: "г. Москва, ул. Ленина", expected: []string{"г. Москва, ул. Ленина"}},
	}

	for _, tt := range tests {
		got := SplitAddress(tt.address)
		if !reflect.DeepEqual(got, tt.expected) {
			t.Errorf("SplitAddress(%q): expected %q, got %q", tt.address, tt.expected, got)
		}
	}
}

func TestBuildSignature(t *testing.T) {
	sender := &domain.SenderIdentity{
		LastName:   "Иванов",
		FirstName:  "Иван",
		MiddleName: "Иванович",
		Position:   "Начальник отдела продаж",
		PhoneWork:  "+7 495 000-00-00",
		Email:      "ivanov@bank.ru",
		Address:    "ул. Ленина, д. 1, г. Москва",
		Website:    "bank.ru",
	}
	expected := "С уважением,\nИванов\nИван Иванович\n\n\n" +
		"Начальник отдела\nпродаж\n\n\n" +
		"+7 495 000-00-00\nivanov@bank.ru\n" +
		"ул. Ленина, д. 1,\nг. Москва\n\n\n" +
		"bank.ru\n\n[LOGO]"

	if got := BuildSignature(sender); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}

	onlyPosition := BuildSignature(&domain.SenderIdentity{Position: "Менеджер"})
	if onlyPosition != "С уважением,\nМенеджер\n\n\n\n[LOGO]" {
		t.Errorf("unexpected signature %q", onlyPosition)
	}
}

func TestInjectSignature(t *testing.T) {
	signature := "С уважением,\nИванов"

	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "replaces model signature",
			body:     "Текст письма\n\nС уважением,\nСтарый Подписант",
			expected: "Текст письма\n\n\nС уважением,\nИванов",
		},
		{
			name:     "appends when absent",
			body:     "Текст письма",
			expected: "Текст письма\n\n\nС уважением,\nИванов",
		},
		{
			name:     "signature only",
			body:     "С уважением,\nКто-то",
			expected: signature,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InjectSignature(tt.body, signature); got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestBuildReplyMessages(t *testing.T) {
	params := domain.DefaultStyleParameters()
	params.Length = domain.LengthShort
	params.ExtraDirectives = []string{"упомяни номер договора", " ", "без канцелярита"}

	req := &domain.GenerationRequest{
		Subject:      "Запрос выписки",
		Body:         "Прошу направить выписку.",
		Context:      "ПАО Банк",
		Parameters:   params,
		CustomPrompt: "Сошлись на тариф",
		Sender:       &domain.SenderIdentity{FirstName: "Анна", LastName: "Смирнова", Position: "Менеджер"},
	}

	msgs := BuildReplyMessages(req, PromptOptions{
		Department:    "Отдел кредитования",
		ThreadHistory: "История переписки:\n...",
		RecipientName: "Иван Петров",
	})
	if len(msgs) != 2 || msgs[0].Role != out.RoleSystem || msgs[1].Role != out.RoleUser {
		t.Fatalf("expected system and user messages, got %+v", msgs)
	}
	user := msgs[1].Content

	for _, want := range []string{
		"Тема: Запрос выписки",
		"- Длина: 3-4 предложения",
		"- Доп. указания: упомяни номер договора; без канцелярита",
		"Дополнительное описание задачи:\nОбращайся к получателю по имени: Иван Петров.\nСошлись на тариф",
		"- Имя: Анна\n- Фамилия: Смирнова\n- Должность: Менеджер",
		"Тема: <краткая формулировка>",
		"Направить в Отдел кредитования",
	} {
		if !strings.Contains(user, want) {
			t.Errorf("prompt is missing %q", want)
		}
	}

	order := []string{
		"Входящее письмо:",
		"Постоянный корпоративный контекст:",
		"Дополнительное описание задачи:",
		"Данные подписанта:",
		"История переписки:",
		"Параметры стилизации:",
		"Требования:",
	}
	last := -1
	for _, section := range order {
		i := strings.Index(user, section)
		if i <= last {
			t.Fatalf("section %q out of order", section)
		}
		last = i
	}

	plain := BuildReplyMessages(&domain.GenerationRequest{Subject: "s", Body: "b", Parameters: domain.DefaultStyleParameters()}, PromptOptions{})
	if strings.Contains(plain[1].Content, RoutingMarkerPrefix) {
		t.Error("routing instruction added without a department")
	}
	if strings.Contains(plain[1].Content, "Дополнительное описание задачи") {
		t.Error("empty task block rendered")
	}
}

func TestLengthGuideline(t *testing.T) {
	tests := map[domain.Length]string{
		domain.LengthShort:  "3-4 предложения",
		domain.LengthMedium: "5-8 предложений",
		domain.LengthLong:   "8-12 предложений",
		"unknown":           "5-8 предложений",
	}
	for length, expected := range tests {
		if got := LengthGuideline(length); got != expected {
			t.Errorf("LengthGuideline(%q): expected %q, got %q", length, expected, got)
		}
	}
}

func TestFormatThreadHistory(t *testing.T) {
	if got := FormatThreadHistory(nil); got != "" {
		t.Errorf("expected empty history, got %q", got)
	}

	msgs := []domain.ThreadMessage{
		{Type: domain.MessageIncoming, Subject: "A", Body: "a", SenderName: "Иван", SenderPosition: "Директор"},
		{Type: domain.MessageOutgoing, Subject: "B", Body: "b"},
	}
	expected := "История переписки:\n" +
		"\nВходящее письмо от Иван (Директор):\nТема: A\nТекст: a\n---\n" +
		"\nИсходящее письмо:\nТема: B\nТекст: b\n---"

	if got := FormatThreadHistory(msgs); got != expected {
		t.Errorf("expected %q, got %q", expected, got)
	}
}
