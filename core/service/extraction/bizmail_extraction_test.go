package extraction

import (
	"testing"
	"time"
)

// Wednesday
var fixedNow = time.Date(2026, time.October, 14, 10, 30, 0, 0, time.UTC)

func TestDeadlineExtract(t *testing.T) {
	extractor := NewDeadlineExtractorWithClock(func() time.Time { return fixedNow })

	tests := []struct {
		name   string
		text   string
		want   int
		wantOK bool
	}{
		{"business days", "Просим направить ответ в течение 10 рабочих дней", 10, true},
		{"no indicator", "Добрый день", 0, false},
		{"abbreviated business days", "Дедлайн: 3 раб. дн.", 3, true},
		{"calendar days converted", "Ответ нужен в течение 10 дней", 7, true},
		{"calendar day floor is one", "в течение 1 дня", 1, true},
		{"calendar days truncated", "в течение 5 дней", 3, true},
		{"immediate", "Прошу ответить немедленно", 1, true},
		{"urgent word only as whole word", "срочность низкая, срок не указан", 0, false},
		{"early repayment is not urgent", "Планируем погасить кредит досрочно", 0, false},
		{"non-urgent is not urgent", "Вопрос несрочно, срок не важен", 0, false},
		{"out of range ignored", "в течение 45 рабочих дней", 0, false},
		{"business days beat date", "в течение 5 рабочих дней, не позднее 21.10.2026", 5, true},
		{"date next week", "Просим ответить до 21.10.2026", 5, true},
		{"date in past", "до 01.01.2020", 1, true},
		{"date today", "не позднее 14.10.2026", 1, true},
		{"far date clamped", "дедлайн: 31.12.2027", 30, true},
		{"invalid date", "до 31.02.2027", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractor.Extract(tt.text)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Extract(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.wantOK)
			}
			if ok && (got < 1 || got > 30) {
				t.Errorf("Extract(%q) = %d outside [1,30]", tt.text, got)
			}
		})
	}
}

func TestBusinessDaysUntil(t *testing.T) {
	friday := time.Date(2026, time.October, 16, 18, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		target time.Time
		want   int
	}{
		{"over weekend", time.Date(2026, time.October, 19, 0, 0, 0, 0, time.UTC), 1},
		{"two weeks", time.Date(2026, time.October, 30, 0, 0, 0, 0, time.UTC), 10},
		{"same day", friday, 1},
		{"yesterday", time.Date(2026, time.October, 15, 0, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		if got := BusinessDaysUntil(friday, tt.target); got != tt.want {
			t.Errorf("%s: BusinessDaysUntil = %d, want %d", tt.name, got, tt.want)
		}
	}
}

func TestRecipientExtract(t *testing.T) {
	extractor := NewRecipientNameExtractor()

	tests := []struct {
		name    string
		subject string
		body    string
		want    string
		wantOK  bool
	}{
		{"salutation", "Re: Запрос", "Уважаемый Иван Петров, просим...", "Иван Петров", true},
		{"organisation after salutation", "", "Уважаемый Банк России", "", false},
		{"good afternoon", "Вопрос", "Добрый день, Анна Сергеевна! Прошу уточнить.", "Анна Сергеевна", true},
		{"salutation after name", "", "Ольга Николаевна, добрый день.", "Ольга Николаевна", true},
		{"addressed to", "", "обращаюсь к Марии Ивановой с просьбой", "Марии Ивановой", true},
		{"signature name ignored", "", "направляем отчет.\nС уважением, Петр Иванов", "", false},
		{"no names", "", "просим предоставить выписку", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := extractor.Format(tt.subject, tt.body)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Format() = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestRecipientExtractParts(t *testing.T) {
	name, ok := NewRecipientNameExtractor().Extract("Re: Запрос", "Уважаемый Иван Петров, просим...")
	if !ok {
		t.Fatal("expected a name")
	}
	if name.First != "Иван" || name.Second != "Петров" {
		t.Errorf("got %+v", name)
	}
}

func TestExtractContactInfo(t *testing.T) {
	got, ok := ExtractContactInfo("ИНН 7707083893 и почта info@bank.ru")
	want := "7707083893, info@bank.ru, ИНН 7707083893"
	if !ok || got != want {
		t.Errorf("ExtractContactInfo() = (%q, %v), want %q", got, ok, want)
	}

	if _, ok := ExtractContactInfo("без реквизитов"); ok {
		t.Error("expected no contact info")
	}
}
