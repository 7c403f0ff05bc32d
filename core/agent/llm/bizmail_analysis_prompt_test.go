package llm

import (
	"errors"
	"strings"
	"testing"

	"bizmail_server/core/domain"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
		wantErr  bool
	}{
		{name: "plain", raw: `{"a":1}`, expected: `{"a":1}`},
		{name: "json fence", raw: "```json\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "bare fence", raw: "```\n{\"a\":1}\n```", expected: `{"a":1}`},
		{name: "surrounding text", raw: "Вот ответ: {\"a\":{\"b\":2}} надеюсь, помог", expected: `{"a":{"b":2}}`},
		{name: "no object", raw: "нет данных", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSONObject(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrNoJSONObject) {
					t.Fatalf("expected ErrNoJSONObject, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseAnalysisReply(t *testing.T) {
	raw := "```json\n" + `{
  "category": "complaint",
  "parameters": {"tone": "formal", "urgency": "high", "audience": "client"},
  "extracted_info": {
    "request_essence": "  Клиент требует возврата комиссии.  ",
    "contact_info": null,
    "regulatory_references": "нет",
    "requirements": ["Вернуть комиссию", 42, ""],
    "legal_risks": null
  }
}` + "\n```"

	reply, err := ParseAnalysisReply(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Category != "complaint" {
		t.Errorf("expected category complaint, got %q", reply.Category)
	}
	if reply.Parameters.Urgency != domain.UrgencyHigh {
		t.Errorf("expected urgency high, got %q", reply.Parameters.Urgency)
	}
	if reply.Parameters.Length != domain.LengthMedium {
		t.Errorf("missing length should default to medium, got %q", reply.Parameters.Length)
	}

	info := reply.ExtractedInfo
	if info.RequestEssence != "Клиент требует возврата комиссии." {
		t.Errorf("unexpected essence %q", info.RequestEssence)
	}
	if info.ContactInfo != nil {
		t.Errorf("expected no contact info, got %q", *info.ContactInfo)
	}
	if info.RegulatoryReferences == nil || len(info.RegulatoryReferences) != 0 {
		t.Errorf("wrong-shaped list should become empty, got %#v", info.RegulatoryReferences)
	}
	if len(info.Requirements) != 1 || info.Requirements[0] != "Вернуть комиссию" {
		t.Errorf("unexpected requirements %#v", info.Requirements)
	}
	if info.LegalRisks == nil || len(info.LegalRisks) != 0 {
		t.Errorf("null list should become empty, got %#v", info.LegalRisks)
	}
}

func TestParseAnalysisReplyRejectsIncompletePayload(t *testing.T) {
	tests := []string{
		`{"category": "other", "parameters": {}}`,
		`{"parameters": {}, "extracted_info": {}}`,
		`{"category": "other", "parameters": "formal", "extracted_info": {}}`,
		`не JSON`,
	}
	for _, raw := range tests {
		if _, err := ParseAnalysisReply(raw); err == nil {
			t.Errorf("expected error for %q", raw)
		}
	}
}

func TestParseAnalysisReplyKeepsUnknownCategory(t *testing.T) {
	reply, err := ParseAnalysisReply(`{"category": "spam", "parameters": {}, "extracted_info": "n/a"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply.Category != "spam" {
		t.Errorf("expected raw category to be kept, got %q", reply.Category)
	}
	if reply.ExtractedInfo.RequestEssence != "" {
		t.Errorf("expected empty essence, got %q", reply.ExtractedInfo.RequestEssence)
	}
}

func TestParseParameterReply(t *testing.T) {
	params, err := ParseParameterReply(`{"tone": "friendly", "audience": "partner"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Tone != domain.ToneFriendly || params.Audience != domain.AudiencePartner {
		t.Errorf("unexpected parameters %+v", params)
	}
	if params.Purpose != domain.PurposeResponse {
		t.Errorf("missing purpose should default to response, got %q", params.Purpose)
	}
}

func TestBuildAnalysisMessages(t *testing.T) {
	msgs := BuildAnalysisMessages("Тема письма", "Текст письма", "Контекст")
	if msgs[0].Content != analysisSystemPrompt {
		t.Errorf("unexpected system prompt %q", msgs[0].Content)
	}
	for _, want := range []string{"Тема: Тема письма", "Текст: Текст письма", "Контекст компании: Контекст", `"extracted_info"`} {
		if !strings.Contains(msgs[1].Content, want) {
			t.Errorf("analysis prompt is missing %q", want)
		}
	}

	params := BuildParameterMessages("s", "b", "c")
	if params[0].Content != parameterSystemPrompt {
		t.Errorf("unexpected system prompt %q", params[0].Content)
	}
}
