package llm

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/goccy/go-json"

	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
)

const (
	analysisSystemPrompt  = "Ты эксперт по анализу деловой корреспонденции банка. Отвечай только валидным JSON без дополнительных комментариев."
	parameterSystemPrompt = "Ты эксперт по деловой переписке. Отвечай только валидным JSON."
)

const analysisSchema = `Верни ТОЛЬКО валидный JSON со следующей структурой:
{
  "category": "information_request",
  "parameters": {
    "tone": "formal",
    "purpose": "response",
    "length": "medium",
    "audience": "client",
    "urgency": "normal",
    "address_style": "vy",
    "include_formal_greetings": true,
    "include_greeting_and_signoff": true,
    "include_corporate_phrases": true
  },
  "extracted_info": {
    "request_essence": "Краткое описание сути запроса и ожиданий отправителя",
    "contact_info": "Извлеченные контактные данные, если есть",
    "regulatory_references": ["Ссылка на нормативный акт"],
    "requirements": ["Требование"],
    "legal_risks": ["Потенциальный риск"]
  }
}

Определение категории (category):
- "complaint" - официальная жалоба или претензия: "нарушение", "требуем", "претензия", "жалоба", требования возврата средств или компенсации
- "notification" - только явное уведомление или информирование: "уведомляем", "информируем", "доводим до сведения", "ответ не требуется"
- "regulatory_request" - требования надзорных органов (Банк России, ЦБ РФ) с нормативными основаниями, требующие действий
- "information_request" - запрос информации или документов (справки, выписки, подтверждающие документы)
- "partnership_proposal" - коммерческие предложения и запросы на сотрудничество
- "approval_request" - необходимость утверждения документов или условий сделок
- "other" - только если ни одна категория не подходит

Параметры (parameters):
- tone: "formal" | "neutral" | "friendly"; для жалоб используй "formal"
- purpose: "response" | "proposal" | "notification" | "refusal"; для уведомлений "notification", для жалоб "response"
- length: "short" | "medium" | "long"
- audience: "colleague" | "manager" | "client" | "partner" | "regulator"
  * "client" - клиент банка, получает услуги: кредиты, вклады, счета, карты, переводы
  * "partner" - бизнес-партнер, сотрудничество на равных: интеграции, совместные проекты, B2B
  * "regulator" - Банк России, ЦБ РФ, регулятор
  * "colleague" - внутренняя переписка; "manager" - вышестоящее руководство
- urgency: "low" | "normal" | "high"; конкретный дедлайн, "немедленно" или "срочно" означают "high"
- address_style: "vy" | "ty" | "full_name"

Извлеченная информация (extracted_info):
- request_essence: ОБЯЗАТЕЛЬНО заполни, 2-3 предложения о сути письма и ожидаемых действиях
- contact_info: контактные данные и реквизиты, если есть
- regulatory_references: упомянутые нормативные акты, например "Указание Банка России №58-У"
- requirements: требования и ожидания отправителя
- legal_risks: только реальные потенциальные юридические риски

Если информации нет, используй null для необязательных полей и пустые массивы [].`

const parameterSchema = `Верни ТОЛЬКО валидный JSON со следующими параметрами:
{
  "tone": "formal",
  "purpose": "response",
  "length": "medium",
  "audience": "colleague",
  "urgency": "normal",
  "address_style": "vy",
  "include_formal_greetings": true,
  "include_greeting_and_signoff": true,
  "include_corporate_phrases": true
}

Возможные значения:
- tone: "formal" | "neutral" | "friendly"
- purpose: "response" | "proposal" | "notification" | "refusal"
- length: "short" | "medium" | "long"
- audience: "colleague" | "manager" | "client" | "partner" | "regulator"
  * "client" - клиент банка (получает услуги: кредиты, вклады, счета)
  * "partner" - бизнес-партнер (сотрудничество на равных: интеграции, совместные проекты, B2B)
- urgency: "low" | "normal" | "high"
- address_style: "vy" | "ty" | "full_name"`

// BuildAnalysisMessages renders the prompt for a full structured analysis.
func BuildAnalysisMessages(subject, body, companyContext string) []out.Message {
	return []out.Message{
		{Role: out.RoleSystem, Content: analysisSystemPrompt},
		{Role: out.RoleUser, Content: "Проанализируй входящее письмо и выполни комплексный анализ.\n\n" +
			inboundBlock(subject, body, companyContext) + "\n\n" + analysisSchema},
	}
}

// BuildParameterMessages renders the prompt for style parameters only.
func BuildParameterMessages(subject, body, companyContext string) []out.Message {
	return []out.Message{
		{Role: out.RoleSystem, Content: parameterSystemPrompt},
		{Role: out.RoleUser, Content: "Проанализируй входящее письмо и определи оптимальные параметры для ответа.\n\n" +
			inboundBlock(subject, body, companyContext) + "\n\n" + parameterSchema},
	}
}

func inboundBlock(subject, body, companyContext string) string {
	return fmt.Sprintf("Входящее письмо:\nТема: %s\nТекст: %s\nКонтекст компании: %s", subject, body, companyContext)
}

var (
	fenceOpen  = regexp.MustCompile("^```(?:json)?[ \t]*\r?\n?")
	fenceClose = regexp.MustCompile("\r?\n?```$")
)

// ErrNoJSONObject is returned when a reply holds no JSON object.
var ErrNoJSONObject = errors.New("no JSON object in model reply")

// ExtractJSONObject strips markdown fences and returns the span from the first
// "{" to the last "}".
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = fenceOpen.ReplaceAllString(s, "")
		s = strings.TrimSpace(fenceClose.ReplaceAllString(s, ""))
	}
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end < start {
		return "", ErrNoJSONObject
	}
	return s[start : end+1], nil
}

// AnalysisReply is the leniently parsed analysis payload. Category is the
// raw label and may be outside the known set.
type AnalysisReply struct {
	Category      string
	Parameters    domain.StyleParameters
	ExtractedInfo domain.ExtractedInfo
}

// ParseAnalysisReply decodes a model reply into an AnalysisReply.
// Missing or wrong-shaped list fields become empty lists; missing parameter
// fields take their defaults. Parameter values are not validated here.
func ParseAnalysisReply(raw string) (*AnalysisReply, error) {
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return nil, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return nil, fmt.Errorf("decode analysis reply: %w", err)
	}
	for _, key := range []string{"category", "parameters", "extracted_info"} {
		if _, ok := fields[key]; !ok {
			return nil, fmt.Errorf("analysis reply is missing %q", key)
		}
	}

	reply := &AnalysisReply{
		Category:   rawString(fields["category"]),
		Parameters: domain.DefaultStyleParameters(),
	}
	if err := json.Unmarshal(fields["parameters"], &reply.Parameters); err != nil {
		return nil, fmt.Errorf("decode analysis parameters: %w", err)
	}
	reply.ExtractedInfo = parseExtractedInfo(fields["extracted_info"])
	return reply, nil
}

// ParseParameterReply decodes a style-parameter reply onto the request defaults.
func ParseParameterReply(raw string) (domain.StyleParameters, error) {
	params := domain.DefaultStyleParameters()
	obj, err := ExtractJSONObject(raw)
	if err != nil {
		return params, err
	}
	if err := json.Unmarshal([]byte(obj), &params); err != nil {
		return params, fmt.Errorf("decode parameters: %w", err)
	}
	return params, nil
}

func parseExtractedInfo(data json.RawMessage) domain.ExtractedInfo {
	var raw struct {
		RequestEssence       json.RawMessage `json:"request_essence"`
		ContactInfo          json.RawMessage `json:"contact_info"`
		RegulatoryReferences json.RawMessage `json:"regulatory_references"`
		Requirements         json.RawMessage `json:"requirements"`
		LegalRisks           json.RawMessage `json:"legal_risks"`
	}
	// a non-object extracted_info is treated as empty
	_ = json.Unmarshal(data, &raw)

	info := domain.ExtractedInfo{
		RequestEssence:       strings.TrimSpace(rawString(raw.RequestEssence)),
		RegulatoryReferences: rawStrings(raw.RegulatoryReferences),
		Requirements:         rawStrings(raw.Requirements),
		LegalRisks:           rawStrings(raw.LegalRisks),
	}
	if contact := strings.TrimSpace(rawString(raw.ContactInfo)); contact != "" {
		info.ContactInfo = &contact
	}
	return info
}

func rawString(data json.RawMessage) string {
	var s string
	if len(data) == 0 || json.Unmarshal(data, &s) != nil {
		return ""
	}
	return s
}

func rawStrings(data json.RawMessage) []string {
	var items []any
	if len(data) == 0 || json.Unmarshal(data, &items) != nil {
		return []string{}
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			list = append(list, s)
		}
	}
	return list
}
