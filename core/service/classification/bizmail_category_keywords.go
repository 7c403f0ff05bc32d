package classification

import (
	"bizmail_server/core/domain"
)

// =============================================================================
// Category Taxonomy
// =============================================================================

// categoryPhrases holds the weighted lexical markers per category.
// Phrase order within a category only matters for reporting the top phrase.
var categoryPhrases = map[domain.EmailCategory][]WeightedPhrase{
	domain.CategoryNotification: {
		{"ответ не требуется", 5.0},
		{"ответ на настоящее уведомление не требуется", 5.0},
		{"уведомляем", 3.0},
		{"информируем", 3.0},
		{"доводим до сведения", 3.0},
		{"для сведения", 2.5},
		{"к сведению", 2.5},
		{"информирование", 2.0},
		{"уведомление", 2.0},
		{"изменения в методике", 2.0},
		{"вступают в силу", 1.5},
		{"с 01.01", 1.5},
		{"с 1 января", 1.5},
	},
	domain.CategoryRegulatoryRequest: {
		{"банк россии", 4.0},
		{"цб рф", 4.0},
		{"центральный банк", 4.0},
		{"требуем", 3.5},
		{"указание банка россии", 3.5},
		{"регулятор", 3.0},
		{"надзорный орган", 3.0},
		{"просим предоставить", 3.0},
		{"необходимо предоставить", 3.0},
		{"распоряжение", 2.5},
		{"приказ", 2.5},
		{"в срок до", 2.0},
		{"в течение", 2.0},
	},
	domain.CategoryInformationRequest: {
		{"необходима информация", 3.0},
		{"требуется информация", 3.0},
		{"подтверждающий документ", 3.0},
		{"просим предоставить", 3.0},
		{"справка", 2.5},
		{"выписка", 2.5},
		{"запрос", 2.0},
		{"копия документа", 2.0},
		{"документ", 1.5},
	},
	domain.CategoryComplaint: {
		{"грубое нарушение", 5.0},
		{"нарушение условий договора", 5.0},
		{"нарушение", 4.5},
		{"жалоба", 4.0},
		{"претензия", 4.0},
		{"требуем компенсацию", 4.0},
		{"требуем возврата", 4.0},
		{"нарушены условия", 4.0},
		{"неправомерные действия", 4.0},
		{"недовольство", 3.5},
		{"некачественное обслуживание", 3.5},
		{"требуем", 3.5},
		{"требуем разъяснения", 3.5},
		{"возврат средств", 3.5},
		{"списаны без", 3.5},
		{"не соблюдены", 3.0},
	},
	domain.CategoryPartnershipProposal: {
		{"коммерческое предложение", 4.0},
		{"партнерство", 3.5},
		{"партнерская программа", 3.5},
		{"сотрудничество", 3.0},
		{"совместный проект", 3.0},
		{"предлагаем", 2.5},
		{"b2b", 2.0},
		{"b2b2c", 2.0},
		{"интеграция", 2.0},
	},
	domain.CategoryApprovalRequest: {
		{"просим согласовать", 4.0},
		{"согласование", 3.5},
		{"утверждение", 3.5},
		{"требуется согласование", 3.5},
		{"на согласование", 3.0},
		{"на утверждение", 3.0},
		{"одобрение", 2.5},
	},
}

// CategoryTaxonomy returns the category keyword taxonomy in declaration order.
func CategoryTaxonomy() Taxonomy[domain.EmailCategory] {
	return Taxonomy[domain.EmailCategory]{
		Labels:  domain.AllCategories,
		Phrases: categoryPhrases,
	}
}

// NewCategoryScorer returns a scorer over the category taxonomy.
// Texts with no marker classify as "other".
func NewCategoryScorer() *KeywordScorer[domain.EmailCategory] {
	return NewKeywordScorer(CategoryTaxonomy(), domain.CategoryOther)
}
