package classification

import (
	"bizmail_server/core/domain"
	"bizmail_server/pkg/logger"
)

// DefaultOverrideThreshold is the keyword confidence needed to override the model.
const DefaultOverrideThreshold = 0.3

// priorityCategories may replace any model category once the keyword
// confidence reaches the threshold.
var priorityCategories = map[domain.EmailCategory]bool{
	domain.CategoryNotification:      true,
	domain.CategoryRegulatoryRequest: true,
	domain.CategoryComplaint:         true,
}

// CategoryClassifier combines a model-supplied category with keyword evidence.
type CategoryClassifier struct {
	scorer    *KeywordScorer[domain.EmailCategory]
	threshold float64
}

func NewCategoryClassifier(scorer *KeywordScorer[domain.EmailCategory], threshold float64) *CategoryClassifier {
	if scorer == nil {
		scorer = NewCategoryScorer()
	}
	if threshold <= 0 {
		threshold = DefaultOverrideThreshold
	}
	return &CategoryClassifier{scorer: scorer, threshold: threshold}
}

// Classify runs keyword-only classification over subject and body.
func (c *CategoryClassifier) Classify(subject, body string) (domain.EmailCategory, float64) {
	return c.scorer.Classify(subject + " " + body)
}

// Threshold returns the override confidence threshold.
func (c *CategoryClassifier) Threshold() float64 {
	return c.threshold
}

// Resolve returns the final category. Keywords may promote to a priority
// category or replace "other"; they never demote a non-priority model answer.
func (c *CategoryClassifier) Resolve(aiCategory domain.EmailCategory, subject, body string) domain.EmailCategory {
	kwCategory, confidence := c.Classify(subject, body)

	if confidence < c.threshold || kwCategory == aiCategory {
		return aiCategory
	}

	if priorityCategories[kwCategory] || (aiCategory == domain.CategoryOther && kwCategory != domain.CategoryOther) {
		logger.WithFields(map[string]any{
			"ai_category":      aiCategory,
			"keyword_category": kwCategory,
			"confidence":       confidence,
		}).Info("category corrected by keyword evidence")
		return kwCategory
	}
	return aiCategory
}
