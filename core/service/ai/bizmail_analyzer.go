// Package ai drafts replies and analyzes inbound mail with a hosted model,
// degrading to keyword heuristics when the model is unavailable.
package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"bizmail_server/core/agent/llm"
	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/core/service/classification"
	"bizmail_server/core/service/extraction"
	"bizmail_server/core/service/sla"
	"bizmail_server/pkg/logger"
)

const (
	analysisTemperature  = 0.3
	parameterTemperature = 0.3

	analysisKeyPrefix = "bizmail:analysis:"

	DefaultAnalysisCacheTTL = time.Hour
)

// Keyword fallback maps the inferred purpose to a category when keywords are inconclusive.
var purposeCategories = map[domain.Purpose]domain.EmailCategory{
	domain.PurposeNotification: domain.CategoryNotification,
	domain.PurposeResponse:     domain.CategoryInformationRequest,
	domain.PurposeProposal:     domain.CategoryPartnershipProposal,
	domain.PurposeRefusal:      domain.CategoryComplaint,
}

// Analyzer produces a DetailedAnalysis for an inbound email.
type Analyzer struct {
	gateway     out.LLMGateway
	classifier  *classification.CategoryClassifier
	departments *classification.DepartmentDetector
	deadlines   *extraction.DeadlineExtractor
	cache       out.CacheStore
	cacheTTL    time.Duration
}

// AnalyzerConfig wires an Analyzer. Gateway and Cache may be nil.
type AnalyzerConfig struct {
	Gateway    out.LLMGateway
	Classifier *classification.CategoryClassifier
	Deadlines  *extraction.DeadlineExtractor
	Cache      out.CacheStore
	CacheTTL   time.Duration
}

func NewAnalyzer(cfg AnalyzerConfig) *Analyzer {
	a := &Analyzer{
		gateway:     cfg.Gateway,
		classifier:  cfg.Classifier,
		departments: classification.NewDepartmentDetector(),
		deadlines:   cfg.Deadlines,
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
	}
	if a.classifier == nil {
		a.classifier = classification.NewCategoryClassifier(nil, classification.DefaultOverrideThreshold)
	}
	if a.deadlines == nil {
		a.deadlines = extraction.NewDeadlineExtractor()
	}
	if a.cacheTTL <= 0 {
		a.cacheTTL = DefaultAnalysisCacheTTL
	}
	return a
}

// Analyze never fails. Model failures fall back to keyword analysis,
// and only model-backed results are cached.
func (a *Analyzer) Analyze(ctx context.Context, email domain.InboundEmail, companyContext string) *domain.DetailedAnalysis {
	key := hashKey(analysisKeyPrefix, email.Subject, email.Body, companyContext)
	if cached, ok := a.cached(ctx, key); ok {
		// Deadline days are relative to today and go stale in the cache.
		cached.ExtractedDeadlineDays = a.deadlineDays(email)
		return cached
	}

	if a.gateway != nil {
		result, err := a.analyzeWithModel(ctx, email, companyContext)
		if err == nil {
			a.store(ctx, key, result)
			return result
		}
		logger.WithContext(ctx).WithError(err).Warn("model analysis failed, using keyword fallback")
	}

	return a.fallback(ctx, email, companyContext)
}

// AnalyzeParameters asks the model for style parameters only.
// Any failure yields BasicStyleParameters.
func (a *Analyzer) AnalyzeParameters(ctx context.Context, email domain.InboundEmail, companyContext string) domain.StyleParameters {
	if a.gateway == nil {
		return domain.BasicStyleParameters()
	}

	raw, err := a.gateway.CompleteStructured(ctx, llm.BuildParameterMessages(email.Subject, email.Body, companyContext), parameterTemperature)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("parameter analysis failed")
		return domain.BasicStyleParameters()
	}

	params, err := llm.ParseParameterReply(raw)
	if err == nil {
		err = params.Validate()
	}
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("parameter reply rejected")
		return domain.BasicStyleParameters()
	}
	return params
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, email domain.InboundEmail, companyContext string) (*domain.DetailedAnalysis, error) {
	raw, err := a.gateway.CompleteStructured(ctx, llm.BuildAnalysisMessages(email.Subject, email.Body, companyContext), analysisTemperature)
	if err != nil {
		return nil, err
	}

	reply, err := llm.ParseAnalysisReply(raw)
	if err != nil {
		return nil, err
	}
	if err := reply.Parameters.Validate(); err != nil {
		return nil, err
	}

	category, known := domain.ParseCategory(reply.Category)
	if !known {
		logger.WithContext(ctx).WithField("category", reply.Category).Warn("unknown category from model, using other")
	}
	category = a.classifier.Resolve(category, email.Subject, email.Body)

	info := reply.ExtractedInfo
	if strings.TrimSpace(info.RequestEssence) == "" {
		info.RequestEssence = modelEssence(category, email.Subject)
	}
	if info.ContactInfo == nil {
		if contact, ok := extraction.ExtractContactInfo(email.Subject + " " + email.Body); ok {
			info.ContactInfo = &contact
		}
	}

	return a.assemble(email, category, reply.Parameters, info), nil
}

func (a *Analyzer) fallback(ctx context.Context, email domain.InboundEmail, companyContext string) *domain.DetailedAnalysis {
	params := a.AnalyzeParameters(ctx, email, companyContext)

	category, confidence := a.classifier.Classify(email.Subject, email.Body)
	if confidence < a.classifier.Threshold() {
		category = domain.CategoryOther
		if mapped, ok := purposeCategories[params.Purpose]; ok {
			category = mapped
		}
	}

	info := domain.ExtractedInfo{
		RequestEssence:       fallbackEssence(category, email.Subject),
		RegulatoryReferences: []string{},
		Requirements:         []string{},
		LegalRisks:           []string{},
	}
	return a.assemble(email, category, params, info)
}

// assemble adds the locally computed fields shared by both paths.
func (a *Analyzer) assemble(email domain.InboundEmail, category domain.EmailCategory, params domain.StyleParameters, info domain.ExtractedInfo) *domain.DetailedAnalysis {
	result := &domain.DetailedAnalysis{
		Category:         category,
		Parameters:       params,
		ExtractedInfo:    info,
		Department:       a.departments.Detect(email.Subject, email.Body),
		EstimatedSLADays: sla.Estimate(category, params.Urgency, params.Audience, email.Body),
	}
	result.ExtractedDeadlineDays = a.deadlineDays(email)
	return result
}

func (a *Analyzer) deadlineDays(email domain.InboundEmail) *int {
	days, ok := a.deadlines.Extract(email.Subject + " " + email.Body)
	if !ok {
		return nil
	}
	return &days
}

func (a *Analyzer) cached(ctx context.Context, key string) (*domain.DetailedAnalysis, bool) {
	if a.cache == nil {
		return nil, false
	}
	value, ok, err := a.cache.Get(ctx, key)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Debug("analysis cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var result domain.DetailedAnalysis
	if err := json.Unmarshal([]byte(value), &result); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("discarding corrupt analysis cache entry")
		return nil, false
	}
	return &result, true
}

func (a *Analyzer) store(ctx context.Context, key string, result *domain.DetailedAnalysis) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, string(data), a.cacheTTL); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("analysis cache write failed")
	}
}

func modelEssence(category domain.EmailCategory, subject string) string {
	if category == domain.CategoryNotification {
		return fmt.Sprintf("Уведомление: %s. Требуется ознакомление и учет информации.", subject)
	}
	return fmt.Sprintf("Запрос по теме: %s. Требуется обработка и ответ.", subject)
}

func fallbackEssence(category domain.EmailCategory, subject string) string {
	switch category {
	case domain.CategoryNotification:
		return fmt.Sprintf("Уведомление: %s. Требуется ознакомление с информацией.", subject)
	case domain.CategoryRegulatoryRequest:
		return fmt.Sprintf("Регуляторный запрос: %s. Требуется выполнение требований регулятора.", subject)
	case domain.CategoryComplaint:
		return fmt.Sprintf("Жалоба/претензия: %s. Требуется рассмотрение и ответ.", subject)
	default:
		return fmt.Sprintf("Запрос по теме: %s. Требуется обработка и ответ.", subject)
	}
}

// hashKey builds a cache key from the JSON encoding of parts.
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return prefix + hex.EncodeToString(sum[:])
}
