package ai

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/singleflight"

	"bizmail_server/core/agent/llm"
	"bizmail_server/core/domain"
	"bizmail_server/core/port/out"
	"bizmail_server/core/service/classification"
	"bizmail_server/core/service/extraction"
	"bizmail_server/pkg/apperr"
	"bizmail_server/pkg/logger"
)

const (
	generationTemperature = 0.4

	generationKeyPrefix = "bizmail:generation:"

	DefaultGenerationCacheTTL = 30 * time.Minute
)

// Generator drafts replies. Identical concurrent requests share one model call.
type Generator struct {
	gateway     out.LLMGateway
	departments *classification.DepartmentDetector
	recipients  *extraction.RecipientNameExtractor
	cache       out.CacheStore
	cacheTTL    time.Duration

	flight singleflight.Group
}

// GeneratorConfig wires a Generator. Cache may be nil.
type GeneratorConfig struct {
	Gateway  out.LLMGateway
	Cache    out.CacheStore
	CacheTTL time.Duration
}

func NewGenerator(cfg GeneratorConfig) *Generator {
	g := &Generator{
		gateway:     cfg.Gateway,
		departments: classification.NewDepartmentDetector(),
		recipients:  extraction.NewRecipientNameExtractor(),
		cache:       cfg.Cache,
		cacheTTL:    cfg.CacheTTL,
	}
	if g.cacheTTL <= 0 {
		g.cacheTTL = DefaultGenerationCacheTTL
	}
	return g
}

// Generate validates req and returns a normalized draft.
// Gateway errors propagate; cache errors never do.
func (g *Generator) Generate(ctx context.Context, req *domain.GenerationRequest) (*domain.GeneratedReply, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if g.gateway == nil {
		return nil, apperr.ConfigError("llm gateway is not configured")
	}

	key := generationKey(req)
	if reply, ok := g.cached(ctx, key); ok {
		logger.WithContext(ctx).Debug("generation cache hit")
		return reply, nil
	}

	v, err, _ := g.flight.Do(key, func() (any, error) {
		return g.generate(ctx, key, req)
	})
	if err != nil {
		return nil, err
	}

	reply := *v.(*domain.GeneratedReply)
	return &reply, nil
}

func (g *Generator) generate(ctx context.Context, key string, req *domain.GenerationRequest) (*domain.GeneratedReply, error) {
	start := time.Now()

	department := req.DepartmentHint
	if department == "" {
		department = g.departments.Detect(req.Subject, req.Body)
	}

	recipient := req.RecipientName
	if recipient == "" {
		recipient, _ = g.recipients.Format(req.Subject, req.Body)
	}

	prompted := *req
	if recipient == "" && prompted.Parameters.AddressStyle == domain.AddressFullName {
		prompted.Parameters.AddressStyle = domain.AddressVy
	}

	messages := llm.BuildReplyMessages(&prompted, llm.PromptOptions{
		Department:    department,
		ThreadHistory: req.ThreadHistory,
		RecipientName: recipient,
	})

	raw, err := g.gateway.Complete(ctx, messages, generationTemperature)
	if err != nil {
		return nil, err
	}

	subject, body := llm.Normalize(raw)
	if req.Sender.HasSignature() {
		body = llm.InjectSignature(body, llm.BuildSignature(req.Sender))
	}
	reply := &domain.GeneratedReply{Subject: subject, Body: body}

	logger.WithContext(ctx).WithFields(map[string]any{
		"department": department,
		"recipient":  recipient != "",
	}).WithDuration(time.Since(start)).Info("reply generated")

	g.store(ctx, key, reply)
	return reply, nil
}

func (g *Generator) cached(ctx context.Context, key string) (*domain.GeneratedReply, bool) {
	if g.cache == nil {
		return nil, false
	}
	value, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Debug("generation cache read failed")
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var reply domain.GeneratedReply
	if err := json.Unmarshal([]byte(value), &reply); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("discarding corrupt generation cache entry")
		return nil, false
	}
	return &reply, true
}

func (g *Generator) store(ctx context.Context, key string, reply *domain.GeneratedReply) {
	if g.cache == nil {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, string(data), g.cacheTTL); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("generation cache write failed")
	}
}

// generationKey covers every input that can change the draft,
// including the signer so signatures never leak between senders.
func generationKey(req *domain.GenerationRequest) string {
	params, _ := json.Marshal(req.Parameters)
	paramsSum := sha256.Sum256(params)
	directives, _ := json.Marshal(req.Parameters.ExtraDirectives)
	sender, _ := json.Marshal(req.Sender)

	return hashKey(generationKeyPrefix,
		req.Subject,
		req.Body,
		req.Context,
		hex.EncodeToString(paramsSum[:])[:16],
		req.ThreadHistory,
		string(directives),
		req.CustomPrompt,
		string(sender),
		req.DepartmentHint,
		req.RecipientName,
	)
}
