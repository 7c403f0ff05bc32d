package bootstrap

import (
	"context"
	"time"

	"bizmail_server/adapter/out/persistence"
	"bizmail_server/config"
	"bizmail_server/core/agent/llm"
	"bizmail_server/core/port/out"
	"bizmail_server/core/service/ai"
	"bizmail_server/infra/database"
	"bizmail_server/pkg/cache"
	"bizmail_server/pkg/httputil"
	"bizmail_server/pkg/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

// connectTimeout bounds startup connection attempts.
const connectTimeout = 10 * time.Second

type Dependencies struct {
	Config *config.Config
	DB     *pgxpool.Pool
	SQLDB  *sqlx.DB
	Redis  *redis.Client

	// Repositories; nil without DATABASE_URL
	ThreadRepo  out.ThreadRepository
	ContextRepo out.ContextRepository

	Cache   out.CacheStore
	Gateway out.LLMGateway

	Analyzer  *ai.Analyzer
	Generator *ai.Generator
	Service   *ai.Service
}

func NewDependencies(cfg *config.Config) (*Dependencies, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	if cfg.DatabaseURL != "" {
		pool, err := database.NewPostgres(ctx, cfg.DatabaseURL, database.DefaultPostgresConfig())
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		cleanups = append(cleanups, pool.Close)

		deps.DB = pool
		deps.SQLDB = database.NewSQLX(pool)
		cleanups = append(cleanups, func() { deps.SQLDB.Close() })

		if err := persistence.Migrate(ctx, deps.SQLDB); err != nil {
			cleanup()
			return nil, nil, err
		}

		deps.ThreadRepo = persistence.NewThreadAdapter(deps.SQLDB)
		deps.ContextRepo = persistence.NewContextAdapter(deps.SQLDB)
		logger.Info("PostgreSQL connected, thread and context storage enabled")
	} else {
		logger.Warn("DATABASE_URL not set, thread and context storage disabled")
	}

	if cfg.RedisURL != "" {
		client, err := database.NewRedis(ctx, cfg.RedisURL, database.DefaultRedisConfig())
		if err != nil {
			// Redis only backs the cache; run on the in-process tier instead.
			logger.WithError(err).Warn("Redis unavailable, using in-memory cache only")
		} else {
			deps.Redis = client
			cleanups = append(cleanups, func() { client.Close() })
		}
	}

	deps.Cache = newCache(cfg, deps.Redis)
	deps.Gateway = newGateway(cfg)

	deps.Analyzer = ai.NewAnalyzer(ai.AnalyzerConfig{
		Gateway:  deps.Gateway,
		Cache:    deps.Cache,
		CacheTTL: cfg.AnalysisCacheTTL(),
	})
	deps.Generator = ai.NewGenerator(ai.GeneratorConfig{
		Gateway:  deps.Gateway,
		Cache:    deps.Cache,
		CacheTTL: cfg.GenerationCacheTTL(),
	})
	deps.Service = ai.NewService(deps.Analyzer, deps.Generator)

	return deps, cleanup, nil
}

// newCache returns nil when caching is disabled, an L1-only cache without
// Redis, and a two-tier cache otherwise.
func newCache(cfg *config.Config, client *redis.Client) out.CacheStore {
	if !cfg.CacheEnabled {
		logger.Info("Response cache disabled")
		return nil
	}

	local := cache.NewMemoryCache(cfg.CacheMaxEntries)
	if client == nil {
		return local
	}
	return cache.NewTiered(local, cache.NewRedisCache(client, ""), cfg.CacheL1TTL())
}

func newGateway(cfg *config.Config) out.LLMGateway {
	clientCfg := httputil.LLMClientConfig()
	clientCfg.DialTimeout = cfg.LLMConnectTimeout()
	clientCfg.TotalTimeout = cfg.LLMTimeout()
	httpClient := httputil.NewClient(clientCfg)

	switch cfg.LLMProvider {
	case config.ProviderOpenAI:
		logger.Info("LLM provider: openai (%s)", cfg.OpenAIModel)
		return llm.NewOpenAIGateway(llm.OpenAIConfig{
			APIKey:       cfg.OpenAIAPIKey,
			Model:        cfg.OpenAIModel,
			BaseURL:      cfg.OpenAIBaseURL,
			MaxAttempts:  cfg.LLMMaxRetries,
			RetryDelay:   cfg.LLMRetryDelay(),
			RateLimitRPS: cfg.LLMRateLimitRPS,
			HTTPClient:   httpClient,
		})
	default:
		logger.Info("LLM provider: yandex (%s)", cfg.YandexModel)
		return llm.NewGateway(llm.GatewayConfig{
			APIKey:       cfg.YandexAPIKey,
			FolderID:     cfg.YandexFolderID,
			Model:        cfg.YandexModel,
			URL:          cfg.YandexAPIURL,
			MaxAttempts:  cfg.LLMMaxRetries,
			RetryDelay:   cfg.LLMRetryDelay(),
			RateLimitRPS: cfg.LLMRateLimitRPS,
			HTTPClient:   httpClient,
		})
	}
}
