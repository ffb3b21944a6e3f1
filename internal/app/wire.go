package app

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/RanolP/imakaraokay/internal/crawl"
	"github.com/RanolP/imakaraokay/internal/fetch"
	"github.com/RanolP/imakaraokay/internal/investigate"
	"github.com/RanolP/imakaraokay/internal/providers/ky"
	"github.com/RanolP/imakaraokay/internal/providers/musixmatch"
	"github.com/RanolP/imakaraokay/internal/providers/tj"
	"github.com/RanolP/imakaraokay/internal/providers/vocadb"
	"github.com/RanolP/imakaraokay/internal/providers/vocaro"
	"github.com/RanolP/imakaraokay/internal/providers/youtube"
	"github.com/RanolP/imakaraokay/internal/resolve"
	"github.com/RanolP/imakaraokay/internal/search"
	"github.com/RanolP/imakaraokay/internal/websearch"
)

// NewGateway builds the shared outbound fetch path with traced transport.
func NewGateway(cfg Config, logger *slog.Logger) *fetch.Gateway {
	return fetch.NewGateway(fetch.Config{
		Client:         &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.FetchTimeout,
		RatePerHost:    cfg.FetchRatePerHost,
		BurstPerHost:   cfg.FetchBurstPerHost,
		Logger:         logger,
	})
}

// BuildEngine registers every provider against fetcher. The karaoke
// providers double as the cross-reference catalogs of the Vocaro pipeline.
func BuildEngine(cfg Config, fetcher crawl.Fetcher, logger *slog.Logger, opts ...search.Option) *search.Engine {
	tjProvider := tj.NewProvider(tj.Config{Endpoint: cfg.Endpoints.TJ, Fetcher: fetcher, Logger: logger})
	kyProvider := ky.NewProvider(ky.Config{Endpoint: cfg.Endpoints.KY, Fetcher: fetcher, Logger: logger})

	engine := search.NewEngine(logger, opts...)
	engine.AddKaraokeProvider(tjProvider)
	engine.AddKaraokeProvider(kyProvider)

	engine.AddLyricsProvider(musixmatch.NewProvider(musixmatch.Config{
		Endpoint: cfg.Endpoints.MusixMatch,
		Fetcher:  fetcher,
		Logger:   logger,
	}))
	engine.AddLyricsProvider(vocaro.NewProvider(vocaro.Config{
		Endpoint:       cfg.Endpoints.Vocaro,
		Fetcher:        fetcher,
		Fallback:       websearch.NewBing(websearch.Config{Endpoint: cfg.Endpoints.Bing, Fetcher: fetcher, Logger: logger}),
		Investigator:   investigate.NewInvestigator(investigate.Config{Fetcher: fetcher, Logger: logger}),
		CrossReference: []resolve.KaraokeSearcher{tjProvider, kyProvider},
		Logger:         logger,
	}))

	engine.AddAutocompleteProvider(youtube.NewProvider(youtube.Config{
		Endpoint: cfg.Endpoints.YouTube,
		Fetcher:  fetcher,
		Logger:   logger,
	}))
	engine.AddAutocompleteProvider(vocadb.NewVocaDB(fetcher, cfg.Endpoints.VocaDB, logger))
	engine.AddAutocompleteProvider(vocadb.NewUtaiteDB(fetcher, cfg.Endpoints.UtaiteDB, logger))
	return engine
}

// EngineOptions turns the timeout and cache settings into engine options.
// An unreachable Redis leaves the in-memory cache in place.
func EngineOptions(ctx context.Context, cfg Config, logger *slog.Logger) []search.Option {
	opts := []search.Option{search.WithTimeout(cfg.SearchTimeout)}
	if cfg.CacheDisabled || cfg.CacheTTL <= 0 {
		return opts
	}
	opts = append(opts, search.WithCache(cfg.CacheTTL))

	redisURL := strings.TrimSpace(cfg.RedisURL)
	if redisURL == "" {
		return opts
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory cache only", slog.String("error", err.Error()))
		return opts
	}
	redisClient := redis.NewClient(redisOpts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory cache only", slog.String("error", err.Error()))
		_ = redisClient.Close()
		return opts
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return append(opts, search.WithRedisCache(search.NewRedisCacheBackend(redisClient)))
}
