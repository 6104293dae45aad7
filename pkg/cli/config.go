package cli

import (
	"context"
	"os"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"github.com/foodifind/foodifind/pkg/adapter"
	"github.com/foodifind/foodifind/pkg/agent"
	"github.com/foodifind/foodifind/pkg/cache"
	"github.com/foodifind/foodifind/pkg/server"
	"github.com/foodifind/foodifind/pkg/usecase/discovery"
	"github.com/foodifind/foodifind/pkg/utils/logging"
)

// config holds configuration values
type config struct {
	logLevel   string
	configPath string

	// Adapters
	geminiAPIKey string
	geminiModel  string

	// Cache
	redisAddr string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("FOODIFIND_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("FOODIFIND_CONFIG"),
			Destination: &cfg.configPath,
		},
	}
}

// llmFlags returns flags for the Gemini backend. An empty API key is a
// supported configuration that routes every query to the mock generator.
func llmFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "gemini-api-key",
			Usage:       "Gemini API key (empty selects mock mode)",
			Sources:     cli.EnvVars("GEMINI_API_KEY"),
			Destination: &cfg.geminiAPIKey,
		},
		&cli.StringFlag{
			Name:        "gemini-model",
			Usage:       "Gemini model for discovery",
			Value:       "gemini-2.5-flash",
			Sources:     cli.EnvVars("GEMINI_MODEL"),
			Destination: &cfg.geminiModel,
		},
	}
}

// cacheFlags returns flags for the discovery cache backend
func cacheFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "redis-addr",
			Usage:       "Redis address for a shared discovery cache (empty selects the in-memory cache)",
			Sources:     cli.EnvVars("REDIS_ADDR"),
			Destination: &cfg.redisAddr,
		},
	}
}

func (cfg *config) setupLogger() {
	logging.SetDefault(logging.New(cfg.logLevel, os.Stderr))
}

// newGemini creates the Gemini adapter, or nil when no API key is
// configured
func (cfg *config) newGemini(ctx context.Context) (adapter.Gemini, error) {
	if cfg.geminiAPIKey == "" {
		return nil, nil
	}

	gemini, err := adapter.NewGemini(ctx, cfg.geminiAPIKey, adapter.WithGenerativeModel(cfg.geminiModel))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create gemini adapter")
	}
	return gemini, nil
}

// newCache creates the discovery cache backend
func (cfg *config) newCache(ctx context.Context, fileCfg *fileConfig) (cache.Cache, error) {
	if cfg.redisAddr == "" {
		return cache.NewMemory(fileCfg.Cache.MaxEntries), nil
	}

	var opts []cache.RedisOption
	if ttl := fileCfg.Cache.redisTTL(); ttl > 0 {
		opts = append(opts, cache.WithTTL(ttl))
	}

	redisCache := cache.NewRedis(cfg.redisAddr, opts...)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := redisCache.Ping(pingCtx); err != nil {
		return nil, goerr.Wrap(err, "failed to connect to redis", goerr.V("addr", cfg.redisAddr))
	}
	return redisCache, nil
}

// newPipeline wires the discovery service and agent pipeline
func (cfg *config) newPipeline(ctx context.Context, fileCfg *fileConfig) (*agent.Pipeline, error) {
	gemini, err := cfg.newGemini(ctx)
	if err != nil {
		return nil, err
	}

	c, err := cfg.newCache(ctx, fileCfg)
	if err != nil {
		return nil, err
	}

	svc := discovery.New(gemini, c)
	return agent.NewPipeline(svc, agent.NewLog(), fileCfg.Delays.toDelays()), nil
}

// fileConfig is the optional YAML config file
type fileConfig struct {
	Tiles  server.TileSources `yaml:"tiles"`
	Delays delaysConfig       `yaml:"delays"`
	Cache  cacheConfig        `yaml:"cache"`
}

// delaysConfig holds stage pause durations in milliseconds; zero keeps the
// default
type delaysConfig struct {
	DiscoveryMS  int `yaml:"discovery_ms"`
	RankingMS    int `yaml:"ranking_ms"`
	ValidationMS int `yaml:"validation_ms"`
	RefreshMS    int `yaml:"refresh_ms"`
}

func (d delaysConfig) toDelays() agent.Delays {
	delays := agent.DefaultDelays()
	if d.DiscoveryMS > 0 {
		delays.Discovery = time.Duration(d.DiscoveryMS) * time.Millisecond
	}
	if d.RankingMS > 0 {
		delays.Ranking = time.Duration(d.RankingMS) * time.Millisecond
	}
	if d.ValidationMS > 0 {
		delays.Validation = time.Duration(d.ValidationMS) * time.Millisecond
	}
	if d.RefreshMS > 0 {
		delays.Refresh = time.Duration(d.RefreshMS) * time.Millisecond
	}
	return delays
}

type cacheConfig struct {
	MaxEntries int `yaml:"max_entries"`
	RedisTTLS  int `yaml:"redis_ttl_seconds"`
}

func (c cacheConfig) redisTTL() time.Duration {
	return time.Duration(c.RedisTTLS) * time.Second
}

// loadConfigFile reads the YAML config, returning defaults when no path is
// given
func loadConfigFile(path string) (*fileConfig, error) {
	cfg := &fileConfig{
		Tiles: server.DefaultTileSources(),
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read config file", goerr.V("path", path))
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, goerr.Wrap(err, "failed to parse config file", goerr.V("path", path))
	}

	if cfg.Tiles.Default == "" {
		cfg.Tiles.Default = server.DefaultTileSources().Default
	}
	if cfg.Tiles.Satellite == "" {
		cfg.Tiles.Satellite = server.DefaultTileSources().Satellite
	}

	return cfg, nil
}
