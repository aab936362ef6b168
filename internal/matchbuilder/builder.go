package matchbuilder

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/park285/cheese-match/internal/adapter/matchpresenter"
	"github.com/park285/cheese-match/internal/config"
	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/msgcat"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
	"github.com/park285/cheese-match/internal/web"
)

type Deps struct {
	Service   *web.Service
	Registry  *web.Registry
	Suggester suggest.Suggester
	Analyzer  suggest.Analyzer
	Redis     *redis.Client
}

// Close stops every match and releases the redis connection.
func (d *Deps) Close() error {
	if d == nil {
		return nil
	}
	if d.Registry != nil {
		d.Registry.Close()
	}
	if d.Redis != nil {
		return d.Redis.Close()
	}
	return nil
}

// New wires the match server. Matches live until ctx is cancelled or Close runs.
func New(ctx context.Context, cfg *config.AppConfig, logger *zap.Logger) (*Deps, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cat, err := msgcat.New(cfg.MsgOverrideDir, matchpresenter.RequiredKeys()...)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	human, err := rules.ParseColor(cfg.HumanColor)
	if err != nil {
		return nil, fmt.Errorf("human color: %w", err)
	}

	client := suggest.NewClient(cfg.SuggestBaseURL,
		suggest.WithTimeout(cfg.SuggestTimeout),
		suggest.WithToken(cfg.SuggestToken),
		suggest.WithMoveEndpoint(cfg.SuggestPath, cfg.SuggestFENParam, cfg.SuggestHistoryParam),
		suggest.WithLogger(logger.Named("suggest")),
	)
	var (
		suggester suggest.Suggester = client
		analyzer  suggest.Analyzer  = client
	)
	if base := strings.TrimSpace(cfg.AnalysisBaseURL); base != "" && base != cfg.SuggestBaseURL {
		analyzer = suggest.NewClient(base,
			suggest.WithTimeout(cfg.SuggestTimeout),
			suggest.WithToken(cfg.SuggestToken),
			suggest.WithLogger(logger.Named("analysis")),
		)
	}

	// Cache (Redis optional)
	var rdb *redis.Client
	if strings.TrimSpace(cfg.RedisURL) != "" {
		opts, perr := redis.ParseURL(cfg.RedisURL)
		if perr != nil {
			return nil, fmt.Errorf("parse redis url: %w", perr)
		}
		rdb = redis.NewClient(opts)
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rdb.Ping(pctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		cache := suggest.NewCache(rdb, cfg.SuggestCacheTTL, logger.Named("cache"))
		if cfg.SuggestCacheMoves {
			suggester = cache.Suggester(suggester)
		}
		analyzer = cache.Analyzer(analyzer)
	}

	ctrlCfg := match.ControllerConfig{
		ThinkDelay:   cfg.SuggestDelay,
		Timeout:      cfg.SuggestTimeout,
		AutoRetry:    cfg.SuggestAutoRetry,
		RetryBackoff: cfg.SuggestRetryBackoff,
	}
	oracle := rules.NewOracle()
	matchLog := logger.Named("match")
	factory := func() *match.Controller {
		m := match.NewMachine(oracle, match.WithHumanColor(human), match.WithMachineLogger(matchLog))
		return match.NewController(m, suggester,
			match.WithAnalyzer(analyzer),
			match.WithConfig(ctrlCfg),
			match.WithControllerLogger(matchLog),
		)
	}

	reg := web.NewRegistry(ctx, cfg.MaxMatches, factory)
	pres := matchpresenter.NewPresenter(matchpresenter.NewFormatter(cat))
	svc := web.NewService(reg, pres,
		web.WithLogger(logger.Named("web")),
		web.WithOrigins(cfg.StreamOrigins),
	)

	return &Deps{Service: svc, Registry: reg, Suggester: suggester, Analyzer: analyzer, Redis: rdb}, nil
}
