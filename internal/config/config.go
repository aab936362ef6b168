package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type AppConfig struct {
	HTTPAddr string

	SuggestBaseURL      string
	SuggestToken        string
	SuggestTimeout      time.Duration
	SuggestDelay        time.Duration
	SuggestAutoRetry    int
	SuggestRetryBackoff time.Duration
	// Move endpoint shape; blank keeps the client defaults (/api/best_move, board_state, pgn).
	SuggestPath         string
	SuggestFENParam     string
	SuggestHistoryParam string

	AnalysisBaseURL string

	RedisURL        string
	SuggestCacheTTL time.Duration
	// SuggestCacheMoves also caches move replies; analysis is always cached when Redis is set.
	SuggestCacheMoves bool

	HumanColor     string
	MaxMatches     int
	MsgOverrideDir string
	// StreamOrigins are host patterns allowed to open the websocket stream.
	StreamOrigins []string
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		HTTPAddr:            ":8080",
		SuggestTimeout:      15 * time.Second,
		SuggestDelay:        500 * time.Millisecond,
		SuggestRetryBackoff: time.Second,
		SuggestCacheTTL:     10 * time.Minute,
		HumanColor:          "white",
		MaxMatches:          64,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}
	cfg.SuggestBaseURL = strings.TrimSpace(os.Getenv("SUGGEST_BASE_URL"))
	cfg.SuggestToken = strings.TrimSpace(os.Getenv("SUGGEST_TOKEN"))
	cfg.SuggestPath = strings.TrimSpace(os.Getenv("SUGGEST_PATH"))
	cfg.SuggestFENParam = strings.TrimSpace(os.Getenv("SUGGEST_FEN_PARAM"))
	cfg.SuggestHistoryParam = strings.TrimSpace(os.Getenv("SUGGEST_HISTORY_PARAM"))
	cfg.AnalysisBaseURL = strings.TrimSpace(os.Getenv("ANALYSIS_BASE_URL"))
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.MsgOverrideDir = strings.TrimSpace(os.Getenv("MSG_OVERRIDE_DIR"))
	cfg.StreamOrigins = splitList(os.Getenv("STREAM_ORIGINS"))

	var err error
	if cfg.SuggestTimeout, err = durationEnv("SUGGEST_TIMEOUT", cfg.SuggestTimeout, false); err != nil {
		return nil, err
	}
	if cfg.SuggestDelay, err = durationEnv("SUGGEST_DELAY", cfg.SuggestDelay, true); err != nil {
		return nil, err
	}
	if cfg.SuggestRetryBackoff, err = durationEnv("SUGGEST_RETRY_BACKOFF", cfg.SuggestRetryBackoff, false); err != nil {
		return nil, err
	}
	if cfg.SuggestCacheTTL, err = durationEnv("SUGGEST_CACHE_TTL", cfg.SuggestCacheTTL, false); err != nil {
		return nil, err
	}
	if cfg.SuggestAutoRetry, err = intEnv("SUGGEST_AUTO_RETRY", cfg.SuggestAutoRetry, 0); err != nil {
		return nil, err
	}
	if cfg.MaxMatches, err = intEnv("MAX_MATCHES", cfg.MaxMatches, 1); err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(os.Getenv("SUGGEST_CACHE_MOVES")); v != "" {
		b, perr := strconv.ParseBool(v)
		if perr != nil {
			return nil, fmt.Errorf("SUGGEST_CACHE_MOVES: invalid boolean %q", v)
		}
		cfg.SuggestCacheMoves = b
	}
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("HUMAN_COLOR"))); v != "" {
		if v != "white" && v != "black" {
			return nil, fmt.Errorf("HUMAN_COLOR must be white or black, got %q", v)
		}
		cfg.HumanColor = v
	}

	if cfg.SuggestBaseURL == "" {
		return nil, errors.New("SUGGEST_BASE_URL is required")
	}
	if cfg.AnalysisBaseURL == "" {
		cfg.AnalysisBaseURL = cfg.SuggestBaseURL
	}
	return cfg, nil
}

// durationEnv accepts Go durations ("750ms") or bare seconds ("2").
func durationEnv(key string, def time.Duration, allowZero bool) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		n, nerr := strconv.Atoi(v)
		if nerr != nil {
			return 0, fmt.Errorf("%s: invalid duration %q", key, v)
		}
		d = time.Duration(n) * time.Second
	}
	if d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("%s: must be positive, got %q", key, v)
	}
	return d, nil
}

func intEnv(key string, def, floor int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", key, v)
	}
	if n < floor {
		return 0, fmt.Errorf("%s: must be at least %d, got %d", key, floor, n)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
