package suggest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

var ErrAnalysisUnavailable = errors.New("analysis unavailable")

// Analysis is a pair of free-text summaries, one per side.
type Analysis struct {
	White string `json:"whiteSummary"`
	Black string `json:"blackSummary"`
}

type Analyzer interface {
	Analyze(ctx context.Context, fen string) (Analysis, error)
}

// Analyze issues one GET /analyze. Every failure wraps ErrAnalysisUnavailable.
func (c *Client) Analyze(ctx context.Context, fen string) (Analysis, error) {
	var out Analysis
	if err := c.get(ctx, "/analyze", map[string]string{"fen": fen}, &out); err != nil {
		c.logger.Warn("analysis_request_failed", zap.Error(err), zap.String("fen", fen))
		return Analysis{}, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}
	if strings.TrimSpace(out.White) == "" && strings.TrimSpace(out.Black) == "" {
		return Analysis{}, fmt.Errorf("%w: empty summaries", ErrAnalysisUnavailable)
	}
	return out, nil
}
