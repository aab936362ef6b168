// Package suggest talks to the external move-suggestion and analysis services.
package suggest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Suggestion is a usable reply from the suggestion service.
type Suggestion struct {
	Move      string
	Reasoning string
}

// Suggester asks for a move. ok is false for every failure mode.
type Suggester interface {
	RequestMove(ctx context.Context, fen, history string) (Suggestion, bool)
}

// Move endpoint defaults: GET /api/best_move?board_state=<fen>&pgn=<movetext>.
const (
	DefaultMovePath     = "/api/best_move"
	DefaultFENParam     = "board_state"
	DefaultHistoryParam = "pgn"
)

// suggestResponse accepts "move" and the older "suggestedMove" field; "move" wins.
type suggestResponse struct {
	Move          string `json:"move"`
	SuggestedMove string `json:"suggestedMove"`
	Reasoning     string `json:"reasoning"`
}

func (r suggestResponse) move() string {
	if mv := strings.TrimSpace(r.Move); mv != "" {
		return mv
	}
	return strings.TrimSpace(r.SuggestedMove)
}

var errEmptyMove = errors.New("move missing")

type Client struct {
	baseURL      string
	token        string
	movePath     string
	fenParam     string
	historyParam string
	http         *fasthttp.Client
	timeout      time.Duration
	logger       *zap.Logger
}

type Option func(*Client)

// WithTimeout sets the ceiling on a single call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithToken attaches "Authorization: Bearer <token>" when token is not blank.
func WithToken(token string) Option {
	return func(c *Client) { c.token = strings.TrimSpace(token) }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMoveEndpoint overrides the move path and its query parameter names. Blank values keep the defaults.
func WithMoveEndpoint(path, fenParam, historyParam string) Option {
	return func(c *Client) {
		if p := strings.TrimSpace(path); p != "" {
			if !strings.HasPrefix(p, "/") {
				p = "/" + p
			}
			c.movePath = p
		}
		if f := strings.TrimSpace(fenParam); f != "" {
			c.fenParam = f
		}
		if h := strings.TrimSpace(historyParam); h != "" {
			c.historyParam = h
		}
	}
}

func WithMaxConnsPerHost(n int) Option {
	return func(c *Client) { c.http.MaxConnsPerHost = n }
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		movePath:     DefaultMovePath,
		fenParam:     DefaultFENParam,
		historyParam: DefaultHistoryParam,
		http:         &fasthttp.Client{ReadTimeout: 30 * time.Second, WriteTimeout: 10 * time.Second, MaxConnsPerHost: 16},
		timeout:      15 * time.Second,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RequestMove issues exactly one GET on the move endpoint. Transport errors, timeouts,
// non-2xx statuses, bad JSON and an empty move all yield ok == false.
func (c *Client) RequestMove(ctx context.Context, fen, history string) (Suggestion, bool) {
	var out suggestResponse
	err := c.get(ctx, c.movePath, map[string]string{c.fenParam: fen, c.historyParam: history}, &out)
	if err == nil && out.move() == "" {
		err = errEmptyMove
	}
	if err != nil {
		c.logger.Warn("suggest_request_failed",
			zap.Error(err),
			zap.String("fen", fen),
			zap.Int("history_len", len(history)),
		)
		return Suggestion{}, false
	}
	return Suggestion{Move: out.move(), Reasoning: strings.TrimSpace(out.Reasoning)}, true
}

func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	args := fasthttp.AcquireArgs()
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer func() {
		fasthttp.ReleaseArgs(args)
		fasthttp.ReleaseRequest(req)
		fasthttp.ReleaseResponse(resp)
	}()

	for k, v := range query {
		args.Set(k, v)
	}
	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(c.baseURL + path + "?" + string(args.QueryString()))
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if err := c.http.DoDeadline(req, resp, c.computeDeadline(ctx)); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status < 200 || status >= 300 {
		return fmt.Errorf("suggest api error: status=%d body=%s", status, truncate(string(resp.Body()), 256))
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) computeDeadline(ctx context.Context) time.Time {
	clientDL := time.Now().Add(c.timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(clientDL) {
		return dl
	}
	return clientDL
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
