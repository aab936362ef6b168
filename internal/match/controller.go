package match

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
)

// Update is published to subscribers after every effective transition.
type Update struct {
	View   View
	Notice Notice
}

type ControllerConfig struct {
	// ThinkDelay precedes every suggestion call.
	ThinkDelay time.Duration
	// Timeout bounds one suggestion call.
	Timeout time.Duration
	// AutoRetry is how many failed automated turns are re-requested without user action.
	AutoRetry    int
	RetryBackoff time.Duration
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	if c.Timeout <= 0 {
		c.Timeout = 15 * time.Second
	}
	if c.ThinkDelay < 0 {
		c.ThinkDelay = 0
	}
	if c.AutoRetry < 0 {
		c.AutoRetry = 0
	}
	if c.RetryBackoff <= 0 {
		c.RetryBackoff = time.Second
	}
	return c
}

type analysisEntry struct {
	key    string
	result suggest.Analysis
}

// Controller runs the machine on a single goroutine. Every transition, including
// suggestion results, is executed from its event channel.
type Controller struct {
	m         *Machine
	suggester suggest.Suggester
	analyzer  suggest.Analyzer
	cfg       ControllerConfig
	logger    *zap.Logger

	events chan func()
	done   chan struct{}
	runCtx context.Context

	// loop-owned
	cancelWorker context.CancelFunc
	retriesLeft  int
	analysis     *analysisEntry

	subMu  sync.Mutex
	subs   map[int]chan Update
	nextID int
}

type ControllerOption func(*Controller)

func WithAnalyzer(a suggest.Analyzer) ControllerOption {
	return func(c *Controller) { c.analyzer = a }
}

func WithControllerLogger(l *zap.Logger) ControllerOption {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithConfig(cfg ControllerConfig) ControllerOption {
	return func(c *Controller) { c.cfg = cfg.withDefaults() }
}

func NewController(m *Machine, s suggest.Suggester, opts ...ControllerOption) *Controller {
	c := &Controller{
		m:         m,
		suggester: s,
		cfg:       ControllerConfig{}.withDefaults(),
		logger:    zap.NewNop(),
		events:    make(chan func()),
		done:      make(chan struct{}),
		subs:      make(map[int]chan Update),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.retriesLeft = c.cfg.AutoRetry
	return c
}

// Run processes events until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.runCtx = ctx
	defer close(c.done)
	c.maybeSuggest()
	for {
		select {
		case <-ctx.Done():
			if c.cancelWorker != nil {
				c.cancelWorker()
			}
			return ctx.Err()
		case fn := <-c.events:
			fn()
		}
	}
}

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Subscribe registers a buffered listener. Slow listeners miss updates rather than block the loop.
func (c *Controller) Subscribe(buf int) (<-chan Update, func()) {
	if buf <= 0 {
		buf = 8
	}
	ch := make(chan Update, buf)
	c.subMu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	c.subMu.Unlock()
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			c.subMu.Unlock()
			close(ch)
		})
	}
}

func (c *Controller) View(ctx context.Context) (View, error) {
	var v View
	err := c.do(ctx, func() { v = c.view() })
	return v, err
}

// Activate forwards a square click.
func (c *Controller) Activate(ctx context.Context, sq rules.Square) (View, Notice, error) {
	return c.input(ctx, func() (Notice, error) { return c.m.Activate(sq) })
}

// Drop forwards a drag and drop move.
func (c *Controller) Drop(ctx context.Context, spec rules.MoveSpec) (View, Notice, error) {
	return c.input(ctx, func() (Notice, error) { return c.m.Drop(spec) })
}

// Retry re-requests the automated move after a failed turn.
func (c *Controller) Retry(ctx context.Context) (View, error) {
	var (
		v     View
		opErr error
	)
	err := c.do(ctx, func() {
		switch {
		case c.m.Outcome().Terminal():
			opErr = ErrGameOver
		case c.m.Busy():
			opErr = ErrBusy
		case c.m.Turn() != TurnAutomated:
			opErr = ErrNotYourTurn
		default:
			c.retriesLeft = c.cfg.AutoRetry
			c.maybeSuggest()
		}
		v = c.view()
	})
	if err != nil {
		return View{}, err
	}
	return v, opErr
}

// Reset starts a new game and invalidates any request in flight.
func (c *Controller) Reset(ctx context.Context) (View, error) {
	var v View
	err := c.do(ctx, func() {
		c.stopWorker()
		n := c.m.Reset()
		c.analysis = nil
		c.retriesLeft = c.cfg.AutoRetry
		c.logger.Info("match_reset", zap.String("generation", c.m.Generation().String()))
		c.publish(n)
		c.maybeSuggest()
		v = c.view()
	})
	return v, err
}

// Analyze asks the analysis service about the current position. It never changes game state
// and is refused while a suggestion is pending.
func (c *Controller) Analyze(ctx context.Context) (suggest.Analysis, error) {
	if c.analyzer == nil {
		return suggest.Analysis{}, suggest.ErrAnalysisUnavailable
	}
	var (
		pos      rules.Position
		finished bool
		busy     bool
	)
	if err := c.do(ctx, func() {
		pos = c.m.Position()
		finished = c.m.Outcome().Terminal()
		busy = c.m.Busy()
	}); err != nil {
		return suggest.Analysis{}, err
	}
	if finished {
		return suggest.Analysis{}, ErrGameOver
	}
	if busy {
		return suggest.Analysis{}, ErrBusy
	}
	res, err := c.analyzer.Analyze(ctx, pos.FEN())
	if err != nil {
		return suggest.Analysis{}, err
	}
	_ = c.do(ctx, func() {
		if c.m.Position().Key() != pos.Key() {
			return
		}
		c.analysis = &analysisEntry{key: pos.Key(), result: res}
		c.publish(Notice{Kind: NoticeAnalysis})
	})
	return res, nil
}

func (c *Controller) input(ctx context.Context, fn func() (Notice, error)) (View, Notice, error) {
	var (
		v     View
		n     Notice
		opErr error
	)
	err := c.do(ctx, func() {
		before := c.m.Position().Key()
		n, opErr = fn()
		if opErr == nil || n.Kind != NoticeNone {
			c.publish(n)
		}
		if c.m.Position().Key() != before {
			c.analysis = nil
			c.maybeSuggest()
		}
		v = c.view()
	})
	if err != nil {
		return View{}, Notice{}, err
	}
	return v, n, opErr
}

// do runs fn on the loop goroutine and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	reply := make(chan struct{})
	select {
	case c.events <- func() { fn(); close(reply) }:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrStopped
	}
	select {
	case <-reply:
		return nil
	case <-c.done:
		select {
		case <-reply:
			return nil
		default:
			return ErrStopped
		}
	}
}

// post queues fn without waiting. It is dropped once the loop has stopped.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

// maybeSuggest starts the worker when the machine accepts a new request. Loop only.
func (c *Controller) maybeSuggest() {
	req, ok := c.m.BeginSuggestion()
	if !ok {
		return
	}
	ctx, cancel := context.WithCancel(c.runCtx)
	c.cancelWorker = cancel
	c.publish(Notice{Kind: NoticeThinking})
	c.logger.Debug("match_suggestion_requested",
		zap.String("generation", req.Tag.Generation.String()),
		zap.Int("ply", req.Tag.Ply),
	)
	go c.work(ctx, req)
}

func (c *Controller) work(ctx context.Context, req Request) {
	if c.cfg.ThinkDelay > 0 {
		t := time.NewTimer(c.cfg.ThinkDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
	callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	sug, ok := c.suggester.RequestMove(callCtx, req.FEN, req.History)
	cancel()
	if ctx.Err() != nil {
		return
	}
	c.post(func() { c.resolve(req, sug, ok) })
}

func (c *Controller) resolve(req Request, sug suggest.Suggestion, ok bool) {
	n := c.m.ResolveSuggestion(req.Tag, sug, ok)
	if n.Kind == NoticeStale {
		c.logger.Debug("match_suggestion_stale", zap.Int("ply", req.Tag.Ply))
		return
	}
	c.stopWorker()
	if n.Kind == NoticeAutomatedMoved {
		c.analysis = nil
		c.retriesLeft = c.cfg.AutoRetry
	}
	c.publish(n)
	if n.Kind == NoticeSuggestionRejected {
		if inv, ok := c.suggester.(suggest.Invalidator); ok {
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				inv.Invalidate(ctx, req.FEN, req.History)
			}()
		}
	}
	if n.Recoverable() && c.retriesLeft > 0 {
		c.retriesLeft--
		gen := req.Tag.Generation
		time.AfterFunc(c.cfg.RetryBackoff, func() {
			c.post(func() {
				if c.m.Generation() == gen {
					c.maybeSuggest()
				}
			})
		})
	}
}

func (c *Controller) stopWorker() {
	if c.cancelWorker != nil {
		c.cancelWorker()
		c.cancelWorker = nil
	}
}

func (c *Controller) view() View {
	v := c.m.View()
	if c.analysis != nil && c.analysis.key == c.m.Position().Key() {
		res := c.analysis.result
		v.Analysis = &res
	}
	return v
}

func (c *Controller) publish(n Notice) {
	u := Update{View: c.view(), Notice: n}
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- u:
		default:
		}
	}
}
