package match

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
)

type reply struct {
	move string
	ok   bool
}

// scriptedSuggester answers from a queue; an empty queue is a failure.
// When hold is set every call blocks until it is closed.
type scriptedSuggester struct {
	mu      sync.Mutex
	replies []reply
	calls   []string
	hold    chan struct{}
	entered chan struct{}
}

func (s *scriptedSuggester) RequestMove(ctx context.Context, fen, history string) (suggest.Suggestion, bool) {
	s.mu.Lock()
	s.calls = append(s.calls, history)
	var r reply
	if len(s.replies) > 0 {
		r, s.replies = s.replies[0], s.replies[1:]
	}
	hold, entered := s.hold, s.entered
	s.mu.Unlock()
	if entered != nil {
		entered <- struct{}{}
	}
	if hold != nil {
		<-hold
	}
	return suggest.Suggestion{Move: r.move}, r.ok
}

func (s *scriptedSuggester) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type fakeAnalyzer struct{ err error }

func (a fakeAnalyzer) Analyze(ctx context.Context, fen string) (suggest.Analysis, error) {
	if a.err != nil {
		return suggest.Analysis{}, a.err
	}
	return suggest.Analysis{White: "white is fine", Black: "black is fine"}, nil
}

func startController(t *testing.T, s suggest.Suggester, opts ...ControllerOption) (*Controller, <-chan Update) {
	t.Helper()
	c := NewController(NewMachine(rules.NewOracle()), s, opts...)
	updates, unsubscribe := c.Subscribe(64)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-c.Done()
		unsubscribe()
	})
	return c, updates
}

func waitNotice(t *testing.T, updates <-chan Update, kind NoticeKind) Update {
	t.Helper()
	timeout := time.After(3 * time.Second)
	for {
		select {
		case u := <-updates:
			if u.Notice.Kind == kind {
				return u
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", kind)
		}
	}
}

func TestControllerPlaysAutomatedReply(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}}
	c, updates := startController(t, s)
	ctx := context.Background()

	_, n, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	assert.Equal(t, NoticeHumanMoved, n.Kind)
	waitNotice(t, updates, NoticeThinking)

	u := waitNotice(t, updates, NoticeAutomatedMoved)
	assert.Equal(t, "e5", u.Notice.SAN)
	assert.Len(t, u.View.Moves, 2)
	assert.Equal(t, TurnHuman, u.View.Turn)

	v, err := c.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"e4", "e5"}, v.SANs())
	assert.Equal(t, []string{"1. e4"}, s.calls)
}

func TestControllerRejectsInputWhileThinking(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}, hold: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, updates := startController(t, s)
	ctx := context.Background()

	_, _, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	<-s.entered

	_, _, err = c.Activate(ctx, "d2")
	assert.True(t, errors.Is(err, ErrBusy))
	v, err := c.View(ctx)
	require.NoError(t, err)
	assert.True(t, v.Busy)

	close(s.hold)
	waitNotice(t, updates, NoticeAutomatedMoved)
	assert.Equal(t, 1, s.callCount())
}

func TestControllerAbsentSuggestionThenRetry(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"", false}, {"e5", true}}}
	c, updates := startController(t, s)
	ctx := context.Background()

	_, _, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	u := waitNotice(t, updates, NoticeSuggestionUnavailable)
	assert.Len(t, u.View.Moves, 1)
	assert.Equal(t, TurnAutomated, u.View.Turn)
	assert.False(t, u.View.Terminal())

	_, _, err = c.Activate(ctx, "d2")
	assert.True(t, errors.Is(err, ErrNotYourTurn))

	_, err = c.Retry(ctx)
	require.NoError(t, err)
	u = waitNotice(t, updates, NoticeAutomatedMoved)
	assert.Len(t, u.View.Moves, 2)

	_, err = c.Retry(ctx)
	assert.True(t, errors.Is(err, ErrNotYourTurn))
}

func TestControllerAutoRetry(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"Zz9", true}, {"e5", true}}}
	c, updates := startController(t, s, WithConfig(ControllerConfig{AutoRetry: 1, RetryBackoff: 10 * time.Millisecond}))

	_, _, err := c.Drop(context.Background(), rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	rejected := waitNotice(t, updates, NoticeSuggestionRejected)
	assert.Equal(t, "Zz9", rejected.Notice.Suggested)
	u := waitNotice(t, updates, NoticeAutomatedMoved)
	assert.Len(t, u.View.Moves, 2)
	assert.Equal(t, 2, s.callCount())
}

func TestControllerResetDiscardsInFlightSuggestion(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}, hold: make(chan struct{}), entered: make(chan struct{}, 1)}
	c, updates := startController(t, s)
	ctx := context.Background()

	_, _, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	<-s.entered

	v, err := c.Reset(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Moves)
	assert.False(t, v.Pending)
	assert.Equal(t, TurnHuman, v.Turn)
	waitNotice(t, updates, NoticeReset)

	close(s.hold)
	time.Sleep(50 * time.Millisecond)
	v, err = c.View(ctx)
	require.NoError(t, err)
	assert.Empty(t, v.Moves)
	assert.Equal(t, AwaitingHumanInput, v.Phase)

	_, n, err := c.Activate(ctx, "e2")
	require.NoError(t, err)
	assert.Equal(t, NoticeSelected, n.Kind)
}

func TestControllerThinkDelayCancelledByReset(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}}
	c, _ := startController(t, s, WithConfig(ControllerConfig{ThinkDelay: 200 * time.Millisecond}))
	ctx := context.Background()

	_, _, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	_, err = c.Reset(ctx)
	require.NoError(t, err)
	time.Sleep(300 * time.Millisecond)
	assert.Zero(t, s.callCount())
}

func TestControllerAnalysis(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}}
	c, updates := startController(t, s, WithAnalyzer(fakeAnalyzer{}))
	ctx := context.Background()

	res, err := c.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, "white is fine", res.White)
	u := waitNotice(t, updates, NoticeAnalysis)
	require.NotNil(t, u.View.Analysis)

	_, _, err = c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	u = waitNotice(t, updates, NoticeAutomatedMoved)
	assert.Nil(t, u.View.Analysis, "analysis belongs to the position it was taken on")
}

type countingAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (a *countingAnalyzer) Analyze(ctx context.Context, fen string) (suggest.Analysis, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()
	return suggest.Analysis{White: "w", Black: "b"}, nil
}

func (a *countingAnalyzer) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func TestControllerAnalysisRefusedWhileThinking(t *testing.T) {
	s := &scriptedSuggester{replies: []reply{{"e5", true}}, hold: make(chan struct{}), entered: make(chan struct{}, 1)}
	an := &countingAnalyzer{}
	c, updates := startController(t, s, WithAnalyzer(an))
	ctx := context.Background()

	_, _, err := c.Drop(ctx, rules.MoveSpec{From: "e2", To: "e4"})
	require.NoError(t, err)
	<-s.entered

	_, err = c.Analyze(ctx)
	assert.True(t, errors.Is(err, ErrBusy))
	assert.Zero(t, an.count())

	close(s.hold)
	waitNotice(t, updates, NoticeAutomatedMoved)
	_, err = c.Analyze(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, an.count())
}

func TestControllerAnalysisFailureLeavesStateAlone(t *testing.T) {
	c, _ := startController(t, &scriptedSuggester{}, WithAnalyzer(fakeAnalyzer{err: suggest.ErrAnalysisUnavailable}))
	ctx := context.Background()
	before, err := c.View(ctx)
	require.NoError(t, err)
	_, err = c.Analyze(ctx)
	assert.True(t, errors.Is(err, suggest.ErrAnalysisUnavailable))
	after, err := c.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.FEN, after.FEN)
	assert.Nil(t, after.Analysis)

	noAnalyzer, _ := startController(t, &scriptedSuggester{})
	_, err = noAnalyzer.Analyze(ctx)
	assert.True(t, errors.Is(err, suggest.ErrAnalysisUnavailable))
}

func TestControllerStopped(t *testing.T) {
	c := NewController(NewMachine(rules.NewOracle()), &scriptedSuggester{})
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = c.Run(ctx) }()
	cancel()
	<-c.Done()
	_, err := c.View(context.Background())
	assert.True(t, errors.Is(err, ErrStopped))
}
