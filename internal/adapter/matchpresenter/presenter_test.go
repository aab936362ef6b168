package matchpresenter

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/msgcat"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/internal/suggest"
	"github.com/park285/cheese-match/pkg/matchdto"
)

func newPresenter(t *testing.T) *Presenter {
	t.Helper()
	cat, err := msgcat.New("", RequiredKeys()...)
	require.NoError(t, err)
	return NewPresenter(NewFormatter(cat))
}

func TestOverrideCannotDropFormatterKeys(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "en.yaml"), []byte("error:\n  busy: \"\"\n"), 0o644))
	_, err := msgcat.New(dir, RequiredKeys()...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error.busy")
}

func play(t *testing.T, m *match.Machine, human [][2]rules.Square, replies []string) {
	t.Helper()
	for i, mv := range human {
		_, err := m.Drop(rules.MoveSpec{From: mv[0], To: mv[1]})
		require.NoError(t, err)
		if i < len(replies) {
			req, ok := m.BeginSuggestion()
			require.True(t, ok)
			n := m.ResolveSuggestion(req.Tag, suggest.Suggestion{Move: replies[i]}, true)
			require.Equal(t, match.NoticeAutomatedMoved, n.Kind)
		}
	}
}

func TestInitialView(t *testing.T) {
	p := newPresenter(t)
	m := match.NewMachine(rules.NewOracle())
	dto := p.View("m1", m.View(), nil)

	assert.Equal(t, "m1", dto.MatchID)
	assert.Equal(t, "White's turn", dto.Status)
	require.Len(t, dto.Board, 8)
	assert.Equal(t, []string{"r", "n", "b", "q", "k", "b", "n", "r"}, dto.Board[0])
	assert.Equal(t, "P", dto.Board[6][4])
	assert.Equal(t, "", dto.Board[4][4])
	assert.Empty(t, dto.Moves)
	assert.Equal(t, "", dto.Notation)
	assert.Nil(t, dto.LastMove)
	assert.Nil(t, dto.Notice)
	assert.False(t, dto.Retryable)
	assert.Equal(t, "ongoing", dto.Outcome.Kind)
}

func TestViewAfterMoves(t *testing.T) {
	p := newPresenter(t)
	m := match.NewMachine(rules.NewOracle())
	play(t, m, [][2]rules.Square{{"e2", "e4"}, {"g1", "f3"}}, []string{"e5"})

	n := match.Notice{Kind: match.NoticeHumanMoved, SAN: "Nf3"}
	dto := p.View("m1", m.View(), &n)
	assert.Equal(t, "1. e4 e5 2. Nf3", dto.Notation)
	assert.Equal(t, []string{"1. e4 e5", "2. Nf3"}, dto.Pairs)
	require.NotNil(t, dto.LastMove)
	assert.Equal(t, "g1", dto.LastMove.From)
	assert.Equal(t, "human", dto.LastMove.By)
	assert.True(t, dto.Busy)
	assert.Equal(t, "AI is thinking...", dto.Status)
	require.NotNil(t, dto.Notice)
	assert.Equal(t, "You played Nf3.", dto.Notice.Text)
}

func TestStatusTexts(t *testing.T) {
	p := newPresenter(t)

	mate := match.NewMachine(rules.NewOracle())
	play(t, mate, [][2]rules.Square{{"f2", "f3"}, {"g2", "g4"}}, []string{"e5", "Qh4#"})
	assert.Equal(t, "Checkmate! Black wins.", p.View("x", mate.View(), nil).Status)

	check := match.NewMachine(rules.NewOracle())
	play(t, check, [][2]rules.Square{{"d2", "d4"}, {"e2", "e4"}}, []string{"e6", "Bb4+"})
	assert.Equal(t, "White's turn Check!", p.View("x", check.View(), nil).Status)

	failed := match.NewMachine(rules.NewOracle())
	play(t, failed, [][2]rules.Square{{"e2", "e4"}}, nil)
	req, ok := failed.BeginSuggestion()
	require.True(t, ok)
	n := failed.ResolveSuggestion(req.Tag, suggest.Suggestion{}, false)
	dto := p.View("x", failed.View(), &n)
	assert.True(t, dto.Retryable)
	assert.Equal(t, "AI could not move. Retry or reset.", dto.Status)
	require.NotNil(t, dto.Notice)
	assert.True(t, dto.Notice.Recoverable)
}

func TestAutomatedNoticeCarriesReasoning(t *testing.T) {
	p := newPresenter(t)
	text := p.f.Notice(match.Notice{Kind: match.NoticeAutomatedMoved, SAN: "e5", Reasoning: "Mirror the centre."})
	assert.Equal(t, "AI moved e5. Mirror the centre.", text)
	assert.Equal(t, "", p.f.Notice(match.Notice{Kind: match.NoticeSelected}))
}

func TestErrorMapping(t *testing.T) {
	p := newPresenter(t)
	cases := map[error]string{
		match.ErrBusy:                             matchdto.CodeBusy,
		fmt.Errorf("wrap: %w", match.ErrGameOver): matchdto.CodeGameOver,
		match.ErrNotYourTurn:                      matchdto.CodeNotYourTurn,
		rules.ErrIllegalMove:                      matchdto.CodeIllegalMove,
		rules.ErrInvalidSquare:                    matchdto.CodeInvalidSquare,
		suggest.ErrAnalysisUnavailable:            matchdto.CodeAnalysisUnavailable,
		fmt.Errorf("boom"):                        matchdto.CodeInternal,
	}
	for err, code := range cases {
		got := p.Error(err)
		assert.Equal(t, code, got.Code, err.Error())
		assert.NotEmpty(t, got.Message)
	}
}
