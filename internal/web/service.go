package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/park285/cheese-match/internal/adapter/matchpresenter"
	"github.com/park285/cheese-match/internal/boardimg"
	"github.com/park285/cheese-match/internal/match"
	"github.com/park285/cheese-match/internal/rules"
	"github.com/park285/cheese-match/pkg/matchdto"
)

type Service struct {
	reg     *Registry
	pres    *matchpresenter.Presenter
	logger  *zap.Logger
	origins []string
}

type Option func(*Service)

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithOrigins sets the host patterns allowed to open the websocket stream.
func WithOrigins(patterns []string) Option {
	return func(s *Service) { s.origins = patterns }
}

func NewService(reg *Registry, pres *matchpresenter.Presenter, opts ...Option) *Service {
	s := &Service{reg: reg, pres: pres, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router wires every endpoint.
func (s *Service) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", s.HealthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/matches").Subrouter()
	api.HandleFunc("", s.CreateMatchHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}", s.GetMatchHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.DeleteMatchHandler).Methods(http.MethodDelete)
	api.HandleFunc("/{id}/squares/{square}", s.ActivateHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/moves", s.DropHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/retry", s.RetryHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/reset", s.ResetHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/analysis", s.AnalysisHandler).Methods(http.MethodPost)
	api.HandleFunc("/{id}/stream", s.StreamHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}/board.png", s.BoardImageHandler).Methods(http.MethodGet)
	return r
}

type errorResponse struct {
	Error matchdto.DomainError `json:"error"`
	View  *matchdto.View       `json:"view,omitempty"`
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, matchdto.Health{Status: "ok", Matches: s.reg.Len()})
}

func (s *Service) CreateMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, err := s.reg.Create()
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	v, err := ctrl.View(r.Context())
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	s.logger.Info("match_created", zap.String("match_id", id))
	writeJSON(w, http.StatusCreated, s.pres.View(id, v, nil))
}

func (s *Service) GetMatchHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	v, err := ctrl.View(r.Context())
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, s.pres.View(id, v, nil))
}

func (s *Service) DeleteMatchHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := s.reg.Remove(id); err != nil {
		s.fail(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) ActivateHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sq := rules.Square(strings.ToLower(mux.Vars(r)["square"]))
	v, n, err := ctrl.Activate(r.Context(), sq)
	s.reply(w, r, id, ctrl, v, n, err)
}

func (s *Service) DropHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req matchdto.DropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: s.pres.Coded(matchdto.CodeBadRequest, false)})
		return
	}
	spec := rules.MoveSpec{From: rules.Square(req.From), To: rules.Square(req.To), Promotion: req.Promotion}
	v, n, err := ctrl.Drop(r.Context(), spec)
	s.reply(w, r, id, ctrl, v, n, err)
}

func (s *Service) RetryHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	v, err := ctrl.Retry(r.Context())
	s.reply(w, r, id, ctrl, v, match.Notice{Kind: match.NoticeThinking}, err)
}

func (s *Service) ResetHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	v, err := ctrl.Reset(r.Context())
	s.reply(w, r, id, ctrl, v, match.Notice{Kind: match.NoticeReset}, err)
}

func (s *Service) AnalysisHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if _, err := ctrl.Analyze(r.Context()); err != nil {
		s.logger.Warn("match_analysis_failed", zap.String("match_id", id), zap.Error(err))
		s.fail(w, err, nil)
		return
	}
	v, err := ctrl.View(r.Context())
	s.reply(w, r, id, ctrl, v, match.Notice{Kind: match.NoticeAnalysis}, err)
}

// BoardImageHandler renders the current board from the human's side.
func (s *Service) BoardImageHandler(w http.ResponseWriter, r *http.Request) {
	id, ctrl, ok := s.lookup(w, r)
	if !ok {
		return
	}
	v, err := ctrl.View(r.Context())
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	opts := boardimg.Options{
		Selected:     v.Selected,
		Destinations: v.Destinations,
		Caption:      s.pres.View(id, v, nil).Status,
		Flip:         v.HumanColor == rules.Black,
	}
	if last, ok := v.LastMove(); ok {
		opts.LastFrom, opts.LastTo = last.From, last.To
	}
	raw, err := boardimg.Render(r.Context(), v.Board, opts)
	if err != nil {
		s.fail(w, err, nil)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (s *Service) lookup(w http.ResponseWriter, r *http.Request) (string, *match.Controller, bool) {
	id := mux.Vars(r)["id"]
	ctrl, err := s.reg.Get(id)
	if err != nil {
		s.fail(w, err, nil)
		return "", nil, false
	}
	return id, ctrl, true
}

// reply writes the view, or the error together with the current view.
func (s *Service) reply(w http.ResponseWriter, r *http.Request, id string, ctrl *match.Controller, v match.View, n match.Notice, err error) {
	if err != nil {
		var view *matchdto.View
		if cur, verr := ctrl.View(r.Context()); verr == nil {
			dto := s.pres.View(id, cur, &n)
			view = &dto
		}
		s.fail(w, err, view)
		return
	}
	writeJSON(w, http.StatusOK, s.pres.View(id, v, &n))
}

func (s *Service) fail(w http.ResponseWriter, err error, view *matchdto.View) {
	status, derr := s.classify(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("match_request_failed", zap.Error(err))
	}
	writeJSON(w, status, errorResponse{Error: derr, View: view})
}

func (s *Service) classify(err error) (int, matchdto.DomainError) {
	switch {
	case errors.Is(err, ErrMatchNotFound):
		return http.StatusNotFound, s.pres.Coded(matchdto.CodeMatchNotFound, false)
	case errors.Is(err, ErrTooManyMatches):
		return http.StatusTooManyRequests, s.pres.Coded(matchdto.CodeTooManyMatches, true)
	}
	d := s.pres.Error(err)
	switch d.Code {
	case matchdto.CodeBusy, matchdto.CodeGameOver, matchdto.CodeNotYourTurn:
		return http.StatusConflict, d
	case matchdto.CodeIllegalMove, matchdto.CodeInvalidSquare, matchdto.CodeNoSelection:
		return http.StatusBadRequest, d
	case matchdto.CodeAnalysisUnavailable:
		return http.StatusBadGateway, d
	}
	if errors.Is(err, match.ErrStopped) {
		return http.StatusServiceUnavailable, d
	}
	return http.StatusInternalServerError, d
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
