package web

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/park285/cheese-match/internal/match"
)

var (
	ErrMatchNotFound  = errors.New("match not found")
	ErrTooManyMatches = errors.New("too many matches")
)

// ControllerFactory builds an unstarted controller for a new match.
type ControllerFactory func() *match.Controller

type entry struct {
	ctrl   *match.Controller
	cancel context.CancelFunc
}

// Registry owns the running matches. Each match runs its own controller loop.
type Registry struct {
	mu      sync.RWMutex
	root    context.Context
	max     int
	factory ControllerFactory
	matches map[string]*entry
}

func NewRegistry(root context.Context, max int, factory ControllerFactory) *Registry {
	if max <= 0 {
		max = 64
	}
	return &Registry{root: root, max: max, factory: factory, matches: make(map[string]*entry)}
}

func (r *Registry) Create() (string, *match.Controller, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.matches) >= r.max {
		return "", nil, ErrTooManyMatches
	}
	id := uuid.NewString()
	ctrl := r.factory()
	ctx, cancel := context.WithCancel(r.root)
	go func() { _ = ctrl.Run(ctx) }()
	r.matches[id] = &entry{ctrl: ctrl, cancel: cancel}
	return id, ctrl, nil
}

func (r *Registry) Get(id string) (*match.Controller, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	if !ok {
		return nil, ErrMatchNotFound
	}
	return e.ctrl, nil
}

// Remove stops the match loop and forgets it.
func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	e, ok := r.matches[id]
	delete(r.matches, id)
	r.mu.Unlock()
	if !ok {
		return ErrMatchNotFound
	}
	e.cancel()
	<-e.ctrl.Done()
	return nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.matches)
}

// Close stops every match.
func (r *Registry) Close() {
	r.mu.Lock()
	list := make([]*entry, 0, len(r.matches))
	for id, e := range r.matches {
		list = append(list, e)
		delete(r.matches, id)
	}
	r.mu.Unlock()
	for _, e := range list {
		e.cancel()
		<-e.ctrl.Done()
	}
}
