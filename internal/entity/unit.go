package entity

import (
	"context"
	"errors"
	"sync"
)

// Store is where entities live. Each unit of work gets its own forked
// Session, so entities scheduled by one request are never flushed by
// another.
type Store interface {
	Fork() Session
}

// ErrNoUnitOfWork is returned by Forked outside WithUnitOfWork.
var ErrNoUnitOfWork = errors.New("entity: no unit of work in context")

type unitKey struct{}

type unitOfWork struct {
	mu       sync.Mutex
	sessions map[Store]Session
}

// WithUnitOfWork returns a context carrying a fresh unit of work. Sessions
// handed out by Forked under it are shared until the context is dropped.
func WithUnitOfWork(ctx context.Context) context.Context {
	return context.WithValue(ctx, unitKey{}, &unitOfWork{sessions: make(map[Store]Session)})
}

// HasUnitOfWork reports whether ctx carries a unit of work.
func HasUnitOfWork(ctx context.Context) bool {
	_, ok := ctx.Value(unitKey{}).(*unitOfWork)
	return ok
}

// Forked returns a SessionFunc that forks store once per unit of work.
func Forked(store Store) SessionFunc {
	return func(ctx context.Context) (Session, error) {
		u, ok := ctx.Value(unitKey{}).(*unitOfWork)
		if !ok {
			return nil, ErrNoUnitOfWork
		}
		u.mu.Lock()
		defer u.mu.Unlock()
		s, ok := u.sessions[store]
		if !ok {
			s = store.Fork()
			u.sessions[store] = s
		}
		return s, nil
	}
}
