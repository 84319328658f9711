// Package pipeline sequences sanitizing, extraction, image selection,
// captioning and assembly into a single cancellable run.
package pipeline

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Coordinator owns the single live cancellation token of a page.
// Starting a run supersedes the previous one; at most one token can
// commit results at a time.
//
// Coordinator is safe for concurrent use.
type Coordinator struct {
	mu      sync.Mutex
	current *Token
}

// NewCoordinator creates a new Coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Begin cancels the current token, if any, and returns a new live token
// derived from parent.
func (c *Coordinator) Begin(parent context.Context) *Token {
	ctx, cancel := context.WithCancel(parent)
	t := &Token{
		ID:     uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
		owner:  c,
	}

	c.mu.Lock()
	if c.current != nil {
		c.current.cancel()
	}
	c.current = t
	c.mu.Unlock()

	return t
}

// Stop cancels the current token. It is a no-op when no run is active.
func (c *Coordinator) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil {
		c.current.cancel()
	}
}

// Active reports whether a live token exists.
func (c *Coordinator) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && c.current.ctx.Err() == nil
}

// Token is the cancellation token of one run.
type Token struct {
	ID string

	ctx    context.Context
	cancel context.CancelFunc
	owner  *Coordinator
}

// Context returns the context every suspension point of the run observes.
func (t *Token) Context() context.Context {
	return t.ctx
}

// Cancelled reports whether the token was superseded or stopped.
func (t *Token) Cancelled() bool {
	return t.ctx.Err() != nil
}

// Commit runs fn while holding the coordinator, but only when the token
// is still current and not cancelled. It returns context.Canceled
// without calling fn otherwise.
func (t *Token) Commit(fn func() error) error {
	t.owner.mu.Lock()
	defer t.owner.mu.Unlock()

	if t.owner.current != t || t.ctx.Err() != nil {
		return context.Canceled
	}
	return fn()
}

// Release ends the run: the token is cancelled and, if still current,
// removed from the coordinator.
func (t *Token) Release() {
	t.owner.mu.Lock()
	if t.owner.current == t {
		t.owner.current = nil
	}
	t.owner.mu.Unlock()
	t.cancel()
}
