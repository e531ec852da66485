package invocation

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/google/uuid"
)

// ErrCancelled is the cause attached to a token's context when it is cancelled.
var ErrCancelled = errors.New("invocation cancelled")

// Token is the cancellation handle of one invocation.
type Token struct {
	id        string
	parent    context.Context
	ctx       context.Context
	cancel    context.CancelCauseFunc
	cancelled atomic.Bool
}

func newToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{id: uuid.NewString(), parent: parent, ctx: ctx, cancel: cancel}
}

// ID returns the token's unique identifier.
func (t *Token) ID() string { return t.id }

// Context is the context handed to the capability handle.
func (t *Token) Context() context.Context { return t.ctx }

// Cancel requests cancellation. Providers observe it at their next checkpoint.
func (t *Token) Cancel() {
	t.cancelled.Store(true)
	t.cancel(ErrCancelled)
}

// Cancelled reports whether the invocation was cancelled, either through Cancel
// or because the caller's context was cancelled.
func (t *Token) Cancelled() bool {
	if t.cancelled.Load() {
		return true
	}
	return errors.Is(t.parent.Err(), context.Canceled)
}

func (t *Token) release() { t.cancel(nil) }
