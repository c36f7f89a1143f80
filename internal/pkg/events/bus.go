// Package events is the in-process domain event bus. Services publish an
// event only after their repository write has returned successfully, so
// every dispatched event observes committed state: a rolled-back write
// publishes nothing.
package events

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommentAdded is published after a comment insert commits.
type CommentAdded struct {
	CommentID uuid.UUID
}

func (CommentAdded) Name() string { return "comment.added" }

// TaskUpdated is published after a task update commits.
type TaskUpdated struct {
	TaskID uuid.UUID
}

func (TaskUpdated) Name() string { return "task.updated" }

type Event interface {
	Name() string
}

type Handler func(ctx context.Context, e Event) error

// Bus dispatches synchronously on the publishing goroutine, in handler
// registration order. A handler error drops that one event: it is logged,
// never retried, and never surfaces to the caller whose write already
// committed.
type Bus struct {
	log *zap.Logger

	mu       sync.RWMutex
	handlers map[string][]Handler
}

func NewBus(log *zap.Logger) *Bus {
	return &Bus{
		log:      log,
		handlers: make(map[string][]Handler),
	}
}

func (b *Bus) Subscribe(name string, h Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], h)
}

func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	hs := b.handlers[e.Name()]
	b.mu.RUnlock()

	for _, h := range hs {
		if err := h(ctx, e); err != nil {
			b.log.Sugar().Warnw("event handler failed, event dropped",
				"event", e.Name(), "err", err)
		}
	}
}
