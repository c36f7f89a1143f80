package events

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestBus_PublishDispatchesInOrder(t *testing.T) {
	bus := NewBus(zap.NewNop())

	var got []string
	bus.Subscribe(CommentAdded{}.Name(), func(ctx context.Context, e Event) error {
		got = append(got, "first")
		return nil
	})
	bus.Subscribe(CommentAdded{}.Name(), func(ctx context.Context, e Event) error {
		got = append(got, "second")
		return nil
	})

	bus.Publish(context.Background(), CommentAdded{CommentID: uuid.New()})

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestBus_PublishCarriesPayload(t *testing.T) {
	bus := NewBus(zap.NewNop())
	want := uuid.New()

	var got uuid.UUID
	bus.Subscribe(TaskUpdated{}.Name(), func(ctx context.Context, e Event) error {
		ev, ok := e.(TaskUpdated)
		assert.True(t, ok)
		got = ev.TaskID
		return nil
	})

	bus.Publish(context.Background(), TaskUpdated{TaskID: want})

	assert.Equal(t, want, got)
}

func TestBus_HandlerErrorDoesNotStopOthers(t *testing.T) {
	bus := NewBus(zap.NewNop())

	secondRan := false
	bus.Subscribe(TaskUpdated{}.Name(), func(ctx context.Context, e Event) error {
		return errors.New("boom")
	})
	bus.Subscribe(TaskUpdated{}.Name(), func(ctx context.Context, e Event) error {
		secondRan = true
		return nil
	})

	bus.Publish(context.Background(), TaskUpdated{TaskID: uuid.New()})

	assert.True(t, secondRan)
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	bus := NewBus(zap.NewNop())

	assert.NotPanics(t, func() {
		bus.Publish(context.Background(), CommentAdded{CommentID: uuid.New()})
	})
}
