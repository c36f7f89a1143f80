package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/modules/model"
)

func newNotifierFixture(t *testing.T) (*miniredis.Miniredis, *redis.Client, Notifier) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb, NewNotifier(rdb, nil, zap.NewNop())
}

// subscribeConfirmed subscribes and waits for every subscription ack so a
// publish issued afterwards cannot race the registration.
func subscribeConfirmed(t *testing.T, rdb *redis.Client, channels ...string) *redis.PubSub {
	t.Helper()
	sub := rdb.Subscribe(context.Background(), channels...)
	t.Cleanup(func() { _ = sub.Close() })
	for range channels {
		msg, err := sub.ReceiveTimeout(context.Background(), time.Second)
		require.NoError(t, err)
		require.IsType(t, &redis.Subscription{}, msg)
	}
	return sub
}

func TestRedisNotifier_NotifyActivity(t *testing.T) {
	t.Run("one private publish per member plus one broadcast", func(t *testing.T) {
		_, rdb, notifier := newNotifierFixture(t)

		members := []model.User{{ID: uuid.New(), Username: "alice"}, {ID: uuid.New(), Username: "bob"}}
		activity := &model.Activity{ID: uuid.New(), Action: "comment added"}

		sub := subscribeConfirmed(t, rdb,
			BroadcastChannel, UserChannel("alice"), UserChannel("bob"))

		notifier.NotifyActivity(context.Background(), members, activity)

		got := map[string]int{}
		for i := 0; i < 3; i++ {
			raw, err := sub.ReceiveTimeout(context.Background(), time.Second)
			require.NoError(t, err)
			msg, ok := raw.(*redis.Message)
			require.True(t, ok, "expected a message, got %T", raw)
			assert.Contains(t, msg.Payload, activity.ID.String())
			got[msg.Channel]++
		}
		assert.Equal(t, map[string]int{
			BroadcastChannel:     1,
			UserChannel("alice"): 1,
			UserChannel("bob"):   1,
		}, got)

		// Exactly three deliveries: nothing else may arrive.
		_, err := sub.ReceiveTimeout(context.Background(), 50*time.Millisecond)
		assert.Error(t, err)
	})

	t.Run("publish failure is swallowed", func(t *testing.T) {
		mr, _, notifier := newNotifierFixture(t)
		mr.Close()

		// Must return normally; delivery errors are logged, never surfaced.
		notifier.NotifyActivity(context.Background(),
			[]model.User{{Username: "alice"}},
			&model.Activity{ID: uuid.New(), Action: "task updated"})
	})
}

func TestRedisNotifier_PushToUser(t *testing.T) {
	_, rdb, notifier := newNotifierFixture(t)

	sub := subscribeConfirmed(t, rdb, UserChannel("alice"))

	notifier.PushToUser(context.Background(), "alice", &model.ChatMessage{
		ID:      uuid.New(),
		Role:    model.ChatRoleAssistant,
		Content: "done",
	})

	raw, err := sub.ReceiveTimeout(context.Background(), time.Second)
	require.NoError(t, err)
	msg, ok := raw.(*redis.Message)
	require.True(t, ok, "expected a message, got %T", raw)
	assert.Equal(t, UserChannel("alice"), msg.Channel)
	assert.Contains(t, msg.Payload, `"done"`)
}
