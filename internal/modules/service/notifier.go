package service

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/infra/queue"
	"github.com/planhub-io/planhub/internal/modules/model"
)

// BroadcastChannel carries every activity to all connected clients.
const BroadcastChannel = "notify:broadcast"

// UserChannel is the private per-user queue name.
func UserChannel(username string) string {
	return "notify:user:" + username
}

// Notifier fans out activity records and chat replies over Redis pub/sub
// (one publish per recipient plus one broadcast) and exports activities to
// the RabbitMQ exchange for external consumers. Delivery is fire-and-forget:
// failures are logged and never reported to callers.
type Notifier interface {
	NotifyActivity(ctx context.Context, recipients []model.User, activity *model.Activity)
	PushToUser(ctx context.Context, username string, payload any)
}

type redisNotifier struct {
	rdb *redis.Client
	pub *queue.Publisher
	log *zap.Logger
}

// NewNotifier builds the pub/sub notifier. pub may be nil when RabbitMQ is
// not configured; the activity export is skipped in that case.
func NewNotifier(rdb *redis.Client, pub *queue.Publisher, log *zap.Logger) Notifier {
	return &redisNotifier{rdb: rdb, pub: pub, log: log}
}

func (n *redisNotifier) NotifyActivity(ctx context.Context, recipients []model.User, activity *model.Activity) {
	payload, err := sonic.Marshal(activity)
	if err != nil {
		n.log.Sugar().Warnw("marshal activity notification", "activity_id", activity.ID, "err", err)
		return
	}

	if err := n.rdb.Publish(ctx, BroadcastChannel, payload).Err(); err != nil {
		n.log.Sugar().Warnw("broadcast publish failed", "activity_id", activity.ID, "err", err)
	}

	// recipients is the project member set; membership dedupes naturally,
	// so each user gets exactly one private delivery.
	for _, u := range recipients {
		if err := n.rdb.Publish(ctx, UserChannel(u.Username), payload).Err(); err != nil {
			n.log.Sugar().Warnw("private publish failed",
				"activity_id", activity.ID, "user", u.Username, "err", err)
		}
	}

	if n.pub != nil {
		if err := n.pub.PublishJSON(ctx, activity); err != nil {
			n.log.Sugar().Warnw("activity export publish failed", "activity_id", activity.ID, "err", err)
		}
	}
}

func (n *redisNotifier) PushToUser(ctx context.Context, username string, payload any) {
	raw, err := sonic.Marshal(payload)
	if err != nil {
		n.log.Sugar().Warnw("marshal user push", "user", username, "err", err)
		return
	}
	if err := n.rdb.Publish(ctx, UserChannel(username), raw).Err(); err != nil {
		n.log.Sugar().Warnw("user push failed", "user", username, "err", err)
	}
}
