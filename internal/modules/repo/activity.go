package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
)

type ActivityRepo interface {
	Create(ctx context.Context, a *model.Activity) error
	ListForUserProjects(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Activity, error)
}

type activityRepo struct{ db *gorm.DB }

func NewActivityRepo(db *gorm.DB) ActivityRepo {
	return &activityRepo{db: db}
}

func (r *activityRepo) Create(ctx context.Context, a *model.Activity) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// ListForUserProjects returns the notification history for every project
// the user is a member of, newest first, with a (created_at, id) cursor.
func (r *activityRepo) ListForUserProjects(ctx context.Context, userID uuid.UUID, afterCreatedAt time.Time, afterID uuid.UUID, limit int) ([]model.Activity, error) {
	q := r.db.WithContext(ctx).
		Joins("JOIN project_members pm ON pm.project_id = activities.project_id").
		Where("pm.user_id = ?", userID)

	if !afterCreatedAt.IsZero() && afterID != uuid.Nil {
		q = q.Where("(activities.created_at < ?) OR (activities.created_at = ? AND activities.id < ?)",
			afterCreatedAt, afterCreatedAt, afterID)
	}

	var items []model.Activity
	return items, q.Order("activities.created_at DESC, activities.id DESC").Limit(limit).Find(&items).Error
}
