package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
)

type AttachmentRepo interface {
	Create(ctx context.Context, a *model.Attachment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Attachment, error)
	ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.Attachment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type attachmentRepo struct{ db *gorm.DB }

func NewAttachmentRepo(db *gorm.DB) AttachmentRepo {
	return &attachmentRepo{db: db}
}

func (r *attachmentRepo) Create(ctx context.Context, a *model.Attachment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *attachmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	var a model.Attachment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *attachmentRepo) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Attachment, error) {
	var attachments []model.Attachment
	return attachments, r.db.WithContext(ctx).
		Where("task_id = ?", taskID).
		Order("uploaded_at ASC").
		Find(&attachments).Error
}

func (r *attachmentRepo) ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.Attachment, error) {
	var attachments []model.Attachment
	return attachments, r.db.WithContext(ctx).
		Where("comment_id = ?", commentID).
		Order("uploaded_at ASC").
		Find(&attachments).Error
}

func (r *attachmentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Attachment{}, "id = ?", id).Error
}
