package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/config"
	"github.com/planhub-io/planhub/internal/infra/blob"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

type AttachmentService interface {
	Upload(ctx context.Context, in UploadAttachmentInput) (*model.Attachment, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Attachment, error)
	ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.Attachment, error)
	DownloadURL(ctx context.Context, id uuid.UUID) (string, error)
	Delete(ctx context.Context, id uuid.UUID, actor *model.User) error
}

type attachmentService struct {
	attachments repo.AttachmentRepo
	tasks       repo.TaskRepo
	comments    repo.CommentRepo
	store       *blob.S3Deps
	presignExp  time.Duration
	log         *zap.Logger
}

func NewAttachmentService(attachments repo.AttachmentRepo, tasks repo.TaskRepo, comments repo.CommentRepo, store *blob.S3Deps, cfg *config.Config, log *zap.Logger) AttachmentService {
	expire := time.Duration(cfg.S3.PresignExpireSec) * time.Second
	if expire <= 0 {
		expire = 15 * time.Minute
	}
	return &attachmentService{
		attachments: attachments,
		tasks:       tasks,
		comments:    comments,
		store:       store,
		presignExp:  expire,
		log:         log,
	}
}

type UploadAttachmentInput struct {
	File         *multipart.FileHeader
	TaskID       *uuid.UUID
	CommentID    *uuid.UUID
	UploadedByID uuid.UUID
}

// Upload validates the parent reference and file before any object is
// stored, then writes the object and records its metadata row.
func (s *attachmentService) Upload(ctx context.Context, in UploadAttachmentInput) (*model.Attachment, error) {
	if (in.TaskID == nil) == (in.CommentID == nil) {
		return nil, fmt.Errorf("attachment needs exactly one of task_id or comment_id: %w", apperr.ErrBadRequest)
	}
	if in.File == nil || in.File.Size == 0 {
		return nil, fmt.Errorf("file is empty: %w", apperr.ErrBadRequest)
	}

	keyPrefix := "tasks"
	if in.TaskID != nil {
		if _, err := s.tasks.GetByID(ctx, *in.TaskID); err != nil {
			return nil, orNotFound(err, fmt.Sprintf("task %s", *in.TaskID))
		}
	} else {
		keyPrefix = "comments"
		if _, err := s.comments.GetByID(ctx, *in.CommentID); err != nil {
			return nil, orNotFound(err, fmt.Sprintf("comment %s", *in.CommentID))
		}
	}

	meta, err := s.store.UploadFormFile(ctx, keyPrefix, in.File)
	if err != nil {
		return nil, fmt.Errorf("store attachment: %w: %w", apperr.ErrUpstream, err)
	}

	a := &model.Attachment{
		FileName:     in.File.Filename,
		ObjectKey:    meta.Key,
		SizeBytes:    meta.SizeB,
		ContentType:  meta.MIME,
		TaskID:       in.TaskID,
		CommentID:    in.CommentID,
		UploadedByID: in.UploadedByID,
	}
	if err := s.attachments.Create(ctx, a); err != nil {
		// Orphaned objects are cleaned up best effort; the row is the
		// source of truth.
		if delErr := s.store.DeleteObject(ctx, meta.Key); delErr != nil {
			s.log.Sugar().Warnw("orphaned object left in store", "key", meta.Key, "err", delErr)
		}
		return nil, fmt.Errorf("create attachment record: %w", err)
	}
	return a, nil
}

func (s *attachmentService) GetByID(ctx context.Context, id uuid.UUID) (*model.Attachment, error) {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("attachment %s", id))
	}
	return a, nil
}

func (s *attachmentService) ListByTask(ctx context.Context, taskID uuid.UUID) ([]model.Attachment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("task %s", taskID))
	}
	return s.attachments.ListByTask(ctx, taskID)
}

func (s *attachmentService) ListByComment(ctx context.Context, commentID uuid.UUID) ([]model.Attachment, error) {
	if _, err := s.comments.GetByID(ctx, commentID); err != nil {
		return nil, orNotFound(err, fmt.Sprintf("comment %s", commentID))
	}
	return s.attachments.ListByComment(ctx, commentID)
}

// DownloadURL returns a short-lived pre-signed URL for direct download.
func (s *attachmentService) DownloadURL(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return "", orNotFound(err, fmt.Sprintf("attachment %s", id))
	}
	u, err := s.store.PresignGet(ctx, a.ObjectKey, s.presignExp)
	if err != nil {
		return "", fmt.Errorf("presign download: %w: %w", apperr.ErrUpstream, err)
	}
	return u, nil
}

// Delete removes the stored object first, then the metadata row.
func (s *attachmentService) Delete(ctx context.Context, id uuid.UUID, actor *model.User) error {
	a, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("attachment %s", id))
	}
	if a.UploadedByID != actor.ID && actor.Role != model.RoleAdmin {
		return fmt.Errorf("only the uploader or an admin may delete an attachment: %w", apperr.ErrForbidden)
	}
	if err := s.store.DeleteObject(ctx, a.ObjectKey); err != nil {
		return fmt.Errorf("delete stored object: %w: %w", apperr.ErrUpstream, err)
	}
	return s.attachments.Delete(ctx, id)
}
