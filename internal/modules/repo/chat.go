package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
)

type ChatRepo interface {
	CreateSession(ctx context.Context, s *model.ChatSession) error
	GetSessionOwned(ctx context.Context, sessionID, userID uuid.UUID) (*model.ChatSession, error)
	GetSessionWithMessages(ctx context.Context, sessionID, userID uuid.UUID) (*model.ChatSession, error)
	ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error)
	TouchSession(ctx context.Context, s *model.ChatSession) error
	DeleteSession(ctx context.Context, s *model.ChatSession) error
	CreateMessage(ctx context.Context, m *model.ChatMessage) error
	ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error)
}

type chatRepo struct{ db *gorm.DB }

func NewChatRepo(db *gorm.DB) ChatRepo {
	return &chatRepo{db: db}
}

func (r *chatRepo) CreateSession(ctx context.Context, s *model.ChatSession) error {
	return r.db.WithContext(ctx).Create(s).Error
}

// GetSessionOwned scopes the lookup to the owner, so another user's session
// id behaves exactly like a missing one.
func (r *chatRepo) GetSessionOwned(ctx context.Context, sessionID, userID uuid.UUID) (*model.ChatSession, error) {
	var s model.ChatSession
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *chatRepo) GetSessionWithMessages(ctx context.Context, sessionID, userID uuid.UUID) (*model.ChatSession, error) {
	var s model.ChatSession
	if err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Where("id = ? AND user_id = ?", sessionID, userID).
		First(&s).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *chatRepo) ListSessionsByUser(ctx context.Context, userID uuid.UUID) ([]model.ChatSession, error) {
	var sessions []model.ChatSession
	return sessions, r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Find(&sessions).Error
}

// TouchSession bumps updated_at after a new message lands.
func (r *chatRepo) TouchSession(ctx context.Context, s *model.ChatSession) error {
	return r.db.WithContext(ctx).Model(s).Update("updated_at", gorm.Expr("CURRENT_TIMESTAMP")).Error
}

func (r *chatRepo) DeleteSession(ctx context.Context, s *model.ChatSession) error {
	return r.db.WithContext(ctx).Delete(s).Error
}

func (r *chatRepo) CreateMessage(ctx context.Context, m *model.ChatMessage) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *chatRepo) ListMessagesBySession(ctx context.Context, sessionID uuid.UUID) ([]model.ChatMessage, error) {
	var msgs []model.ChatMessage
	return msgs, r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&msgs).Error
}
