package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/planhub-io/planhub/internal/infra/genai"
	"github.com/planhub-io/planhub/internal/modules/model"
	"github.com/planhub-io/planhub/internal/modules/repo"
	"github.com/planhub-io/planhub/internal/pkg/apperr"
)

// assistantInstruction frames every generation request. The model never sees
// data beyond the session transcript.
const assistantInstruction = "You are a helpful project management assistant. " +
	"Help the user plan projects, break work into tasks, estimate effort and " +
	"summarize progress. Keep answers concise and practical."

type ChatService interface {
	CreateSession(ctx context.Context, user *model.User, name string, configs map[string]any) (*model.ChatSession, error)
	GetSession(ctx context.Context, user *model.User, sessionID uuid.UUID) (*model.ChatSession, error)
	ListSessions(ctx context.Context, user *model.User) ([]model.ChatSession, error)
	DeleteSession(ctx context.Context, user *model.User, sessionID uuid.UUID) error
	SendMessage(ctx context.Context, user *model.User, sessionID uuid.UUID, content string) (*model.ChatMessage, error)
}

type chatService struct {
	chats    repo.ChatRepo
	ai       *genai.Client
	notifier Notifier
	log      *zap.Logger
}

func NewChatService(chats repo.ChatRepo, ai *genai.Client, notifier Notifier, log *zap.Logger) ChatService {
	return &chatService{chats: chats, ai: ai, notifier: notifier, log: log}
}

func (s *chatService) CreateSession(ctx context.Context, user *model.User, name string, configs map[string]any) (*model.ChatSession, error) {
	if name == "" {
		name = "New conversation"
	}
	sess := &model.ChatSession{
		Name:    name,
		Configs: configs,
		UserID:  user.ID,
	}
	if err := s.chats.CreateSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("create chat session: %w", err)
	}
	return sess, nil
}

func (s *chatService) GetSession(ctx context.Context, user *model.User, sessionID uuid.UUID) (*model.ChatSession, error) {
	sess, err := s.chats.GetSessionWithMessages(ctx, sessionID, user.ID)
	if err != nil {
		return nil, orNotFound(err, fmt.Sprintf("chat session %s", sessionID))
	}
	return sess, nil
}

func (s *chatService) ListSessions(ctx context.Context, user *model.User) ([]model.ChatSession, error) {
	return s.chats.ListSessionsByUser(ctx, user.ID)
}

func (s *chatService) DeleteSession(ctx context.Context, user *model.User, sessionID uuid.UUID) error {
	sess, err := s.chats.GetSessionOwned(ctx, sessionID, user.ID)
	if err != nil {
		return orNotFound(err, fmt.Sprintf("chat session %s", sessionID))
	}
	return s.chats.DeleteSession(ctx, sess)
}

// SendMessage appends the user turn, replays the whole transcript to the
// model and appends the assistant turn. A zero session id starts a fresh
// session for the caller. A failed generation leaves the user turn in place
// and saves nothing for the assistant.
func (s *chatService) SendMessage(ctx context.Context, user *model.User, sessionID uuid.UUID, content string) (*model.ChatMessage, error) {
	if content == "" {
		return nil, fmt.Errorf("content is required: %w", apperr.ErrBadRequest)
	}

	var sess *model.ChatSession
	var err error
	if sessionID == uuid.Nil {
		sess, err = s.CreateSession(ctx, user, "", nil)
		if err != nil {
			return nil, err
		}
	} else {
		sess, err = s.chats.GetSessionOwned(ctx, sessionID, user.ID)
		if err != nil {
			return nil, orNotFound(err, fmt.Sprintf("chat session %s", sessionID))
		}
	}

	userMsg := &model.ChatMessage{
		Role:      model.ChatRoleUser,
		Content:   content,
		SessionID: sess.ID,
	}
	if err := s.chats.CreateMessage(ctx, userMsg); err != nil {
		return nil, fmt.Errorf("save user message: %w", err)
	}

	history, err := s.chats.ListMessagesBySession(ctx, sess.ID)
	if err != nil {
		return nil, fmt.Errorf("load session history: %w", err)
	}

	turns := make([]genai.Turn, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == model.ChatRoleAssistant {
			role = "model"
		}
		turns = append(turns, genai.Turn{Role: role, Text: m.Content})
	}

	reply, err := s.ai.Generate(ctx, assistantInstruction, turns)
	if err != nil {
		return nil, err
	}

	assistantMsg := &model.ChatMessage{
		Role:      model.ChatRoleAssistant,
		Content:   reply,
		SessionID: sess.ID,
	}
	if err := s.chats.CreateMessage(ctx, assistantMsg); err != nil {
		return nil, fmt.Errorf("save assistant message: %w", err)
	}
	if err := s.chats.TouchSession(ctx, sess); err != nil {
		s.log.Sugar().Warnw("touch chat session failed", "session_id", sess.ID, "err", err)
	}

	s.notifier.PushToUser(ctx, user.Username, assistantMsg)
	return assistantMsg, nil
}
