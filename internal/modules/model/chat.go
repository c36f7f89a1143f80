package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
	ChatRoleSystem    = "system"
)

type ChatSession struct {
	ID      uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name    string            `gorm:"type:text;not null" json:"name"`
	Configs datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"configs,omitempty"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// ChatSession <-> ChatMessage (append-only, ordered by created_at)
	Messages []ChatMessage `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"messages,omitempty"`
}

func (ChatSession) TableName() string { return "chat_sessions" }

type ChatMessage struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Role    string    `gorm:"type:text;not null;check:role IN ('user','assistant','system')" json:"role"`
	Content string    `gorm:"type:text;not null" json:"content"`

	SessionID uuid.UUID    `gorm:"type:uuid;not null;index;index:idx_chat_session_created,priority:1" json:"session_id"`
	Session   *ChatSession `gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_chat_session_created,priority:2" json:"created_at"`
}

func (ChatMessage) TableName() string { return "chat_messages" }
