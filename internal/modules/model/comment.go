package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID      uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Content string    `gorm:"type:text;not null" json:"content"`

	TaskID uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Task   *Task     `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID;references:ID;" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Comment <-> Attachment
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Comment) TableName() string { return "comments" }
