package model

import (
	"time"

	"github.com/google/uuid"
)

// Attachment belongs to exactly one of Task or Comment. The check
// constraint enforces the exclusive-or at the database level; the service
// rejects violations before any object is stored.
type Attachment struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FileName    string    `gorm:"type:text;not null" json:"file_name"`
	ObjectKey   string    `gorm:"type:text;not null;uniqueIndex" json:"object_key"`
	SizeBytes   int64     `gorm:"type:bigint;not null" json:"size_bytes"`
	ContentType string    `gorm:"type:text" json:"content_type"`

	TaskID *uuid.UUID `gorm:"type:uuid;index;check:chk_one_parent,(task_id IS NULL) <> (comment_id IS NULL)" json:"task_id"`
	Task   *Task      `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	CommentID *uuid.UUID `gorm:"type:uuid;index" json:"comment_id"`
	Comment   *Comment   `gorm:"foreignKey:CommentID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	UploadedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"uploaded_by_id"`
	UploadedBy   *User     `gorm:"foreignKey:UploadedByID;references:ID;" json:"uploaded_by,omitempty"`

	UploadedAt time.Time `gorm:"autoCreateTime" json:"uploaded_at"`
}

func (Attachment) TableName() string { return "attachments" }
