package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Activity action labels produced by the event pipeline.
const (
	ActionCommentAdded = "comment added"
	ActionTaskUpdated  = "task updated"
)

// Activity is an insert-only audit record. Rows are created exclusively by
// the activity recorder after the triggering transaction commits; handlers
// never write them directly.
type Activity struct {
	ID      uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Action  string            `gorm:"type:text;not null" json:"action"`
	Details string            `gorm:"type:text;not null" json:"details"`
	Meta    datatypes.JSONMap `gorm:"type:jsonb" swaggertype:"object" json:"meta,omitempty"`

	TaskID uuid.UUID `gorm:"type:uuid;not null;index" json:"task_id"`
	Task   *Task     `gorm:"foreignKey:TaskID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	// UserID is the actor who triggered the event.
	UserID uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	User   *User     `gorm:"foreignKey:UserID;references:ID;" json:"user,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime;index:idx_activity_created,sort:desc" json:"created_at"`
}

func (Activity) TableName() string { return "activities" }
