package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in-progress"
	TaskStatusInReview   = "in-review"
	TaskStatusDone       = "done"
)

const (
	TaskPriorityLow      = "low"
	TaskPriorityMedium   = "medium"
	TaskPriorityHigh     = "high"
	TaskPriorityCritical = "critical"
)

type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title          string     `gorm:"type:text;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Priority       string     `gorm:"type:text;not null;default:'medium';check:priority IN ('low','medium','high','critical')" json:"priority"`
	Type           string     `gorm:"type:text;not null;default:'feature';check:type IN ('feature','bug','chore')" json:"type"`
	Status         string     `gorm:"type:text;not null;default:'todo';check:status IN ('todo','in-progress','in-review','done')" json:"status"`
	EstimatedHours *int       `json:"estimated_hours"`
	DueDate        *time.Time `json:"due_date"`

	ProjectID uuid.UUID `gorm:"type:uuid;not null;index" json:"project_id"`
	Project   *Project  `gorm:"foreignKey:ProjectID;references:ID;constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`

	AssignedToID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_to_id"`
	AssignedTo   *User      `gorm:"foreignKey:AssignedToID;references:ID;constraint:OnDelete:SET NULL;" json:"assigned_to,omitempty"`

	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"created_by_id"`
	CreatedBy   *User     `gorm:"foreignKey:CreatedByID;references:ID;" json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Task <-> Comment / Attachment
	Comments    []Comment    `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
	Attachments []Attachment `gorm:"constraint:OnDelete:CASCADE,OnUpdate:CASCADE;" json:"-"`
}

func (Task) TableName() string { return "tasks" }
