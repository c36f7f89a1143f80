package model

import (
	"time"

	"github.com/google/uuid"
)

// Roles recognized by the authorization policy. They mirror the realm roles
// managed in the identity provider.
const (
	RoleAdmin          = "admin"
	RoleProjectManager = "project-manager"
	RoleDeveloper      = "developer"
)

type User struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	KeycloakID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"keycloak_id"`
	Username   string    `gorm:"type:text;uniqueIndex;not null" json:"username"`
	Email      string    `gorm:"type:text;uniqueIndex;not null" json:"email"`
	FirstName  string    `gorm:"type:text" json:"first_name"`
	LastName   string    `gorm:"type:text" json:"last_name"`
	Role       string    `gorm:"type:text;not null;default:'developer'" json:"role"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// User <-> Project (membership, no ownership cascade)
	Projects []Project `gorm:"many2many:project_members;" json:"-"`

	// User <-> Task
	AssignedTasks []Task `gorm:"foreignKey:AssignedToID;" json:"-"`
	CreatedTasks  []Task `gorm:"foreignKey:CreatedByID;" json:"-"`

	// User <-> Comment / Attachment
	Comments    []Comment    `gorm:"foreignKey:UserID;" json:"-"`
	Attachments []Attachment `gorm:"foreignKey:UploadedByID;" json:"-"`
}

func (User) TableName() string { return "users" }
