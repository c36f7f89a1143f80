package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/planhub-io/planhub/internal/modules/model"
)

type ProjectRepo interface {
	Create(ctx context.Context, p *model.Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	List(ctx context.Context) ([]model.Project, error)
	Update(ctx context.Context, p *model.Project) error
	ReplaceMembers(ctx context.Context, p *model.Project, members []model.User) error
	AddMember(ctx context.Context, p *model.Project, member *model.User) error
	Members(ctx context.Context, projectID uuid.UUID) ([]model.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type projectRepo struct{ db *gorm.DB }

func NewProjectRepo(db *gorm.DB) ProjectRepo {
	return &projectRepo{db: db}
}

func (r *projectRepo) Create(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *projectRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var p model.Project
	if err := r.db.WithContext(ctx).Preload("Members").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *projectRepo) List(ctx context.Context) ([]model.Project, error) {
	var projects []model.Project
	return projects, r.db.WithContext(ctx).Order("created_at ASC").Find(&projects).Error
}

// Update persists scalar fields. CreatedByID never changes after creation,
// so it is excluded explicitly.
func (r *projectRepo) Update(ctx context.Context, p *model.Project) error {
	return r.db.WithContext(ctx).Model(p).
		Select("*").
		Omit("created_by_id", "created_at", "Members", "CreatedBy", "Tasks").
		Updates(p).Error
}

// ReplaceMembers swaps the membership set wholesale.
func (r *projectRepo) ReplaceMembers(ctx context.Context, p *model.Project, members []model.User) error {
	return r.db.WithContext(ctx).Model(p).Association("Members").Replace(members)
}

func (r *projectRepo) AddMember(ctx context.Context, p *model.Project, member *model.User) error {
	return r.db.WithContext(ctx).Model(p).Association("Members").Append(member)
}

// Members resolves the current member set with an explicit join, avoiding
// lazy association loads.
func (r *projectRepo) Members(ctx context.Context, projectID uuid.UUID) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Joins("JOIN project_members pm ON pm.user_id = users.id").
		Where("pm.project_id = ?", projectID).
		Find(&users).Error
	return users, err
}

// Delete removes the project row; tasks and their children go with it via
// the cascade constraints.
func (r *projectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Project
		if err := tx.Where("id = ?", id).First(&p).Error; err != nil {
			return err
		}
		if err := tx.Model(&p).Association("Members").Clear(); err != nil {
			return err
		}
		return tx.Delete(&p).Error
	})
}
