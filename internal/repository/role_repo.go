package repository

import (
	"context"
	"errors"

	"salon-inventory/internal/model"

	"gorm.io/gorm"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByCode(ctx context.Context, code string) (*model.Role, error)
	// SeedDefaults creates missing roles and links them to the privileges in model.RolePrivileges.
	SeedDefaults(ctx context.Context) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Order("id ASC").Find(&roles).Error
	return roles, err
}

func (r *roleRepo) FindByCode(ctx context.Context, code string) (*model.Role, error) {
	var role model.Role
	err := r.db.WithContext(ctx).Preload("Privileges").Where("code = ?", code).First(&role).Error
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (r *roleRepo) SeedDefaults(ctx context.Context) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, defaultRole := range model.DefaultRoles {
			role := model.Role{Code: defaultRole.Code, Name: defaultRole.Name, Description: defaultRole.Description, Assignable: defaultRole.Assignable}
			err := tx.Where("code = ?", role.Code).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Role doesn't exist, create it
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			}

			var privileges []model.Privilege
			if err := tx.Where("code IN ?", model.RolePrivileges[role.Code]).Find(&privileges).Error; err != nil {
				return err
			}
			if err := tx.Model(&role).Association("Privileges").Replace(privileges); err != nil {
				return err
			}
		}
		return nil
	})
}
