package repository

import (
	"context"
	"errors"

	"printshop-api/internal/authz"
	"printshop-api/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RoleRepository interface {
	FindAll(ctx context.Context) ([]model.Role, error)
	FindByName(ctx context.Context, name authz.RoleName) (*model.Role, error)
	// SyncFromPolicy makes the roles and permissions tables mirror the policy.
	SyncFromPolicy(ctx context.Context, policy *authz.Policy) error
}

type roleRepo struct {
	db *gorm.DB
}

func NewRoleRepo(db *gorm.DB) RoleRepository {
	return &roleRepo{db: db}
}

func (r *roleRepo) FindAll(ctx context.Context) ([]model.Role, error) {
	var roles []model.Role
	err := r.db.WithContext(ctx).Preload("Permissions").Order("id ASC").Find(&roles).Error
	return roles, translate(err, "role")
}

func (r *roleRepo) FindByName(ctx context.Context, name authz.RoleName) (*model.Role, error) {
	var role model.Role
	if err := r.db.WithContext(ctx).Where("name = ?", string(name)).First(&role).Error; err != nil {
		return nil, translate(err, "role")
	}
	return &role, nil
}

func (r *roleRepo) SyncFromPolicy(ctx context.Context, policy *authz.Policy) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Permissions: insert missing codes, refresh descriptions
		perms := model.PermissionsFromPolicy()
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "code"}},
			DoUpdates: clause.AssignmentColumns([]string{"resource", "description"}),
		}).Create(&perms).Error; err != nil {
			return err
		}
		var stored []model.Permission
		if err := tx.Find(&stored).Error; err != nil {
			return err
		}
		byCode := make(map[string]model.Permission, len(stored))
		for _, p := range stored {
			byCode[p.Code] = p
		}

		// 2. Roles: upsert each profile, then replace its permission links
		for _, profile := range policy.Roles() {
			var role model.Role
			err := tx.Where("name = ?", string(profile.Name)).First(&role).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				role = model.RoleFromProfile(profile)
				if err := tx.Create(&role).Error; err != nil {
					return err
				}
			} else if err != nil {
				return err
			} else {
				role.DisplayName = profile.DisplayName
				role.Description = profile.Description
				if err := tx.Omit("Permissions").Save(&role).Error; err != nil {
					return err
				}
			}

			links := make([]model.Permission, 0, len(profile.Permissions))
			for _, code := range profile.Permissions {
				links = append(links, byCode[string(code)])
			}
			if err := tx.Model(&role).Association("Permissions").Replace(links); err != nil {
				return err
			}
		}
		return nil
	})
}
