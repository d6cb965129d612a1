package access

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// Level is a user's effective permission on a project. Exactly one level is
// resolved per (user, project) pair.
type Level string

const (
	LevelOrganizationAdmin Level = "organization_admin"
	LevelOwner             Level = "owner"
	LevelWrite             Level = "write"
	LevelReadOnly          Level = "read_only"
	// LevelVisibility means the user has no explicit grant; the caller falls
	// back to the project's visibility flag.
	LevelVisibility Level = "visibility"
)

// ResolveLevel walks the precedence chain organization_admin > owner >
// write > read_only > visibility and stops at the first match.
func ResolveLevel(ctx context.Context, db *gorm.DB, userID uuid.UUID, project *models.Project) (Level, error) {
	if project.OrganizationID != nil {
		isAdmin, err := IsOrganizationAdmin(ctx, db, userID, *project.OrganizationID)
		if err != nil {
			return "", err
		}
		if isAdmin {
			return LevelOrganizationAdmin, nil
		}
	}

	if project.CreatedByID != nil && *project.CreatedByID == userID {
		return LevelOwner, nil
	}

	var projectUser models.ProjectUser
	err := db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", project.ID, userID).
		First(&projectUser).Error
	switch {
	case err == nil:
		if projectUser.Permission == models.PermissionWrite {
			return LevelWrite, nil
		}
		return LevelReadOnly, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return LevelVisibility, nil
	default:
		return "", err
	}
}

// CanEdit reports whether the resolved level grants write access.
func CanEdit(level Level) bool {
	switch level {
	case LevelOrganizationAdmin, LevelOwner, LevelWrite:
		return true
	}
	return false
}

// IsOrganizationAdmin checks membership in an organization's admin set.
func IsOrganizationAdmin(ctx context.Context, db *gorm.DB, userID, organizationID uuid.UUID) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Table("organization_admins").
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// IsOrganizationMember checks the admin and member sets together.
func IsOrganizationMember(ctx context.Context, db *gorm.DB, userID, organizationID uuid.UUID) (bool, error) {
	isAdmin, err := IsOrganizationAdmin(ctx, db, userID, organizationID)
	if err != nil {
		return false, err
	}
	if isAdmin {
		return true, nil
	}
	var count int64
	err = db.WithContext(ctx).
		Table("organization_members").
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReadAllowedProjects returns a query over the projects userID may read:
// projects of organizations they administer, projects they created, projects
// they are a member of, accepted public projects whose organization (if any)
// is accepted, and accepted organization-public projects of organizations
// they belong to.
func ReadAllowedProjects(db *gorm.DB, userID uuid.UUID) *gorm.DB {
	adminOrgs := db.Table("organization_admins").
		Select("organization_id").
		Where("user_id = ?", userID)
	memberOrgs := db.Table("organization_members").
		Select("organization_id").
		Where("user_id = ?", userID)
	memberProjects := db.Table("project_users").
		Select("project_id").
		Where("user_id = ?", userID)
	acceptedOrgs := db.Model(&models.Organization{}).
		Select("id").
		Where("status = ?", models.StatusAccepted)

	return db.Model(&models.Project{}).
		Where(
			db.Where("organization_id IN (?)", adminOrgs).
				Or("created_by_id = ?", userID).
				Or("id IN (?)", memberProjects).
				Or(
					db.Where("visibility = ?", models.VisibilityPublic).
						Where("status = ?", models.StatusAccepted).
						Where(db.Where("organization_id IS NULL").Or("organization_id IN (?)", acceptedOrgs)),
				).
				Or(
					db.Where("visibility = ?", models.VisibilityPublicWithin).
						Where("status = ?", models.StatusAccepted).
						Where("organization_id IN (?)", memberOrgs),
				),
		)
}
