package membership

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// Roles assignable inside an organization.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

var ErrInvalidRole = errors.New("invalid role")

// Service mutates organization admin/member sets and project user records.
// All batch operations are idempotent; usernames that resolve to no user are
// silently skipped.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// OrganizationUserEntry names a user and the role to grant or revoke.
type OrganizationUserEntry struct {
	User string `json:"user"`
	Role string `json:"role"`
}

func (e OrganizationUserEntry) Validate() error {
	if e.Role != RoleAdmin && e.Role != RoleMember {
		return fmt.Errorf("%w %q", ErrInvalidRole, e.Role)
	}
	return nil
}

// AddOrganizationUsers adds each resolvable user to the requested set.
// Adding an existing admin/member is a no-op.
func (s *Service) AddOrganizationUsers(ctx context.Context, org *models.Organization, entries []OrganizationUserEntry) error {
	for _, entry := range entries {
		user, ok, err := s.lookupUser(ctx, entry.User)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		assoc := "Members"
		if entry.Role == RoleAdmin {
			assoc = "Admins"
		}
		if err := s.db.WithContext(ctx).Model(org).Association(assoc).Append(user); err != nil {
			return err
		}
	}
	return nil
}

// RemoveOrganizationUsers is the symmetric removal.
func (s *Service) RemoveOrganizationUsers(ctx context.Context, org *models.Organization, entries []OrganizationUserEntry) error {
	for _, entry := range entries {
		user, ok, err := s.lookupUser(ctx, entry.User)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		assoc := "Members"
		if entry.Role == RoleAdmin {
			assoc = "Admins"
		}
		if err := s.db.WithContext(ctx).Model(org).Association(assoc).Delete(user); err != nil {
			return err
		}
	}
	return nil
}

// AddOrganizationMember appends a single user to the member set. Used when a
// member request is accepted.
func (s *Service) AddOrganizationMember(ctx context.Context, organizationID, userID uuid.UUID) error {
	org := models.Organization{Base: models.Base{ID: organizationID}}
	user := models.User{Base: models.Base{ID: userID}}
	return s.db.WithContext(ctx).Model(&org).Association("Members").Append(&user)
}

// ProjectUserEntry names a user and the permission to grant on a project.
type ProjectUserEntry struct {
	User       string                   `json:"user"`
	Permission models.ProjectPermission `json:"permission"`
}

// UpsertProjectUsers updates the permission of each existing project user
// record, creating records for users not yet on the project. Every mutation
// is stamped with the acting user.
func (s *Service) UpsertProjectUsers(ctx context.Context, project *models.Project, entries []ProjectUserEntry, actor uuid.UUID) error {
	for _, entry := range entries {
		user, ok, err := s.lookupUser(ctx, entry.User)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}

		permission := entry.Permission
		if permission == "" {
			permission = models.PermissionRead
		}

		var existing models.ProjectUser
		err = s.db.WithContext(ctx).
			Where("project_id = ? AND user_id = ?", project.ID, user.ID).
			First(&existing).Error
		switch {
		case err == nil:
			updates := map[string]interface{}{
				"permission":    permission,
				"updated_by_id": actor,
			}
			if err := s.db.WithContext(ctx).Model(&existing).Updates(updates).Error; err != nil {
				return err
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			record := models.ProjectUser{
				ProjectID:   project.ID,
				UserID:      user.ID,
				Permission:  permission,
				UserStamped: models.UserStamped{CreatedByID: &actor},
			}
			if err := s.db.WithContext(ctx).Create(&record).Error; err != nil {
				return err
			}
		default:
			return err
		}
	}
	return nil
}

// RemoveProjectUsers detaches each listed user from the project.
type RemoveProjectUserEntry struct {
	User string `json:"user"`
}

func (s *Service) RemoveProjectUsers(ctx context.Context, project *models.Project, entries []RemoveProjectUserEntry) error {
	for _, entry := range entries {
		user, ok, err := s.lookupUser(ctx, entry.User)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		err = s.db.WithContext(ctx).
			Where("project_id = ? AND user_id = ?", project.ID, user.ID).
			Delete(&models.ProjectUser{}).Error
		if err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) lookupUser(ctx context.Context, username string) (*models.User, bool, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ?", strings.ToLower(username)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &user, true, nil
}
