package models

import "github.com/google/uuid"

type Visibility string

const (
	VisibilityPrivate      Visibility = "private"
	VisibilityPublicWithin Visibility = "public_within_organization"
	VisibilityPublic       Visibility = "public"
)

func (v Visibility) Valid() bool {
	switch v {
	case VisibilityPrivate, VisibilityPublicWithin, VisibilityPublic:
		return true
	}
	return false
}

type ProjectPermission string

const (
	PermissionRead  ProjectPermission = "read"
	PermissionWrite ProjectPermission = "write"
)

type Project struct {
	Base
	UserStamped
	Title          string     `gorm:"not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	OrganizationID *uuid.UUID `gorm:"type:uuid;index" json:"organization,omitempty"`
	Visibility     Visibility `gorm:"not null;default:'private'" json:"visibility"`
	Status         Status     `gorm:"not null;index;default:'pending'" json:"status"`

	// Relationships
	Organization *Organization `gorm:"foreignKey:OrganizationID" json:"-"`
	ProjectUsers []ProjectUser `gorm:"foreignKey:ProjectID" json:"-"`
	Surveys      []Survey      `gorm:"foreignKey:ProjectID" json:"-"`
}

func (Project) TableName() string {
	return "projects"
}

// ProjectUser carries a user's permission level on a specific project.
type ProjectUser struct {
	Base
	UserStamped
	ProjectID  uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_project_user;not null" json:"project"`
	UserID     uuid.UUID         `gorm:"type:uuid;uniqueIndex:idx_project_user;not null" json:"user"`
	Permission ProjectPermission `gorm:"not null;default:'read'" json:"permission"`

	// Relationships
	Project *Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	User    *User    `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (ProjectUser) TableName() string {
	return "project_users"
}
