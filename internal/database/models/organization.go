package models

import "github.com/google/uuid"

type Organization struct {
	Base
	UserStamped
	Title          string     `gorm:"uniqueIndex;not null" json:"title"`
	Acronym        string     `json:"acronym,omitempty"`
	Description    string     `gorm:"type:text" json:"description,omitempty"`
	Logo           string     `json:"logo,omitempty"` // storage-relative path
	Status         Status     `gorm:"not null;index;default:'pending'" json:"status"`
	PointOfContact string     `gorm:"type:text" json:"point_of_contact,omitempty"`
	ParentID       *uuid.UUID `gorm:"type:uuid;index" json:"parent,omitempty"`

	// Relationships
	Parent   *Organization  `gorm:"foreignKey:ParentID" json:"-"`
	Children []Organization `gorm:"foreignKey:ParentID" json:"-"`
	Admins   []User         `gorm:"many2many:organization_admins" json:"-"`
	Members  []User         `gorm:"many2many:organization_members" json:"-"`
	Projects []Project      `gorm:"foreignKey:OrganizationID" json:"-"`
}

func (Organization) TableName() string {
	return "organizations"
}

type OrganizationMemberRequest struct {
	Base
	UserStamped
	UserID         uuid.UUID `gorm:"type:uuid;index;not null" json:"user"`
	OrganizationID uuid.UUID `gorm:"type:uuid;index;not null" json:"organization"`
	Status         Status    `gorm:"not null;index;default:'pending'" json:"status"`

	// Relationships
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Organization *Organization `gorm:"foreignKey:OrganizationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (OrganizationMemberRequest) TableName() string {
	return "organization_member_requests"
}
