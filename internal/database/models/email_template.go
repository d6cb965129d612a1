package models

// EmailTemplate holds subject/body pairs for outgoing notification mail.
// Bodies may contain {{placeholder}} tokens substituted at enqueue time.
type EmailTemplate struct {
	Base
	Identifier string `gorm:"uniqueIndex;not null" json:"identifier"`
	Subject    string `gorm:"not null" json:"subject"`
	Body       string `gorm:"type:text;not null" json:"body"`
}

func (EmailTemplate) TableName() string {
	return "email_templates"
}

// Template identifiers seeded by scripts/seed.go.
const (
	TemplateMemberRequestCreated  = "organization_member_request_created"
	TemplateMemberRequestResolved = "organization_member_request_resolved"
	TemplateOrganizationResolved  = "organization_resolved"
	TemplateProjectResolved       = "project_resolved"
)
