package models

import "github.com/google/uuid"

type StatementTopic struct {
	Base
	UserStamped
	Title       string `gorm:"uniqueIndex;not null" json:"title"`
	Description string `gorm:"type:text" json:"description,omitempty"`
	Order       int    `gorm:"default:0" json:"order"`

	// Relationships
	Statements []Statement `gorm:"foreignKey:TopicID" json:"-"`
}

func (StatementTopic) TableName() string {
	return "statement_topics"
}

// Statement is a catalogued finding scored against survey results.
type Statement struct {
	Base
	UserStamped
	Code        string     `gorm:"uniqueIndex;not null" json:"code"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description,omitempty"`
	TopicID     *uuid.UUID `gorm:"type:uuid;index" json:"topic,omitempty"`
	Order       int        `gorm:"default:0" json:"order"`

	// Relationships
	Topic         *StatementTopic `gorm:"foreignKey:TopicID" json:"-"`
	Mitigations   []Mitigation    `gorm:"many2many:statement_mitigations" json:"-"`
	Opportunities []Opportunity   `gorm:"many2many:statement_opportunities" json:"-"`
}

func (Statement) TableName() string {
	return "statements"
}

type Mitigation struct {
	Base
	UserStamped
	Code  string `gorm:"uniqueIndex;not null" json:"code"`
	Title string `gorm:"not null" json:"title"`
	Order int    `gorm:"default:0" json:"order"`

	// Relationships
	Statements []Statement `gorm:"many2many:statement_mitigations" json:"-"`
}

func (Mitigation) TableName() string {
	return "mitigations"
}

type Opportunity struct {
	Base
	UserStamped
	Code  string `gorm:"uniqueIndex;not null" json:"code"`
	Title string `gorm:"not null" json:"title"`
	Order int    `gorm:"default:0" json:"order"`

	// Relationships
	Statements []Statement `gorm:"many2many:statement_opportunities" json:"-"`
}

func (Opportunity) TableName() string {
	return "opportunities"
}

// WeightageVersionDraft is where uploaded weightage links land before a
// moderator promotes them to a named version.
const WeightageVersionDraft = "draft"

// QuestionStatement links a question to a statement with a weightage.
// Weightage sets are versioned: uploads land in the "draft" version and only
// one version per question group is active at a time.
type QuestionStatement struct {
	Base
	UserStamped
	QuestionID      uuid.UUID  `gorm:"type:uuid;index;not null" json:"question"`
	StatementID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"statement"`
	QuestionGroupID *uuid.UUID `gorm:"type:uuid;index" json:"question_group,omitempty"`
	Weightage       float64    `gorm:"not null" json:"weightage"`
	Version         string     `gorm:"not null;index;default:'draft'" json:"version"`
	IsActive        bool       `gorm:"default:false;index" json:"is_active"`

	// Relationships
	Question  *Question  `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
	Statement *Statement `gorm:"foreignKey:StatementID;constraint:OnDelete:CASCADE" json:"-"`
}

func (QuestionStatement) TableName() string {
	return "question_statements"
}

type OptionStatement struct {
	Base
	UserStamped
	OptionID        uuid.UUID  `gorm:"type:uuid;index;not null" json:"option"`
	StatementID     uuid.UUID  `gorm:"type:uuid;index;not null" json:"statement"`
	QuestionGroupID *uuid.UUID `gorm:"type:uuid;index" json:"question_group,omitempty"`
	Weightage       float64    `gorm:"not null" json:"weightage"`
	Version         string     `gorm:"not null;index;default:'draft'" json:"version"`
	IsActive        bool       `gorm:"default:false;index" json:"is_active"`

	// Relationships
	Option    *Option    `gorm:"foreignKey:OptionID;constraint:OnDelete:CASCADE" json:"-"`
	Statement *Statement `gorm:"foreignKey:StatementID;constraint:OnDelete:CASCADE" json:"-"`
}

func (OptionStatement) TableName() string {
	return "option_statements"
}
