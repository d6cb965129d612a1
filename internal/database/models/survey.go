package models

import "github.com/google/uuid"

type Survey struct {
	Base
	UserStamped
	Title     string    `gorm:"not null" json:"title"`
	ProjectID uuid.UUID `gorm:"type:uuid;index;not null" json:"project"`

	// Public sharing via an unguessable link identifier.
	IsSharedPublicly     bool    `gorm:"default:false" json:"is_shared_publicly"`
	SharedLinkIdentifier *string `gorm:"uniqueIndex" json:"shared_link_identifier,omitempty"`

	// Relationships
	Project *Project       `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Answers []SurveyAnswer `gorm:"foreignKey:SurveyID" json:"-"`
	Results []SurveyResult `gorm:"foreignKey:SurveyID" json:"-"`
}

func (Survey) TableName() string {
	return "surveys"
}

type SurveyAnswer struct {
	Base
	UserStamped
	SurveyID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"survey"`
	QuestionID uuid.UUID  `gorm:"type:uuid;index;not null" json:"question"`
	AnswerType AnswerType `gorm:"not null" json:"answer_type"`

	// Raw stored representation. Nil for payload-less answer types.
	Answer *string `gorm:"type:text" json:"answer,omitempty"`

	// Relationships
	Survey   *Survey   `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	Question *Question `gorm:"foreignKey:QuestionID" json:"-"`
	Options  []Option  `gorm:"many2many:survey_answer_options" json:"-"`
}

func (SurveyAnswer) TableName() string {
	return "survey_answers"
}

type SurveyResult struct {
	Base
	UserStamped
	SurveyID    uuid.UUID `gorm:"type:uuid;index;not null" json:"survey"`
	StatementID uuid.UUID `gorm:"type:uuid;index;not null" json:"statement"`
	Score       float64   `gorm:"not null" json:"score"`
	Module      string    `json:"module,omitempty"`

	// Relationships
	Survey    *Survey    `gorm:"foreignKey:SurveyID;constraint:OnDelete:CASCADE" json:"-"`
	Statement *Statement `gorm:"foreignKey:StatementID" json:"-"`
}

func (SurveyResult) TableName() string {
	return "survey_results"
}
