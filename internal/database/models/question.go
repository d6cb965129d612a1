package models

import "github.com/google/uuid"

type AnswerType string

const (
	AnswerTypeBoolean        AnswerType = "boolean"
	AnswerTypeDate           AnswerType = "date"
	AnswerTypeDescription    AnswerType = "description"
	AnswerTypeSingleImage    AnswerType = "single_image"
	AnswerTypeMultipleImage  AnswerType = "multiple_image"
	AnswerTypeLocation       AnswerType = "location"
	AnswerTypeNumber         AnswerType = "number"
	AnswerTypeText           AnswerType = "text"
	AnswerTypeSingleOption   AnswerType = "single_option"
	AnswerTypeMultipleOption AnswerType = "multiple_option"
)

type QuestionGroup struct {
	Base
	UserStamped
	Code  string `gorm:"uniqueIndex;not null" json:"code"`
	Title string `gorm:"not null" json:"title"`
	Order int    `gorm:"default:0" json:"order"`

	// Relationships
	Questions []Question `gorm:"foreignKey:GroupID" json:"-"`
}

func (QuestionGroup) TableName() string {
	return "question_groups"
}

type Question struct {
	Base
	UserStamped
	Code       string     `gorm:"uniqueIndex;not null" json:"code"`
	Title      string     `gorm:"not null" json:"title"`
	Hints      string     `gorm:"type:text" json:"hints,omitempty"`
	AnswerType AnswerType `gorm:"not null" json:"answer_type"`
	IsRequired bool       `gorm:"default:false" json:"is_required"`
	GroupID    *uuid.UUID `gorm:"type:uuid;index" json:"group,omitempty"`
	Order      int        `gorm:"default:0" json:"order"`

	// Relationships
	Group   *QuestionGroup `gorm:"foreignKey:GroupID" json:"-"`
	Options []Option       `gorm:"foreignKey:QuestionID" json:"options,omitempty"`
}

func (Question) TableName() string {
	return "questions"
}

type Option struct {
	Base
	UserStamped
	QuestionID uuid.UUID `gorm:"type:uuid;index;not null" json:"question"`
	Code       string    `gorm:"not null" json:"code"`
	Title      string    `gorm:"not null" json:"title"`
	Order      int       `gorm:"default:0" json:"order"`

	// Relationships
	Question *Question `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Option) TableName() string {
	return "options"
}
