package survey

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/gorm"
)

// ErrInvalidSubmission is the single aggregate failure reported when any
// part of a survey submission cannot be persisted. The submission is
// all-or-nothing; callers never learn which sub-record failed.
var ErrInvalidSubmission = errors.New("failed to create survey or survey answer due to invalid data")

type Service struct {
	db    *gorm.DB
	codec *Codec
}

func NewService(db *gorm.DB, codec *Codec) *Service {
	return &Service{db: db, codec: codec}
}

type AnswerInput struct {
	QuestionID uuid.UUID         `json:"question"`
	AnswerType models.AnswerType `json:"answer_type"`
	Answer     *string           `json:"answer,omitempty"`
	OptionIDs  []uuid.UUID       `json:"options,omitempty"`
}

type ResultInput struct {
	StatementID uuid.UUID `json:"statement"`
	Score       float64   `json:"score"`
	Module      string    `json:"module,omitempty"`
}

type SubmitInput struct {
	Title   string        `json:"title"`
	Answers []AnswerInput `json:"answers"`
	Results []ResultInput `json:"results"`
}

// Submit creates a survey with all its answers and results inside a single
// transaction. Each answer is validated before persistence; options are
// attached after the answer row exists. Any failure rolls the whole
// submission back.
func (s *Service) Submit(ctx context.Context, project *models.Project, actor uuid.UUID, in SubmitInput) (*models.Survey, error) {
	sv := models.Survey{
		Title:       in.Title,
		ProjectID:   project.ID,
		UserStamped: models.UserStamped{CreatedByID: &actor},
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sv).Error; err != nil {
			return err
		}

		for _, ain := range in.Answers {
			var question models.Question
			if err := tx.First(&question, "id = ?", ain.QuestionID).Error; err != nil {
				return err
			}

			var options []models.Option
			if len(ain.OptionIDs) > 0 {
				if err := tx.Where("id IN ?", ain.OptionIDs).Find(&options).Error; err != nil {
					return err
				}
				if len(options) != len(ain.OptionIDs) {
					return fieldError("options", "invalid option for question")
				}
			}

			if err := s.codec.Validate(ctx, Answer{
				Question: &question,
				Type:     ain.AnswerType,
				Raw:      ain.Answer,
				Options:  options,
			}); err != nil {
				return err
			}

			answer := models.SurveyAnswer{
				SurveyID:    sv.ID,
				QuestionID:  question.ID,
				AnswerType:  ain.AnswerType,
				Answer:      ain.Answer,
				UserStamped: models.UserStamped{CreatedByID: &actor},
			}
			if err := tx.Create(&answer).Error; err != nil {
				return err
			}
			if len(options) > 0 {
				if err := tx.Model(&answer).Association("Options").Append(&options); err != nil {
					return err
				}
			}
		}

		for _, rin := range in.Results {
			result := models.SurveyResult{
				SurveyID:    sv.ID,
				StatementID: rin.StatementID,
				Score:       rin.Score,
				Module:      rin.Module,
				UserStamped: models.UserStamped{CreatedByID: &actor},
			}
			if err := tx.Create(&result).Error; err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	return &sv, nil
}
