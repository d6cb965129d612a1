package survey

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/storage"
	"github.com/sajal/assesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.CleanupTestDB(t, db) })
	codec := NewCodec(storage.NewLocal(t.TempDir(), "http://media.test"))
	return NewService(db, codec), db
}

func TestSubmit(t *testing.T) {
	svc, db := newTestService(t)

	owner := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner, nil, models.VisibilityPrivate)
	textQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeText)
	optionQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeSingleOption)
	option := testutil.CreateTestOption(t, db, optionQuestion, "opt-a")
	statement := testutil.CreateTestStatement(t, db)

	sv, err := svc.Submit(context.Background(), project, owner.ID, SubmitInput{
		Title: "Baseline assessment",
		Answers: []AnswerInput{
			{QuestionID: textQuestion.ID, AnswerType: models.AnswerTypeText, Answer: str("all good")},
			{QuestionID: optionQuestion.ID, AnswerType: models.AnswerTypeSingleOption, OptionIDs: []uuid.UUID{option.ID}},
		},
		Results: []ResultInput{
			{StatementID: statement.ID, Score: 0.75, Module: "baseline"},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, sv)
	assert.Equal(t, project.ID, sv.ProjectID)

	var answerCount, resultCount, optionLinks int64
	require.NoError(t, db.Model(&models.SurveyAnswer{}).Where("survey_id = ?", sv.ID).Count(&answerCount).Error)
	require.NoError(t, db.Model(&models.SurveyResult{}).Where("survey_id = ?", sv.ID).Count(&resultCount).Error)
	require.NoError(t, db.Table("survey_answer_options").Count(&optionLinks).Error)
	assert.EqualValues(t, 2, answerCount)
	assert.EqualValues(t, 1, resultCount)
	assert.EqualValues(t, 1, optionLinks)
}

func TestSubmit_InvalidAnswerRollsBackEverything(t *testing.T) {
	svc, db := newTestService(t)

	owner := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner, nil, models.VisibilityPrivate)
	textQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeText)
	numberQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeNumber)

	_, err := svc.Submit(context.Background(), project, owner.ID, SubmitInput{
		Title: "Broken submission",
		Answers: []AnswerInput{
			{QuestionID: textQuestion.ID, AnswerType: models.AnswerTypeText, Answer: str("fine")},
			{QuestionID: numberQuestion.ID, AnswerType: models.AnswerTypeNumber, Answer: str("not a number")},
		},
	})
	require.ErrorIs(t, err, ErrInvalidSubmission)

	var surveyCount, answerCount int64
	require.NoError(t, db.Model(&models.Survey{}).Count(&surveyCount).Error)
	require.NoError(t, db.Model(&models.SurveyAnswer{}).Count(&answerCount).Error)
	assert.EqualValues(t, 0, surveyCount, "survey row must roll back with the failed answer")
	assert.EqualValues(t, 0, answerCount)
}

func TestSubmit_UnknownOptionFails(t *testing.T) {
	svc, db := newTestService(t)

	owner := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner, nil, models.VisibilityPrivate)
	optionQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeSingleOption)

	_, err := svc.Submit(context.Background(), project, owner.ID, SubmitInput{
		Title: "Missing option",
		Answers: []AnswerInput{
			{QuestionID: optionQuestion.ID, AnswerType: models.AnswerTypeSingleOption, OptionIDs: []uuid.UUID{uuid.New()}},
		},
	})
	require.ErrorIs(t, err, ErrInvalidSubmission)
}

func TestSubmit_TypeMismatchFails(t *testing.T) {
	svc, db := newTestService(t)

	owner := testutil.CreateTestUser(t, db)
	project := testutil.CreateTestProject(t, db, owner, nil, models.VisibilityPrivate)
	textQuestion := testutil.CreateTestQuestion(t, db, models.AnswerTypeText)

	_, err := svc.Submit(context.Background(), project, owner.ID, SubmitInput{
		Title: "Mismatch",
		Answers: []AnswerInput{
			{QuestionID: textQuestion.ID, AnswerType: models.AnswerTypeNumber, Answer: str("5")},
		},
	})
	require.ErrorIs(t, err, ErrInvalidSubmission)
}
