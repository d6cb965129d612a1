package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sajal/assesshub/internal/auth"
	"github.com/sajal/assesshub/internal/database/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB creates an in-memory SQLite database for testing
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	// Run migrations
	err = db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMemberRequest{},
		&models.Project{},
		&models.ProjectUser{},
		&models.QuestionGroup{},
		&models.Question{},
		&models.Option{},
		&models.StatementTopic{},
		&models.Statement{},
		&models.Mitigation{},
		&models.Opportunity{},
		&models.QuestionStatement{},
		&models.OptionStatement{},
		&models.Survey{},
		&models.SurveyAnswer{},
		&models.SurveyResult{},
		&models.EmailTemplate{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CleanupTestDB closes the test database connection
func CleanupTestDB(t *testing.T, db *gorm.DB) {
	t.Helper()
	sqlDB, err := db.DB()
	if err != nil {
		t.Logf("warning: failed to get sql.DB: %v", err)
		return
	}
	sqlDB.Close()
}

// TestContext bundles the per-test database and JWT service.
type TestContext struct {
	DB         *gorm.DB
	JWTService *auth.JWTService

	t *testing.T
}

func NewTestContext(t *testing.T) *TestContext {
	t.Helper()
	return &TestContext{
		DB:         SetupTestDB(t),
		JWTService: CreateTestJWTService(),
		t:          t,
	}
}

func (tc *TestContext) Cleanup() {
	CleanupTestDB(tc.t, tc.DB)
}

// Token returns a valid bearer token for the given user.
func (tc *TestContext) Token(user *models.User) string {
	return GenerateTestToken(tc.t, tc.JWTService, user)
}

// CreateTestUser creates an active user with a unique username
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := auth.HashPassword("testpassword123")
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	suffix := uuid.New().String()[:8]
	user := &models.User{
		Base: models.Base{
			ID: uuid.New(),
		},
		Username:     "user-" + suffix,
		Email:        "test-" + suffix + "@example.com",
		PasswordHash: hash,
		Name:         "Test User",
		IsActive:     true,
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateTestModerator creates an active user with the moderator flag set
func CreateTestModerator(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	user := CreateTestUser(t, db)
	if err := db.Model(user).Update("is_moderator", true).Error; err != nil {
		t.Fatalf("failed to flag test moderator: %v", err)
	}
	user.IsModerator = true
	return user
}

// CreateTestOrg creates an accepted organization
func CreateTestOrg(t *testing.T, db *gorm.DB) *models.Organization {
	t.Helper()

	org := &models.Organization{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:  "Test Organization " + uuid.New().String()[:8],
		Status: models.StatusAccepted,
	}

	if err := db.Create(org).Error; err != nil {
		t.Fatalf("failed to create test organization: %v", err)
	}

	return org
}

// CreateTestProject creates an accepted project owned by the given user
func CreateTestProject(t *testing.T, db *gorm.DB, owner *models.User, org *models.Organization, visibility models.Visibility) *models.Project {
	t.Helper()

	project := &models.Project{
		Base: models.Base{
			ID: uuid.New(),
		},
		Title:      "Test Project " + uuid.New().String()[:8],
		Visibility: visibility,
		Status:     models.StatusAccepted,
		UserStamped: models.UserStamped{
			CreatedByID: &owner.ID,
		},
	}
	if org != nil {
		project.OrganizationID = &org.ID
	}

	if err := db.Create(project).Error; err != nil {
		t.Fatalf("failed to create test project: %v", err)
	}

	return project
}

// CreateTestQuestion creates a question of the given answer type
func CreateTestQuestion(t *testing.T, db *gorm.DB, answerType models.AnswerType) *models.Question {
	t.Helper()

	group := &models.QuestionGroup{
		Base:  models.Base{ID: uuid.New()},
		Code:  "grp-" + uuid.New().String()[:8],
		Title: "Test Group",
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test question group: %v", err)
	}

	question := &models.Question{
		Base:       models.Base{ID: uuid.New()},
		Code:       "q-" + uuid.New().String()[:8],
		Title:      "Test Question",
		AnswerType: answerType,
		GroupID:    &group.ID,
	}
	if err := db.Create(question).Error; err != nil {
		t.Fatalf("failed to create test question: %v", err)
	}

	return question
}

// CreateTestOption attaches an option to a question
func CreateTestOption(t *testing.T, db *gorm.DB, question *models.Question, code string) *models.Option {
	t.Helper()

	option := &models.Option{
		Base:       models.Base{ID: uuid.New()},
		QuestionID: question.ID,
		Code:       code,
		Title:      "Option " + code,
	}
	if err := db.Create(option).Error; err != nil {
		t.Fatalf("failed to create test option: %v", err)
	}

	return option
}

// CreateTestStatement creates a statement under a fresh topic
func CreateTestStatement(t *testing.T, db *gorm.DB) *models.Statement {
	t.Helper()

	topic := &models.StatementTopic{
		Base:  models.Base{ID: uuid.New()},
		Title: "Test Topic",
	}
	if err := db.Create(topic).Error; err != nil {
		t.Fatalf("failed to create test statement topic: %v", err)
	}

	statement := &models.Statement{
		Base:    models.Base{ID: uuid.New()},
		Code:    "st-" + uuid.New().String()[:8],
		Title:   "Test Statement",
		TopicID: &topic.ID,
	}
	if err := db.Create(statement).Error; err != nil {
		t.Fatalf("failed to create test statement: %v", err)
	}

	return statement
}

// CreateTestJWTService creates a JWT service for testing
func CreateTestJWTService() *auth.JWTService {
	return auth.NewJWTService("test-secret-key-for-testing", 24*time.Hour)
}

// GenerateTestToken generates a valid JWT token for the given user
func GenerateTestToken(t *testing.T, jwtService *auth.JWTService, user *models.User) string {
	t.Helper()

	token, err := jwtService.GenerateToken(user.ID, user.Username, user.Email, user.IsModerator)
	if err != nil {
		t.Fatalf("failed to generate test token: %v", err)
	}

	return token
}

// AuthenticatedRequest creates an HTTP request with authentication
func AuthenticatedRequest(t *testing.T, method, path string, body interface{}, token string) *http.Request {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}

// UnauthenticatedRequest creates an HTTP request without authentication
func UnauthenticatedRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	return AuthenticatedRequest(t, method, path, body, "")
}

// AssertStatus checks if the response has the expected status code
func AssertStatus(t *testing.T, rr *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if rr.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, rr.Code, rr.Body.String())
	}
}

// ParseJSONResponse parses the response body into the given struct
func ParseJSONResponse(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()

	if err := json.Unmarshal(rr.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to parse response body: %v. Body: %s", err, rr.Body.String())
	}
}
