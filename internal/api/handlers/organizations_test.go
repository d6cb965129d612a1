package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sajal/assesshub/internal/api/handlers"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/membership"
	"github.com/sajal/assesshub/internal/moderation"
	"github.com/sajal/assesshub/internal/tasks"
	"github.com/sajal/assesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrganizationRouter(t *testing.T) (*chi.Mux, *testutil.TestContext) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewOrganizationHandler(
		tc.DB,
		membership.NewService(tc.DB),
		moderation.NewService(tc.DB),
		tasks.NewNotifier(tc.DB, nil, discardLogger()),
	)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Route("/api/v1/organizations", func(r chi.Router) {
			r.Get("/", handler.List)
			r.Post("/", handler.Create)
			r.Get("/{id}", handler.Get)
			r.Put("/{id}", handler.Update)
			r.Delete("/{id}", handler.Delete)
			r.With(middleware.RequireModerator).Post("/{id}/accept", handler.Accept)
			r.With(middleware.RequireModerator).Post("/{id}/reject", handler.Reject)
			r.Post("/{id}/member-request", handler.MemberRequest)
			r.Get("/{id}/users", handler.Users)
			r.Post("/{id}/add-users", handler.AddUsers)
			r.Post("/{id}/remove-users", handler.RemoveUsers)
			r.Post("/{id}/projects", handler.CreateProject)
		})
	})

	return r, tc
}

func TestOrganizationHandler_Create(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations", map[string]interface{}{
		"title":   "Watershed Alliance",
		"acronym": "WA",
	}, tc.Token(user))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var created models.Organization
	testutil.ParseJSONResponse(t, rec, &created)
	assert.Equal(t, "Watershed Alliance", created.Title)
	assert.Equal(t, models.StatusPending, created.Status)
	require.NotNil(t, created.CreatedByID)
	assert.Equal(t, user.ID, *created.CreatedByID)
}

func TestOrganizationHandler_List_AcceptedOrOwn(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)
	accepted := testutil.CreateTestOrg(t, tc.DB)

	pending := &models.Organization{Title: "Pending org", Status: models.StatusPending}
	require.NoError(t, tc.DB.Create(pending).Error)

	own := &models.Organization{Title: "Own pending", Status: models.StatusPending, UserStamped: models.UserStamped{CreatedByID: &user.ID}}
	require.NoError(t, tc.DB.Create(own).Error)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations", nil, tc.Token(user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var list []models.Organization
	testutil.ParseJSONResponse(t, rec, &list)

	ids := make(map[string]bool, len(list))
	for _, org := range list {
		ids[org.ID.String()] = true
	}
	assert.True(t, ids[accepted.ID.String()])
	assert.True(t, ids[own.ID.String()])
	assert.False(t, ids[pending.ID.String()])
}

func TestOrganizationHandler_Get_PendingHidden(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	creator := testutil.CreateTestUser(t, tc.DB)
	stranger := testutil.CreateTestUser(t, tc.DB)

	pending := &models.Organization{Title: "Unreviewed", Status: models.StatusPending, UserStamped: models.UserStamped{CreatedByID: &creator.ID}}
	require.NoError(t, tc.DB.Create(pending).Error)

	req := testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations/"+pending.ID.String(), nil, tc.Token(stranger))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusNotFound)

	req = testutil.AuthenticatedRequest(t, "GET", "/api/v1/organizations/"+pending.ID.String(), nil, tc.Token(creator))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)
}

func TestOrganizationHandler_Accept_ModeratorOnly(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)
	moderator := testutil.CreateTestModerator(t, tc.DB)

	pending := &models.Organization{Title: "Applying", Status: models.StatusPending, UserStamped: models.UserStamped{CreatedByID: &user.ID}}
	require.NoError(t, tc.DB.Create(pending).Error)

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+pending.ID.String()+"/accept", nil, tc.Token(user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req = testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+pending.ID.String()+"/accept", nil, tc.Token(moderator))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var reloaded models.Organization
	require.NoError(t, tc.DB.First(&reloaded, "id = ?", pending.ID).Error)
	assert.Equal(t, models.StatusAccepted, reloaded.Status)
	require.NotNil(t, reloaded.UpdatedByID)
	assert.Equal(t, moderator.ID, *reloaded.UpdatedByID)
}

func TestOrganizationHandler_Update_AdminOnly(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	admin := testutil.CreateTestUser(t, tc.DB)
	outsider := testutil.CreateTestUser(t, tc.DB)
	org := testutil.CreateTestOrg(t, tc.DB)
	require.NoError(t, tc.DB.Model(org).Association("Admins").Append(admin))

	body := map[string]interface{}{"title": "Renamed"}

	req := testutil.AuthenticatedRequest(t, "PUT", "/api/v1/organizations/"+org.ID.String(), body, tc.Token(outsider))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req = testutil.AuthenticatedRequest(t, "PUT", "/api/v1/organizations/"+org.ID.String(), body, tc.Token(admin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var reloaded models.Organization
	require.NoError(t, tc.DB.First(&reloaded, "id = ?", org.ID).Error)
	assert.Equal(t, "Renamed", reloaded.Title)
}

func TestOrganizationHandler_MemberRequest(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)
	org := testutil.CreateTestOrg(t, tc.DB)

	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+org.ID.String()+"/member-request", nil, tc.Token(user))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var request models.OrganizationMemberRequest
	require.NoError(t, tc.DB.Where("organization_id = ? AND user_id = ?", org.ID, user.ID).First(&request).Error)
	assert.Equal(t, models.StatusPending, request.Status)
}

func TestOrganizationHandler_CreateProject(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	member := testutil.CreateTestUser(t, tc.DB)
	outsider := testutil.CreateTestUser(t, tc.DB)
	org := testutil.CreateTestOrg(t, tc.DB)
	require.NoError(t, tc.DB.Model(org).Association("Members").Append(member))

	body := map[string]interface{}{
		"title":      "Hillside survey",
		"visibility": "public_within_organization",
		"users": []map[string]interface{}{
			{"user": outsider.Username, "permission": "read"},
		},
	}

	// Outsiders cannot create projects under the organization
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+org.ID.String()+"/projects", body, tc.Token(outsider))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)

	req = testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+org.ID.String()+"/projects", body, tc.Token(member))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var created models.Project
	testutil.ParseJSONResponse(t, rec, &created)
	assert.Equal(t, models.StatusPending, created.Status)
	require.NotNil(t, created.OrganizationID)
	assert.Equal(t, org.ID, *created.OrganizationID)

	var attached models.ProjectUser
	require.NoError(t, tc.DB.Where("project_id = ? AND user_id = ?", created.ID, outsider.ID).First(&attached).Error)
	assert.Equal(t, models.PermissionRead, attached.Permission)
}

func TestOrganizationHandler_AddAndRemoveUsers(t *testing.T) {
	router, tc := newOrganizationRouter(t)
	defer tc.Cleanup()

	admin := testutil.CreateTestUser(t, tc.DB)
	alice := testutil.CreateTestUser(t, tc.DB)
	bob := testutil.CreateTestUser(t, tc.DB)
	org := testutil.CreateTestOrg(t, tc.DB)
	require.NoError(t, tc.DB.Model(org).Association("Admins").Append(admin))

	// Batch add, unknown usernames are skipped quietly
	req := testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+org.ID.String()+"/add-users", []map[string]interface{}{
		{"user": alice.Username, "role": "member"},
		{"user": bob.Username, "role": "admin"},
		{"user": "nobody-here", "role": "member"},
	}, tc.Token(admin))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	memberCount := tc.DB.Model(org).Association("Members").Count()
	assert.EqualValues(t, 1, memberCount)
	adminCount := tc.DB.Model(org).Association("Admins").Count()
	assert.EqualValues(t, 2, adminCount)

	req = testutil.AuthenticatedRequest(t, "POST", "/api/v1/organizations/"+org.ID.String()+"/remove-users", map[string]interface{}{
		"user": alice.Username, "role": "member",
	}, tc.Token(admin))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	memberCount = tc.DB.Model(org).Association("Members").Count()
	assert.EqualValues(t, 0, memberCount)
}
