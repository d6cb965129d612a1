package handlers_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/sajal/assesshub/internal/api/dto"
	"github.com/sajal/assesshub/internal/api/handlers"
	"github.com/sajal/assesshub/internal/api/middleware"
	"github.com/sajal/assesshub/internal/auth"
	"github.com/sajal/assesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthRouter(t *testing.T) (*chi.Mux, *testutil.TestContext) {
	tc := testutil.NewTestContext(t)

	handler := handlers.NewAuthHandler(auth.NewService(tc.DB, tc.JWTService))

	r := chi.NewRouter()
	r.Post("/api/v1/auth/register", handler.Register)
	r.Post("/api/v1/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth(tc.JWTService))
		r.Get("/api/v1/me", handler.Me)
	})

	return r, tc
}

func TestAuthHandler_RegisterAndLogin(t *testing.T) {
	router, tc := newAuthRouter(t)
	defer tc.Cleanup()

	register := map[string]interface{}{
		"username": "fieldworker",
		"email":    "fieldworker@example.com",
		"password": "Password123",
		"name":     "Field Worker",
	}

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", register)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusCreated)

	var created dto.AuthResponse
	testutil.ParseJSONResponse(t, rec, &created)
	assert.NotEmpty(t, created.Token)
	assert.Equal(t, "fieldworker", created.User.Username)
	assert.False(t, created.User.IsModerator)

	// Duplicate registration conflicts
	req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", register)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusConflict)

	req = testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"username": "fieldworker",
		"password": "Password123",
	})
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var logged dto.AuthResponse
	testutil.ParseJSONResponse(t, rec, &logged)
	require.NotEmpty(t, logged.Token)

	// The issued token works against /me
	req = testutil.UnauthenticatedRequest(t, "GET", "/api/v1/me", nil)
	req.Header.Set("Authorization", "Bearer "+logged.Token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusOK)

	var me dto.UserDTO
	testutil.ParseJSONResponse(t, rec, &me)
	assert.Equal(t, "fieldworker", me.Username)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	router, tc := newAuthRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"username": user.Username,
		"password": "Wrongpass123",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusUnauthorized)
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	router, tc := newAuthRouter(t)
	defer tc.Cleanup()

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/register", map[string]interface{}{
		"username": "ab",
		"email":    "not-an-email",
		"password": "short",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusBadRequest)

	var resp dto.ErrorResponse
	testutil.ParseJSONResponse(t, rec, &resp)
	assert.Equal(t, "Validation failed", resp.Error)
	assert.Contains(t, resp.Details, "username")
	assert.Contains(t, resp.Details, "email")
	assert.Contains(t, resp.Details, "password")
}

func TestAuthHandler_Login_InactiveUser(t *testing.T) {
	router, tc := newAuthRouter(t)
	defer tc.Cleanup()

	user := testutil.CreateTestUser(t, tc.DB)
	require.NoError(t, tc.DB.Model(user).Update("is_active", false).Error)

	req := testutil.UnauthenticatedRequest(t, "POST", "/api/v1/auth/login", map[string]interface{}{
		"username": user.Username,
		"password": "testpassword123",
	})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	testutil.AssertStatus(t, rec, http.StatusForbidden)
}
