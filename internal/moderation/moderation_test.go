package moderation

import (
	"context"
	"testing"

	"github.com/sajal/assesshub/internal/database/models"
	"github.com/sajal/assesshub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewService(db)

	moderator := testutil.CreateTestModerator(t, db)
	org := testutil.CreateTestOrg(t, db)
	require.NoError(t, db.Model(org).Update("status", models.StatusPending).Error)
	org.Status = models.StatusPending

	changed, err := svc.Accept(context.Background(), org, moderator.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, "id = ?", org.ID).Error)
	assert.Equal(t, models.StatusAccepted, reloaded.Status)
	require.NotNil(t, reloaded.UpdatedByID)
	assert.Equal(t, moderator.ID, *reloaded.UpdatedByID)
}

func TestAccept_AlreadyAccepted_NoOp(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewService(db)

	moderator := testutil.CreateTestModerator(t, db)
	other := testutil.CreateTestModerator(t, db)
	org := testutil.CreateTestOrg(t, db)
	require.NoError(t, db.Model(org).Update("status", models.StatusPending).Error)
	org.Status = models.StatusPending

	changed, err := svc.Accept(context.Background(), org, moderator.ID)
	require.NoError(t, err)
	require.True(t, changed)

	// A second accept neither writes nor re-stamps
	changed, err = svc.Accept(context.Background(), org, other.ID)
	require.NoError(t, err)
	assert.False(t, changed)

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, "id = ?", org.ID).Error)
	require.NotNil(t, reloaded.UpdatedByID)
	assert.Equal(t, moderator.ID, *reloaded.UpdatedByID, "second accept must not change the stamp")
}

func TestRejectThenAccept(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewService(db)

	moderator := testutil.CreateTestModerator(t, db)
	org := testutil.CreateTestOrg(t, db)
	require.NoError(t, db.Model(org).Update("status", models.StatusPending).Error)
	org.Status = models.StatusPending

	changed, err := svc.Reject(context.Background(), org, moderator.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	// Rejected records can still be accepted later
	changed, err = svc.Accept(context.Background(), org, moderator.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	var reloaded models.Organization
	require.NoError(t, db.First(&reloaded, "id = ?", org.ID).Error)
	assert.Equal(t, models.StatusAccepted, reloaded.Status)
}

func TestModeration_MemberRequest(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.CleanupTestDB(t, db)
	svc := NewService(db)

	moderator := testutil.CreateTestModerator(t, db)
	org := testutil.CreateTestOrg(t, db)
	user := testutil.CreateTestUser(t, db)

	request := &models.OrganizationMemberRequest{
		UserID:         user.ID,
		OrganizationID: org.ID,
		Status:         models.StatusPending,
	}
	require.NoError(t, db.Create(request).Error)

	changed, err := svc.Accept(context.Background(), request, moderator.ID)
	require.NoError(t, err)
	assert.True(t, changed)

	var reloaded models.OrganizationMemberRequest
	require.NoError(t, db.First(&reloaded, "id = ?", request.ID).Error)
	assert.Equal(t, models.StatusAccepted, reloaded.Status)
}
