package services

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileSubscribedFlag(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer")
	author := createTestUser(t, "author")

	svc := NewUserService()

	profile, err := svc.Profile(testCtx(), nil, author.ID)
	require.NoError(t, err)
	require.False(t, profile.IsSubscribed)

	_, err = svc.Subscribe(testCtx(), viewer.ID, author.ID, 0)
	require.NoError(t, err)

	profile, err = svc.Profile(testCtx(), &viewer.ID, author.ID)
	require.NoError(t, err)
	require.True(t, profile.IsSubscribed)

	// the author does not see themselves as subscribed
	profile, err = svc.Profile(testCtx(), &author.ID, author.ID)
	require.NoError(t, err)
	require.False(t, profile.IsSubscribed)
}

func TestProfileNotFound(t *testing.T) {
	setupTestDB(t)

	svc := NewUserService()

	_, err := svc.Profile(testCtx(), nil, 999)
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserList(t *testing.T) {
	setupTestDB(t)
	viewer := createTestUser(t, "viewer")
	alice := createTestUser(t, "alice")
	createTestUser(t, "bob")

	svc := NewUserService()

	_, err := svc.Subscribe(testCtx(), viewer.ID, alice.ID, 0)
	require.NoError(t, err)

	resp, err := svc.List(testCtx(), &viewer.ID, 1, 20)
	require.NoError(t, err)
	require.EqualValues(t, 3, resp.TotalCount)
	require.Len(t, resp.Users, 3)
	require.Equal(t, "viewer", resp.Users[0].Username)
	require.True(t, resp.Users[1].IsSubscribed)
	require.False(t, resp.Users[2].IsSubscribed)
}

func TestUserListPagination(t *testing.T) {
	setupTestDB(t)
	for _, name := range []string{"a", "b", "c"} {
		createTestUser(t, name)
	}

	svc := NewUserService()

	resp, err := svc.List(testCtx(), nil, 2, 2)
	require.NoError(t, err)
	require.EqualValues(t, 3, resp.TotalCount)
	require.Len(t, resp.Users, 1)
	require.Equal(t, "c", resp.Users[0].Username)
}

func TestNormalizePage(t *testing.T) {
	page, perPage := normalizePage(0, 0)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)

	page, perPage = normalizePage(-3, 1000)
	require.Equal(t, 1, page)
	require.Equal(t, 20, perPage)

	page, perPage = normalizePage(2, 100)
	require.Equal(t, 2, page)
	require.Equal(t, 100, perPage)
}
