package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetUser(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@x.com", "hash", "Alice")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)

	byEmail, err := s.GetUserByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Alice", byEmail.Name)
	assert.Equal(t, "hash", byEmail.PasswordHash)

	byID, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "a@x.com", byID.Email)
}

func TestGetUser_NotFound(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.GetUserByEmail(ctx, "nobody@x.com")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = s.GetUserByID(ctx, "no-such-id")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.CreateUser(ctx, "a@x.com", "hash1", "First")
	require.NoError(t, err)

	_, err = s.CreateUser(ctx, "a@x.com", "hash2", "Second")
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestUpdateUserPassword(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@x.com", "old-hash", "Alice")
	require.NoError(t, err)

	require.NoError(t, s.UpdateUserPassword(ctx, user.ID, "new-hash"))

	updated, err := s.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", updated.PasswordHash)

	assert.Error(t, s.UpdateUserPassword(ctx, "no-such-id", "hash"))
}

func TestMessages_AppendAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@x.com", "hash", "Alice")
	require.NoError(t, err)

	contents := []string{"Hello", "Hi there!", "How are you?", "Doing well."}
	roles := []string{RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	for i := range contents {
		msg := Message{UserID: user.ID, Role: roles[i], Content: contents[i]}
		require.NoError(t, s.CreateMessage(ctx, &msg))
		require.NotEmpty(t, msg.ID)
	}

	messages, err := s.GetMessagesByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	for i, msg := range messages {
		assert.Equal(t, contents[i], msg.Content)
		assert.Equal(t, roles[i], msg.Role)
	}
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].CreatedAt.Before(messages[i-1].CreatedAt))
	}
}

func TestGetRecentMessages_WindowIsOldestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	user, err := s.CreateUser(ctx, "a@x.com", "hash", "Alice")
	require.NoError(t, err)

	for i := 0; i < 6; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		msg := Message{UserID: user.ID, Role: role, Content: string(rune('a' + i))}
		require.NoError(t, s.CreateMessage(ctx, &msg))
	}

	recent, err := s.GetRecentMessagesByUserID(ctx, user.ID, 4)
	require.NoError(t, err)
	require.Len(t, recent, 4)
	// The newest four, reordered oldest first.
	assert.Equal(t, "c", recent[0].Content)
	assert.Equal(t, "f", recent[3].Content)
}

func TestGetMessages_OtherUsersInvisible(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice, err := s.CreateUser(ctx, "a@x.com", "hash", "Alice")
	require.NoError(t, err)
	bob, err := s.CreateUser(ctx, "b@x.com", "hash", "Bob")
	require.NoError(t, err)

	require.NoError(t, s.CreateMessage(ctx, &Message{UserID: alice.ID, Role: RoleUser, Content: "mine"}))

	messages, err := s.GetMessagesByUserID(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
