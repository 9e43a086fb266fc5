package core

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"personachat/internal/store"
)

type fakeGenerator struct {
	reply      string
	err        error
	calls      int
	lastSystem string
	lastTurns  []Turn
}

func (f *fakeGenerator) Complete(_ context.Context, systemInstruction string, turns []Turn) (string, error) {
	f.calls++
	f.lastSystem = systemInstruction
	f.lastTurns = turns
	return f.reply, f.err
}

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func seedUserWithMessages(t *testing.T, s *store.SQLiteStore, n int) *store.User {
	t.Helper()
	ctx := context.Background()
	user, err := s.CreateUser(ctx, "a@x.com", "hash", "Alice")
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		role := store.RoleUser
		if i%2 == 1 {
			role = store.RoleAssistant
		}
		msg := store.Message{UserID: user.ID, Role: role, Content: "message"}
		require.NoError(t, s.CreateMessage(ctx, &msg))
	}
	return user
}

func TestIsPersonalityQuery(t *testing.T) {
	t.Parallel()

	positives := []string{
		"Who am I?",
		"  TELL ME ABOUT MYSELF  ",
		"what do you know about me, really",
		"Describe me please",
		"so, what am I like?",
		"analyze my personality",
	}
	for _, input := range positives {
		assert.True(t, IsPersonalityQuery(input), "expected trigger: %q", input)
	}

	negatives := []string{
		"who are you",
		"tell me a joke",
		"",
		"what's the weather like",
	}
	for _, input := range negatives {
		assert.False(t, IsPersonalityQuery(input), "expected no trigger: %q", input)
	}
}

func TestGetOrGenerate_InsufficientHistory(t *testing.T) {
	for _, n := range []int{0, 1, 2} {
		s := newTestStore(t)
		user := seedUserWithMessages(t, s, n)
		gen := &fakeGenerator{reply: "should not be used"}

		profile, err := NewProfileService(s, gen).GetOrGenerate(context.Background(), user.ID)
		require.NoError(t, err)
		assert.Equal(t, insufficientDataReply, profile)
		assert.Zero(t, gen.calls, "generator must not run with %d messages", n)
	}
}

func TestGetOrGenerate_DelegatesOnce(t *testing.T) {
	s := newTestStore(t)
	user := seedUserWithMessages(t, s, 3)
	gen := &fakeGenerator{reply: "A curious, friendly person."}

	profile, err := NewProfileService(s, gen).GetOrGenerate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, "A curious, friendly person.", profile)
	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, profileSystemInstruction, gen.lastSystem)

	require.Len(t, gen.lastTurns, 1)
	assert.Contains(t, gen.lastTurns[0].Content, "personality profile")
	assert.Contains(t, gen.lastTurns[0].Content, "User: message")
	assert.Contains(t, gen.lastTurns[0].Content, "Assistant: message")
}

func TestGetOrGenerate_EmptyOutputFallsBack(t *testing.T) {
	s := newTestStore(t)
	user := seedUserWithMessages(t, s, 4)
	gen := &fakeGenerator{reply: "   "}

	profile, err := NewProfileService(s, gen).GetOrGenerate(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, emptyProfileReply, profile)
}

func TestGetOrGenerate_UpstreamErrorPropagates(t *testing.T) {
	s := newTestStore(t)
	user := seedUserWithMessages(t, s, 3)
	upstream := errors.New("rate limited")
	gen := &fakeGenerator{err: upstream}

	_, err := NewProfileService(s, gen).GetOrGenerate(context.Background(), user.ID)
	require.ErrorIs(t, err, upstream)
}

func TestBuildProfilePrompt_TranscriptShape(t *testing.T) {
	t.Parallel()

	prompt := buildProfilePrompt([]store.Message{
		{Role: store.RoleUser, Content: "I love hiking"},
		{Role: store.RoleAssistant, Content: "Sounds great"},
	})
	assert.True(t, strings.Contains(prompt, "User: I love hiking\n\nAssistant: Sounds great"))
}
