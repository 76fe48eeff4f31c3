package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"warbler/internal/model"
)

// steppingClock returns a strictly increasing time on every call.
func steppingClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := NewStore()
	s.now = steppingClock()
	return s
}

func mustCreateUser(t *testing.T, s *Store, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com", Password: "hash"}
	require.NoError(t, s.Repositories().Users.Create(context.Background(), u))
	return u
}

func TestUsers_Uniqueness(t *testing.T) {
	s := newTestStore(t)
	users := s.Repositories().Users
	mustCreateUser(t, s, "alice")

	err := users.Create(context.Background(), &model.User{Username: "alice", Email: "other@example.com"})
	assert.ErrorIs(t, err, model.ErrUsernameExists)

	err = users.Create(context.Background(), &model.User{Username: "other", Email: "alice@example.com"})
	assert.ErrorIs(t, err, model.ErrEmailExists)
	assert.Equal(t, 1, s.UserCount())

	// emails compare exactly, like the users_email_key constraint
	err = users.Create(context.Background(), &model.User{Username: "other", Email: "ALICE@example.com"})
	assert.NoError(t, err)
	assert.Equal(t, 2, s.UserCount())
}

func TestMessages_FeedOrderingAndCap(t *testing.T) {
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	viewer := mustCreateUser(t, s, "viewer")
	followed := mustCreateUser(t, s, "followed")
	stranger := mustCreateUser(t, s, "stranger")

	_, err := repos.Follows.Create(ctx, viewer.ID, followed.ID)
	require.NoError(t, err)

	for i := 0; i < model.TimelineLimit+5; i++ {
		_, err := repos.Messages.Create(ctx, followed.ID, "hi")
		require.NoError(t, err)
	}
	_, err = repos.Messages.Create(ctx, stranger.ID, "not for you")
	require.NoError(t, err)
	_, err = repos.Messages.Create(ctx, viewer.ID, "my own")
	require.NoError(t, err)

	feed, err := repos.Messages.GetFeed(ctx, viewer.ID, model.TimelineLimit)
	require.NoError(t, err)
	require.Len(t, feed, model.TimelineLimit)

	for i, m := range feed {
		assert.Equal(t, followed.ID, m.UserID)
		assert.Equal(t, "followed", m.Author.Username)
		if i > 0 {
			assert.True(t, feed[i-1].Timestamp.After(m.Timestamp))
		}
	}

	scores, err := repos.Messages.GetFeedScores(ctx, viewer.ID, model.TimelineLimit)
	require.NoError(t, err)
	require.Len(t, scores, model.TimelineLimit)
	assert.Equal(t, feed[0].ID, scores[0].MessageID)
}

func TestUsers_DeleteCascades(t *testing.T) {
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")

	msg, err := repos.Messages.Create(ctx, alice.ID, "bye")
	require.NoError(t, err)
	_, err = repos.Likes.Toggle(ctx, bob.ID, msg.ID)
	require.NoError(t, err)
	_, err = repos.Follows.Create(ctx, bob.ID, alice.ID)
	require.NoError(t, err)

	require.NoError(t, repos.Users.Delete(ctx, alice.ID))

	assert.Equal(t, 0, s.MessageCount())
	liked, err := repos.Likes.GetLikedMessages(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, liked)

	stats, err := repos.Users.GetStats(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, model.UserStats{}, stats)
}

func TestLikes_Toggle(t *testing.T) {
	s := newTestStore(t)
	repos := s.Repositories()
	ctx := context.Background()

	alice := mustCreateUser(t, s, "alice")
	msg, err := repos.Messages.Create(ctx, alice.ID, "like me")
	require.NoError(t, err)

	liked, err := repos.Likes.Toggle(ctx, alice.ID, msg.ID)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = repos.Likes.Toggle(ctx, alice.ID, msg.ID)
	require.NoError(t, err)
	assert.False(t, liked)

	_, err = repos.Likes.Toggle(ctx, alice.ID, 999)
	assert.ErrorIs(t, err, model.ErrMessageNotFound)
}

func TestFollows_SelfAndUnknown(t *testing.T) {
	s := newTestStore(t)
	follows := s.Repositories().Follows
	alice := mustCreateUser(t, s, "alice")

	_, err := follows.Create(context.Background(), alice.ID, alice.ID)
	assert.ErrorIs(t, err, model.ErrCannotFollowSelf)

	_, err = follows.Create(context.Background(), alice.ID, 404)
	assert.ErrorIs(t, err, model.ErrUserNotFound)
}
