package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessions_CreateAssignsID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess := &Session{}
	require.NoError(t, s.Sessions().Create(ctx, sess))

	_, err := uuid.Parse(sess.ID)
	assert.NoError(t, err)
	assert.False(t, sess.StartedAt.IsZero())

	got, err := s.Sessions().Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, got.Finished())
	assert.Zero(t, got.Reps)
}

func TestSessions_Finish(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	start := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	sess := &Session{StartedAt: start}
	require.NoError(t, repo.Create(ctx, sess))

	end := start.Add(90 * time.Second)
	sess.EndedAt = &end
	sess.Reps = 12
	sess.ElapsedSeconds = 90
	sess.Rate = 12
	sess.NewBest = true
	require.NoError(t, repo.Finish(ctx, sess))

	got, err := repo.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.True(t, got.Finished())
	assert.True(t, got.EndedAt.Equal(end))
	assert.True(t, got.StartedAt.Equal(start))
	assert.Equal(t, 12, got.Reps)
	assert.Equal(t, 90, got.ElapsedSeconds)
	assert.Equal(t, 12.0, got.Rate)
	assert.True(t, got.NewBest)
}

func TestSessions_FinishUnknown(t *testing.T) {
	s := newTestStore(t)
	err := s.Sessions().Finish(context.Background(), &Session{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions_GetUnknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Sessions().Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessions_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	base := time.Date(2026, 3, 1, 7, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		sess := &Session{StartedAt: base.Add(time.Duration(i) * time.Hour)}
		require.NoError(t, repo.Create(ctx, sess))
		ids = append(ids, sess.ID)
	}

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, ids[2], all[0].ID)
	assert.Equal(t, ids[0], all[2].ID)

	limited, err := repo.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSessions_ListEmpty(t *testing.T) {
	s := newTestStore(t)
	list, err := s.Sessions().List(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, list)
}
