package session

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/matzehuels/loggraph/pkg/errors"
)

func TestRegistry(t *testing.T) {
	r := NewRegistry(0)
	s := New(Options{})
	r.Add(s)

	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)

	got, err = r.Lookup(s.ID.String())
	require.NoError(t, err)
	assert.Same(t, s, got)

	_, err = r.Lookup("not-a-uuid")
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotFound))
	_, err = r.Get(uuid.New())
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeSessionNotFound))

	assert.Len(t, r.List(), 1)
	r.Delete(s.ID)
	assert.Equal(t, 0, r.Len())
}

func TestRegistryCleanup(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := NewRegistry(time.Hour)
	r.now = func() time.Time { return now }

	idle, busy := New(Options{}), New(Options{})
	r.Add(idle)
	r.Add(busy)

	now = now.Add(45 * time.Minute)
	_, err := r.Get(busy.ID)
	require.NoError(t, err)

	now = now.Add(30 * time.Minute)
	assert.Equal(t, 1, r.Cleanup(context.Background()))

	_, err = r.Get(idle.ID)
	assert.Error(t, err)
	_, err = r.Get(busy.ID)
	assert.NoError(t, err)
}
