package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemory_InsertQueryUpdateDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	id, err := m.Insert(ctx, "consultations", Record{"id": "c-1", "email": "a@b.co", "status": "new"})
	require.NoError(t, err)
	assert.Equal(t, "c-1", id)

	got, err := m.QueryOne(ctx, "consultations", "email", "a@b.co")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "new", got["status"])

	// returned rows are copies
	got["status"] = "mutated"
	again, _ := m.QueryOne(ctx, "consultations", "id", "c-1")
	assert.Equal(t, "new", again["status"])

	ok, err := m.Update(ctx, "consultations", "c-1", Record{"status": "contacted"})
	require.NoError(t, err)
	assert.True(t, ok)
	again, _ = m.QueryOne(ctx, "consultations", "id", "c-1")
	assert.Equal(t, "contacted", again["status"])
	assert.IsType(t, time.Time{}, again["updated_at"])

	ok, err = m.Update(ctx, "consultations", "missing", Record{"status": "x"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = m.Delete(ctx, "consultations", "c-1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = m.Delete(ctx, "consultations", "c-1")
	assert.False(t, ok)

	none, err := m.QueryOne(ctx, "consultations", "id", "c-1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestMemory_InsertRejects(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	generated, err := m.Insert(ctx, "consultations", Record{"email": "x"})
	require.NoError(t, err)
	assert.Len(t, generated, 36)

	_, err = m.Insert(ctx, "consultations; DROP TABLE users", Record{"id": "1"})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = m.Insert(ctx, "consultations", Record{"id": "1", "Bad-Column": "x"})
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))

	_, err = m.Insert(ctx, "consultations", Record{"id": "1"})
	require.NoError(t, err)
	_, err = m.Insert(ctx, "consultations", Record{"id": "1"})
	assert.True(t, errors.Is(err, ErrDuplicate))

	_, err = m.QueryOne(ctx, "consultations", "1=1 OR id", "x")
	assert.True(t, errors.Is(err, ErrInvalidIdentifier))
}

func TestMemory_ListNewestFirstAndBounded(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		_, err := m.Insert(ctx, "job_applications", Record{
			"id":         fmt.Sprintf("j-%03d", i),
			"created_at": base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	rows, err := m.List(ctx, "job_applications", ListOptions{})
	require.NoError(t, err)
	require.Len(t, rows, DefaultListLimit)
	assert.Equal(t, "j-119", rows[0]["id"])
	assert.Equal(t, "j-020", rows[99]["id"])

	rows, err = m.List(ctx, "job_applications", ListOptions{Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, rows, MaxListLimit)

	rows, err = m.List(ctx, "job_applications", ListOptions{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = m.List(ctx, "empty_table", ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestValidIdentifier(t *testing.T) {
	for _, s := range []string{"users", "job_applications", "_tmp", "t2"} {
		assert.True(t, ValidIdentifier(s), s)
	}
	for _, s := range []string{"", "Users", "2t", "a-b", "a b", "a;b", `a"b`} {
		assert.False(t, ValidIdentifier(s), s)
	}
}
