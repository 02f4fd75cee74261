package store

import (
	"context"

	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveDocument_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	doc := testDocument("Beijing")

	id, inserted, err := s.SaveDocument(ctx, doc)
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Equal(t, doc.MustDocumentID(), id)

	back, err := s.LoadDocument(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, back.MustDocumentID())
	assert.Equal(t, "Beijing", back.Stages[0].DestinationCity)
	assert.NotNil(t, back.Stages[0].RestaurantConstraints)
}

func TestSaveDocument_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	id1, inserted1, err := s.SaveDocument(ctx, testDocument("Beijing"))
	require.NoError(t, err)
	id2, inserted2, err := s.SaveDocument(ctx, testDocument("Beijing"))
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.True(t, inserted1)
	assert.False(t, inserted2)

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestLoadDocument_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.LoadDocument(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestListDocuments_SaveOrder(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	empty, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var ids []string
	for _, city := range []string{"Xi'an", "Beijing", "Chengdu"} {
		id, _, err := s.SaveDocument(ctx, testDocument(city))
		require.NoError(t, err)
		ids = append(ids, id)
	}

	docs, err := s.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	for i, d := range docs {
		assert.Equal(t, ids[i], d.ID)
		assert.Equal(t, int64(i+1), d.Seq)
		assert.Equal(t, "2026-05-01", d.StartDate)
		assert.Equal(t, 1, d.StageCount)
	}
}

func TestHasDocument(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	ok, err := s.HasDocument(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	id, _, err := s.SaveDocument(ctx, testDocument("Beijing"))
	require.NoError(t, err)
	ok, err = s.HasDocument(ctx, id)
	require.NoError(t, err)
	assert.True(t, ok)
}
