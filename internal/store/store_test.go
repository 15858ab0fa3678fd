// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.StoreConfig{Dir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func testResult(key, topic string, confidence float64, ts time.Time) *types.TopicResearchResult {
	return &types.TopicResearchResult{
		Topic:    topic,
		RunID:    "run-" + key,
		CacheKey: key,
		Content: types.GeneratedContent{
			Title:    "Understanding " + topic,
			Sections: []types.ContentSection{{Title: "Overview", Content: "Body.", Tier: types.TierFoundation}},
		},
		Metadata:  types.ResearchMetadata{ConfidenceScore: confidence},
		Timestamp: ts,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	s := testStore(t)
	in := testResult("gardening-general", "gardening", 0.83, time.Now().UTC())
	require.NoError(t, s.Put(in))

	out, err := s.Get("gardening-general")
	require.NoError(t, err)

	assert.Equal(t, in.Topic, out.Topic)
	assert.Equal(t, in.RunID, out.RunID)
	assert.Equal(t, in.Content.Title, out.Content.Title)
	assert.Equal(t, in.Metadata.ConfidenceScore, out.Metadata.ConfidenceScore)
}

func TestGetMiss(t *testing.T) {
	s := testStore(t)
	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPutReplacesExisting(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(testResult("k", "topic", 0.5, time.Now().UTC())))
	require.NoError(t, s.Put(testResult("k", "topic", 0.9, time.Now().UTC())))

	out, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, 0.9, out.Metadata.ConfidenceScore)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.Put(testResult("old", "old topic", 0.5, base)))
	require.NoError(t, s.Put(testResult("new", "new topic", 0.7, base.Add(time.Hour))))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "new", entries[0].CacheKey)
	assert.Equal(t, "old", entries[1].CacheKey)
	assert.Equal(t, 0.7, entries[0].Confidence)
	assert.Equal(t, base.Add(time.Hour), entries[0].CreatedAt)
}

func TestDelete(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(testResult("k", "topic", 0.5, time.Now().UTC())))
	require.NoError(t, s.Delete("k"))

	_, err := s.Get("k")
	assert.True(t, errors.Is(err, ErrNotFound))

	// Deleting a missing key is not an error.
	assert.NoError(t, s.Delete("k"))
}

func TestClear(t *testing.T) {
	s := testStore(t)
	require.NoError(t, s.Put(testResult("a", "t1", 0.5, time.Now().UTC())))
	require.NoError(t, s.Put(testResult("b", "t2", 0.6, time.Now().UTC())))

	n, err := s.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestOpenCreatesDirectory(t *testing.T) {
	dir := t.TempDir() + "/nested/cache"
	s, err := Open(types.StoreConfig{Dir: dir})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(testResult("k", "topic", 0.5, time.Now().UTC())))
}
