package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapRoundTrip(t *testing.T) {
	m := JSONMap{"moderationCategories": []interface{}{
		map[string]interface{}{"name": "Toxic", "confidence": 0.75},
	}}

	value, err := m.Value()
	require.NoError(t, err)

	var scanned JSONMap
	require.NoError(t, scanned.Scan(value))
	assert.Contains(t, scanned, "moderationCategories")
}

func TestJSONMapNilIsNull(t *testing.T) {
	var m JSONMap
	value, err := m.Value()
	require.NoError(t, err)
	assert.Nil(t, value, "nil map persists as SQL NULL")

	var scanned JSONMap
	require.NoError(t, scanned.Scan(nil))
	assert.Nil(t, scanned)
}

func TestJSONMapScanRejectsGarbage(t *testing.T) {
	var scanned JSONMap
	assert.Error(t, scanned.Scan("not json"))
	assert.Error(t, scanned.Scan(42))
}

func TestCommentStatusValid(t *testing.T) {
	for _, status := range []CommentStatus{StatusUnderReview, StatusApproved, StatusFlagged, StatusRejected} {
		assert.True(t, status.Valid(), string(status))
	}
	assert.False(t, CommentStatus("PUBLISHED").Valid())
	assert.False(t, CommentStatus("").Valid())
}
