package mesto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[ID]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		assert.Len(t, id.String(), 24)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestParseID(t *testing.T) {
	id := NewID()

	got, err := ParseID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, got)

	got, err = ParseID("  507F1F77BCF86CD799439011 ")
	require.NoError(t, err)
	assert.Equal(t, ID("507f1f77bcf86cd799439011"), got)

	for _, bad := range []string{"", "123", "zzzzzzzzzzzzzzzzzzzzzzzz", "507f1f77bcf86cd7994390111"} {
		_, err := ParseID(bad)
		assert.Equal(t, KindBadRequest, KindOf(err), "input %q", bad)
	}
}

func TestID_IsZero(t *testing.T) {
	assert.True(t, ID("").IsZero())
	assert.False(t, NewID().IsZero())
}
