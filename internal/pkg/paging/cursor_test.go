package paging

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Nanosecond)
	id := uuid.New()

	gotT, gotID, err := DecodeCursor(EncodeCursor(now, id))
	require.NoError(t, err)

	assert.True(t, gotT.Equal(now))
	assert.Equal(t, id, gotID)
}

func TestDecodeCursor_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		cursor string
	}{
		{"not base64", "%%%"},
		{"missing separator", "bm9zZXBhcmF0b3I"},
		{"bad timestamp", EncodeCursor(time.Time{}, uuid.New())[:4] + "x"},
		{"bad uuid part", "MTIzOm5vdC1hLXV1aWQ"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := DecodeCursor(tt.cursor)
			assert.Error(t, err)
		})
	}
}
