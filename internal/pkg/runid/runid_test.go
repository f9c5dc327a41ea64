package runid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_GeneratesValidUUID(t *testing.T) {
	id := New()

	_, err := uuid.Parse(id)
	require.NoError(t, err)

	assert.NotEqual(t, id, New())
}

func TestFromContext(t *testing.T) {
	tests := []struct {
		name     string
		ctx      context.Context
		expected string
	}{
		{
			name:     "with run ID",
			ctx:      WithRunID(context.Background(), "test-run-123"),
			expected: "test-run-123",
		},
		{
			name:     "without run ID",
			ctx:      context.Background(),
			expected: "",
		},
		{
			name:     "wrong value type",
			ctx:      context.WithValue(context.Background(), RunIDKey, 42),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FromContext(tt.ctx))
		})
	}
}
