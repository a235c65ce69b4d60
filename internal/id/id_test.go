package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	ids := make(map[string]bool)
	count := 1000

	for i := 0; i < count; i++ {
		id, err := Generate(PrefixBugReport)
		require.NoError(t, err)
		assert.False(t, ids[id], "ID should be unique: %s", id)
		ids[id] = true
	}

	assert.Len(t, ids, count)
}

func TestGenerate_Format(t *testing.T) {
	id, err := Generate(PrefixBugReport)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(id, "bug-"))
	assert.Len(t, id, len("bug-")+21)
	assert.True(t, Valid(PrefixBugReport, id))
}

func TestMustGenerate(t *testing.T) {
	id := MustGenerate("test")
	assert.True(t, Valid("test", id))
}

func TestValid(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{"good", "bug-V1StGXR8_Z5jdHi6B-myT", true},
		{"wrong prefix", "rep-V1StGXR8_Z5jdHi6B-myT", false},
		{"too short", "bug-V1StGXR8", false},
		{"bad alphabet", "bug-V1StGXR8_Z5jdHi6B-my!", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Valid(PrefixBugReport, tt.in))
		})
	}
}

func BenchmarkGenerate(b *testing.B) {
	for b.Loop() {
		_, _ = Generate("bench")
	}
}
