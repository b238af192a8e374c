package otp

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCodec_GenerateCode(t *testing.T) {
	codec := NewCodec(zap.NewNop())

	t.Run("default length", func(t *testing.T) {
		code, err := codec.GenerateCode(0)
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9]{6}$`), code)
	})

	t.Run("custom length is zero padded", func(t *testing.T) {
		for i := 0; i < 200; i++ {
			code, err := codec.GenerateCode(8)
			require.NoError(t, err)
			assert.Len(t, code, 8)
			assert.Regexp(t, regexp.MustCompile(`^[0-9]{8}$`), code)
		}
	})

	t.Run("short codes cover small values", func(t *testing.T) {
		seen := map[string]bool{}
		for i := 0; i < 500; i++ {
			code, err := codec.GenerateCode(1)
			require.NoError(t, err)
			seen[code] = true
		}
		assert.Greater(t, len(seen), 5)
	})
}

func TestCodec_HashCode(t *testing.T) {
	codec := NewCodec(zap.NewNop())

	first := codec.HashCode("123456")
	second := codec.HashCode("123456")
	other := codec.HashCode("654321")

	assert.Equal(t, first, second)
	assert.NotEqual(t, first, other)
	assert.Len(t, first, 64)
	assert.NotContains(t, first, "123456")
}

func TestCodec_Matches(t *testing.T) {
	codec := NewCodec(zap.NewNop())
	digest := codec.HashCode("042042")

	assert.True(t, codec.Matches("042042", digest))
	assert.False(t, codec.Matches("42042", digest))
	assert.False(t, codec.Matches("000000", digest))
	assert.False(t, codec.Matches("042042", ""))
}

func TestCodec_ExpiryAt(t *testing.T) {
	codec := NewCodec(zap.NewNop())
	from := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, from.Add(5*time.Minute), codec.ExpiryAt(from, 5*time.Minute))
}
