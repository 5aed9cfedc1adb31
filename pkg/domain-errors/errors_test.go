package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	base := errors.New("connection refused")

	t.Run("direct code", func(t *testing.T) {
		err := New(CodeNotFound, "missing")
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeInternal))
	})

	t.Run("nested coded errors", func(t *testing.T) {
		err := Wrap(Wrap(base, CodeUnavailable, "feed down"), CodeInternal, "refresh failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, HasCode(err, CodeUnavailable))
		assert.ErrorIs(t, err, base)
	})

	t.Run("through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("monitor: %w", New(CodeUnavailable, "feed down"))
		assert.True(t, Is(err, CodeUnavailable))
		assert.Equal(t, CodeUnavailable, CodeOf(err))
	})

	t.Run("plain error", func(t *testing.T) {
		assert.False(t, HasCode(base, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(base))
		assert.Equal(t, "internal error", MessageOf(base))
	})
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("timeout"), CodeUnavailable, "fetch obligations")
	assert.Equal(t, "fetch obligations: timeout", err.Error())
	assert.Equal(t, "fetch obligations", MessageOf(err))
}
