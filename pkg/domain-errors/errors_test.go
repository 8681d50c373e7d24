package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches direct coded error", func(t *testing.T) {
		err := New(CodeConflict, "already registered")
		assert.True(t, HasCode(err, CodeConflict))
		assert.False(t, HasCode(err, CodeNotFound))
	})

	t.Run("matches through fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("outer: %w", New(CodeNotFound, "missing"))
		assert.True(t, HasCode(err, CodeNotFound))
	})

	t.Run("outermost code wins", func(t *testing.T) {
		inner := New(CodeNotFound, "missing")
		err := Wrap(inner, CodeInternal, "load failed")
		assert.True(t, HasCode(err, CodeInternal))
		assert.True(t, errors.Is(err, inner))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		_, ok := CodeOf(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("disk full"), CodeInternal, "save failed")
	assert.Equal(t, "save failed: disk full", err.Error())
	assert.Equal(t, "plain", New(CodeValidation, "plain").Error())
}

func TestIsMatchesByCodeAndMessage(t *testing.T) {
	reason := New(CodeInvalidState, "policy is not active")
	err := fmt.Errorf("subscribe: %w", reason)

	assert.ErrorIs(t, err, New(CodeInvalidState, "policy is not active"))
	assert.NotErrorIs(t, err, New(CodeInvalidState, "subscription is cancelled"))
	assert.NotErrorIs(t, err, New(CodeConflict, "policy is not active"))
}
