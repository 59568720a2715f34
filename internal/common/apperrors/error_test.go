package apperrors

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError(t *testing.T) {
	t.Run("hierarchy", func(t *testing.T) {
		ErrBaseErr := New("base error")
		assert.Equal(t, "base error", ErrBaseErr.Error())
		assert.Equal(t, "msg", ErrBaseErr.New("msg").Error())
		assert.ErrorIs(t, ErrBaseErr, ErrBaseErr)

		ErrFirstLevel := ErrBaseErr.New("first level")
		assert.Equal(t, "first level", ErrFirstLevel.Error())
		assert.ErrorIs(t, ErrFirstLevel, ErrBaseErr)

		ErrAnotherErr := New("another error")
		ErrWrappedErr := ErrFirstLevel.Err(ErrAnotherErr)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, ErrFirstLevel)
		assert.ErrorIs(t, ErrWrappedErr, ErrAnotherErr)

		err := errors.New("error")
		ErrWrappedErr = ErrFirstLevel.Err(err)
		assert.Equal(t, "first level", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)

		ErrWrappedErr = ErrFirstLevel.MsgErr("msg", err)
		assert.Equal(t, "msg", ErrWrappedErr.Error())
		assert.ErrorIs(t, ErrWrappedErr, ErrBaseErr)
		assert.ErrorIs(t, ErrWrappedErr, err)
	})

	t.Run("roots are not mutated", func(t *testing.T) {
		ErrRoot := New("root")
		cause := errors.New("cause")
		_ = ErrRoot.Err(cause)
		_ = ErrRoot.Msg("changed")
		assert.Equal(t, "root", ErrRoot.Error())
		assert.Empty(t, ErrRoot.Unwrap())
		assert.NotErrorIs(t, ErrRoot, cause)
	})

	t.Run("siblings do not match", func(t *testing.T) {
		ErrRoot := New("root")
		ErrA := ErrRoot.New("a")
		ErrB := ErrRoot.New("b")
		assert.NotErrorIs(t, ErrA.Msg("x"), ErrB)
		assert.ErrorIs(t, ErrA.Msg("x"), ErrRoot)
	})

	t.Run("prefix suffix and expand", func(t *testing.T) {
		ErrRoot := New("root").SetExpandError(true)
		err := ErrRoot.Prefix("pre").Suffix("post")
		assert.Equal(t, "pre: root: post", err.Error())
		assert.Equal(t, "pre: root: post", err.Error())

		wrapped := ErrRoot.Err(errors.New("one"), errors.New("two"))
		assert.Equal(t, "root: one;two", wrapped.ErrorAll())
		assert.Equal(t, "root", New("plain").New("root").Err(errors.New("x")).ErrorAll())
	})
}
