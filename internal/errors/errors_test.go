package errors_test

import (
	"fmt"
	"io"
	"testing"

	"codeberg.org/mutker/powerctl/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	errFactory := errors.New()

	tests := []struct {
		name string
		err  errors.Error
		want string
	}{
		{"default message", errFactory.New(errors.ErrUnhandledAction), "Unhandled action"},
		{"custom message", errFactory.WithMessage(errors.ErrInternal, "boom"), "boom"},
		{"with data", errFactory.WithData(errors.ErrUnhandledAction, "battery: *reducer.SetFastPPT"), "Unhandled action: battery: *reducer.SetFastPPT"},
		{"wrapped", errFactory.Wrap(errors.ErrRemoteCall, io.EOF), "Remote call failed: EOF"},
		{"unknown code", errFactory.New(errors.ErrorCode("mystery")), "mystery"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsMatchesByCode(t *testing.T) {
	errFactory := errors.New()
	err := fmt.Errorf("dispatch: %w", errFactory.Wrap(errors.ErrRemoteCall, io.EOF))

	assert.True(t, errors.Is(err, errFactory.New(errors.ErrRemoteCall)))
	assert.False(t, errors.Is(err, errFactory.New(errors.ErrMissingSetting)))
	assert.True(t, errors.Is(err, io.EOF), "wrapped cause should stay reachable")
}

func TestHasCodeAndCodeOf(t *testing.T) {
	errFactory := errors.New()
	inner := errFactory.New(errors.ErrCallArity)
	outer := errFactory.Wrap(errors.ErrRemoteCall, inner)

	assert.True(t, errors.HasCode(outer, errors.ErrCallArity))
	assert.True(t, errors.HasCode(outer, errors.ErrRemoteCall))
	assert.False(t, errors.HasCode(outer, errors.ErrTimeout))
	assert.Equal(t, errors.ErrRemoteCall, errors.CodeOf(outer))
	assert.Equal(t, errors.ErrInternal, errors.CodeOf(io.EOF))
}

func TestWithDataKeepsCode(t *testing.T) {
	err := errors.New().Wrap(errors.ErrRemoteCall, io.EOF).WithData("GPU_set_ppt")

	require.Equal(t, errors.ErrRemoteCall, err.Code())
	assert.Equal(t, "GPU_set_ppt", err.GetData())
	assert.ErrorIs(t, err, io.EOF)
}
