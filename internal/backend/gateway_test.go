package backend_test

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/backend/backendtest"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/settings"
)

func TestGatewayRejectsUnknownCall(t *testing.T) {
	fake := backendtest.New()
	gw := backend.NewGateway(fake)

	_, err := gw.Call(context.Background(), "GENERAL_idk")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrUnknownCall))
	assert.Empty(t, fake.Calls(), "nothing reaches the invoker")
}

func TestGatewayRejectsWrongArity(t *testing.T) {
	fake := backendtest.New()
	gw := backend.NewGateway(fake)

	_, err := gw.Call(context.Background(), backend.CallCPUSetClockLimits, 0, 1400)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrCallArity))
	assert.Empty(t, fake.Calls())
}

func TestGatewayVariadicOnlines(t *testing.T) {
	fake := backendtest.New().On(backend.CallCPUSetOnlines, func(_ context.Context, args []any) ([]any, error) {
		return args, nil
	})
	gw := backend.NewGateway(fake)

	got, err := gw.SetCPUOnlines(context.Background(), []bool{true, false, true})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, got)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []any{true, false, true}, calls[0].Args)
}

func TestGatewayWrapsInvokerErrors(t *testing.T) {
	fake := backendtest.New().Fail(backend.CallGPUSetPPT, io.ErrUnexpectedEOF)
	gw := backend.NewGateway(fake)

	_, _, err := gw.SetGPUPPT(context.Background(), 15000000, 15000000)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrRemoteCall))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), backend.CallGPUSetPPT)
}

func TestGatewayDecodesNumbers(t *testing.T) {
	tests := []struct {
		name   string
		result any
		want   int
	}{
		{"int", 1500, 1500},
		{"float", 1500.0, 1500},
		{"json number", json.Number("1500"), 1500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := backendtest.New().Return(backend.CallBatterySetChargeRate, tt.result)
			gw := backend.NewGateway(fake)

			got, err := gw.SetBatteryChargeRate(context.Background(), 1500)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGatewayNullableResults(t *testing.T) {
	fake := backendtest.New().
		Return(backend.CallBatteryGetChargeRate, nil).
		Return(backend.CallGPUGetPPT).
		Return(backend.CallCPUGetClockLimits, 1400, nil)
	gw := backend.NewGateway(fake)
	ctx := context.Background()

	rate, err := gw.BatteryChargeRate(ctx)
	require.NoError(t, err)
	assert.Nil(t, rate)

	fast, slow, err := gw.GPUPPT(ctx)
	require.NoError(t, err)
	assert.Nil(t, fast)
	assert.Nil(t, slow)

	lo, hi, err := gw.CPUClockLimits(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, lo)
	assert.Equal(t, 1400, *lo)
	assert.Nil(t, hi)
}

func TestGatewayDecodeMismatch(t *testing.T) {
	fake := backendtest.New().Return(backend.CallGeneralGetPersistent, "set_persistent missing parameter")
	gw := backend.NewGateway(fake)

	_, err := gw.Persistent(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrDecode))
}

func TestGatewayLimitsFromJSON(t *testing.T) {
	var generic any
	raw, err := json.Marshal(limits.Defaults())
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &generic))

	fake := backendtest.New().Return(backend.CallGeneralGetLimits, generic)
	gw := backend.NewGateway(fake)

	got, err := gw.Limits(context.Background())
	require.NoError(t, err)
	assert.Equal(t, limits.Defaults(), got)
}

func TestGatewayMessages(t *testing.T) {
	id := int64(3)
	fake := backendtest.New().
		Return(backend.CallMessageGet, map[string]any{"id": 3, "title": "Update", "body": "New limits", "url": nil})
	gw := backend.NewGateway(fake)

	msgs, err := gw.Messages(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, settings.Message{ID: &id, Title: "Update", Body: "New limits"}, msgs[0])
	assert.Equal(t, []any{nil}, fake.Calls()[0].Args)
}

func TestCatalogueArity(t *testing.T) {
	for _, name := range backend.Calls() {
		n, ok := backend.Arity(name)
		require.True(t, ok, name)
		assert.GreaterOrEqual(t, n, backend.Variadic, name)
	}

	n, _ := backend.Arity(backend.CallCPUSetOnlines)
	assert.Equal(t, backend.Variadic, n)
	_, ok := backend.Arity("LOG")
	assert.False(t, ok)
}
