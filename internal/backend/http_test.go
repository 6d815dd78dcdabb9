package backend_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/backend/backendtest"
	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/limits"
)

type wireRequest struct {
	ID         uint64 `json:"id"`
	Function   string `json:"function"`
	Parameters []any  `json:"parameters"`
}

func echoServer(t *testing.T, result func(req wireRequest) []any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/usdpl/call", r.URL.Path)

		var req wireRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"id": req.ID, "result": result(req)})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func TestHTTPInvokerRoundTrip(t *testing.T) {
	var seen wireRequest
	srv := echoServer(t, func(req wireRequest) []any {
		seen = req
		return []any{1400, 3500}
	})

	inv, err := backend.NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)
	gw := backend.NewGateway(inv)

	lo, hi, err := gw.SetCPUClockLimits(context.Background(), 2, 1400, 3500)
	require.NoError(t, err)
	assert.Equal(t, 1400, lo)
	assert.Equal(t, 3500, hi)

	assert.Equal(t, backend.CallCPUSetClockLimits, seen.Function)
	assert.Len(t, seen.Parameters, 3)
	assert.NotZero(t, seen.ID)
}

func TestHTTPInvokerEmptyParameters(t *testing.T) {
	var raw map[string]json.RawMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&raw)
		var id uint64
		_ = json.Unmarshal(raw["id"], &id)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": id, "result": []any{"Default"}})
	}))
	defer srv.Close()

	inv, err := backend.NewHTTPInvoker(srv.URL, nil)
	require.NoError(t, err)

	res, err := inv.Invoke(context.Background(), backend.CallGeneralGetName, nil)
	require.NoError(t, err)
	assert.Equal(t, []any{"Default"}, res)
	assert.JSONEq(t, `[]`, string(raw["parameters"]))
}

func TestHTTPInvokerStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no such function", http.StatusNotFound)
	}))
	defer srv.Close()

	inv, err := backend.NewHTTPInvoker(srv.URL, nil)
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), backend.CallInfo, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrRemoteStatus))
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPInvokerMismatchedID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 999999, "result": []any{}})
	}))
	defer srv.Close()

	inv, err := backend.NewHTTPInvoker(srv.URL, nil)
	require.NoError(t, err)

	_, err = inv.Invoke(context.Background(), backend.CallInfo, nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrMismatchedID))
}

func TestHTTPInvokerHonorsCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	inv, err := backend.NewHTTPInvoker(srv.URL, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := inv.Invoke(ctx, backend.CallGeneralWaitForUnlocks, nil)
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		require.Error(t, err)
		assert.True(t, errors.HasCode(err, backend.ErrTransport))
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("invoke did not return after cancellation")
	}
}

func TestNewHTTPInvokerAddress(t *testing.T) {
	tests := []struct {
		addr string
		want string
	}{
		{"", "http://127.0.0.1:44443"},
		{"10.0.0.2:44443", "http://10.0.0.2:44443"},
		{"https://deck.local:8443/ignored", "https://deck.local:8443"},
	}

	for _, tt := range tests {
		t.Run(tt.addr, func(t *testing.T) {
			inv, err := backend.NewHTTPInvoker(tt.addr, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, inv.Address())
		})
	}

	_, err := backend.NewHTTPInvoker("http://", nil)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, backend.ErrInvalidAddress))
}

func TestHTTPInvokerAgainstAuthority(t *testing.T) {
	auth := backendtest.NewAuthority(limits.Defaults())
	srv := httptest.NewServer(backendtest.Handler(auth))
	t.Cleanup(srv.Close)

	inv, err := backend.NewHTTPInvoker(srv.URL, srv.Client())
	require.NoError(t, err)
	gw := backend.NewGateway(inv)
	ctx := context.Background()

	l, err := gw.Limits(ctx)
	require.NoError(t, err)
	assert.Equal(t, limits.Defaults().CPU.Count, l.CPU.Count)

	fast, slow, err := gw.SetGPUPPT(ctx, 99000000, 5000000)
	require.NoError(t, err)
	assert.Equal(t, 29000000, fast, "clamped by the authority")
	assert.Equal(t, 5000000, slow)

	onlines, err := gw.SetCPUOnlines(ctx, []bool{true, false, true, false, true, false, true, false})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false, true, false, true, false}, onlines)

	_, err = gw.Call(ctx, backend.CallGeneralGetName, "unexpected")
	assert.True(t, errors.HasCode(err, backend.ErrCallArity))
}
