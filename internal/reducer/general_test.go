package reducer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/powerctl/internal/backend"
	"codeberg.org/mutker/powerctl/internal/backend/backendtest"
	"codeberg.org/mutker/powerctl/internal/limits"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"codeberg.org/mutker/powerctl/internal/reducer"
	"codeberg.org/mutker/powerctl/internal/settings"
	"codeberg.org/mutker/powerctl/internal/state"
)

func TestLoadSystemDefaults(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	mirror.Set(env.Store, settings.GeneralPersistent, true)
	var reloads []int
	env.Reload = func(context.Context) error {
		reloads = append(reloads, len(auth.Calls()))
		mirror.Set(env.Store, settings.GeneralName, "System")
		return nil
	}
	s, err := state.LoadGeneral(env.Store)
	require.NoError(t, err)

	got, err := reducer.General(context.Background(), env, s, reducer.LoadSystemDefaults{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		backend.CallGeneralSetPersistent,
		backend.CallGeneralLoadSystem,
		backend.CallGeneralWaitForUnlocks,
	}, auth.Names())
	assert.Equal(t, []int{2}, reloads, "reload runs between loading and waiting")
	assert.False(t, got.Persistent)
	assert.Equal(t, "System", got.Name)
}

func TestSetPersistent(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	s, err := state.LoadGeneral(env.Store)
	require.NoError(t, err)

	got, err := reducer.General(context.Background(), env, s, reducer.SetPersistent{On: true})
	require.NoError(t, err)
	assert.True(t, got.Persistent)
	assert.True(t, auth.State().Persistent)
}

func TestApplyNowKeepsSnapshot(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	s, err := state.LoadGeneral(env.Store)
	require.NoError(t, err)

	got, err := reducer.General(context.Background(), env, s, reducer.ApplyNow{})
	require.NoError(t, err)
	assert.Equal(t, s.Rev(), got.Rev())
	assert.Equal(t, 1, auth.Count(backend.CallGeneralApplyNow))
}

func TestDismissMessage(t *testing.T) {
	env, auth := newEnv(t, limits.Defaults())
	one, two := int64(1), int64(2)
	msgs := []settings.Message{{ID: &one, Title: "a"}, {ID: &two, Title: "b"}}
	auth.Update(func(s *backendtest.State) { s.Messages = append([]settings.Message(nil), msgs...) })
	mirror.Set(env.Store, settings.Messages, msgs)
	s, err := state.LoadGeneral(env.Store)
	require.NoError(t, err)

	got, err := reducer.General(context.Background(), env, s, reducer.DismissMessage{ID: 1})
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "b", got.Messages[0].Title)
	assert.Len(t, msgs, 2, "mirror slice is not edited in place")

	same, err := reducer.General(context.Background(), env, got, reducer.DismissMessage{ID: 9})
	require.NoError(t, err)
	assert.Equal(t, got.Rev(), same.Rev())
}
