package mirror_test

import (
	"sync"
	"testing"

	"codeberg.org/mutker/powerctl/internal/errors"
	"codeberg.org/mutker/powerctl/internal/mirror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	chargeRate = mirror.NewKey[*int]("BATTERY_charge_rate")
	profile    = mirror.NewKey[string]("GENERAL_name")
	onlines    = mirror.NewKey[[]bool]("CPUs_status_online")
)

func TestGetReturnsDefaultUntilSet(t *testing.T) {
	s := mirror.New()

	assert.Equal(t, "fallback", mirror.Get(s, profile, "fallback"))

	mirror.Set(s, profile, "Default")
	assert.Equal(t, "Default", mirror.Get(s, profile, "fallback"))
}

func TestNullValuesArePopulated(t *testing.T) {
	s := mirror.New()
	mirror.Set[*int](s, chargeRate, nil)

	v, ok := mirror.Lookup(s, chargeRate)
	assert.True(t, ok, "nil is a value meaning disabled, not absence")
	assert.Nil(t, v)
	assert.NoError(t, s.Require(chargeRate.Name()))
}

func TestMustPanicsOnMissing(t *testing.T) {
	s := mirror.New()

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.HasCode(err, errors.ErrMissingSetting))
		assert.Contains(t, err.Error(), "CPUs_status_online")
	}()

	_ = mirror.Must(s, onlines)
}

func TestRequireListsMissing(t *testing.T) {
	s := mirror.New()
	mirror.Set(s, profile, "x")

	err := s.Require(profile.Name(), onlines.Name(), chargeRate.Name())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrMissingSetting))
	assert.Contains(t, err.Error(), "CPUs_status_online")
	assert.Contains(t, err.Error(), "BATTERY_charge_rate")
	assert.NotContains(t, err.Error(), "GENERAL_name")
}

func TestVersionCountsWrites(t *testing.T) {
	s := mirror.New()
	require.Zero(t, s.Version())

	mirror.Set(s, profile, "a")
	mirror.Set(s, profile, "a")
	assert.Equal(t, uint64(2), s.Version())
	assert.Equal(t, []string{"GENERAL_name"}, s.Names())
}

func TestConcurrentAccess(t *testing.T) {
	s := mirror.New()
	var wg sync.WaitGroup

	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			mirror.Set(s, chargeRate, &i)
		}(i)
		go func() {
			defer wg.Done()
			_ = mirror.Get[*int](s, chargeRate, nil)
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(8), s.Version())
}
