package guard_test

import (
	"errors"
	"testing"

	"routeopt/internal/pkg/guard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorGuard_Validate(t *testing.T) {
	errNotConstructed := errors.New("task must be created via NewTask")

	t.Run("constructed_guard_passes", func(t *testing.T) {
		g := guard.NewConstructorGuard()

		require.NoError(t, g.Validate(errNotConstructed))
		require.NoError(t, g.Validate(nil))
	})

	t.Run("zero_value_returns_given_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(errNotConstructed)

		assert.Equal(t, errNotConstructed, err)
	})

	t.Run("zero_value_falls_back_to_default_error", func(t *testing.T) {
		var g guard.ConstructorGuard

		err := g.Validate(nil)

		assert.Equal(t, guard.ErrDefaultConstructorGuard, err)
		assert.Equal(t, "object must be created via its constructor", err.Error())
	})

	t.Run("copies_keep_the_flag", func(t *testing.T) {
		g := guard.NewConstructorGuard()
		copied := g

		require.NoError(t, copied.Validate(errNotConstructed))
	})
}

func TestConstructorGuard_EmbeddedInValueObject(t *testing.T) {
	type vehicleRef struct {
		id    string
		guard guard.ConstructorGuard
	}
	errVehicleRef := errors.New("vehicleRef must be created via newVehicleRef")

	newVehicleRef := func(id string) (vehicleRef, error) {
		if id == "" {
			return vehicleRef{}, errors.New("id is required")
		}
		return vehicleRef{id: id, guard: guard.NewConstructorGuard()}, nil
	}

	ref, err := newVehicleRef("v1")
	require.NoError(t, err)
	require.NoError(t, ref.guard.Validate(errVehicleRef))
	assert.Equal(t, "v1", ref.id)

	_, err = newVehicleRef("")
	require.Error(t, err)

	var literal vehicleRef
	assert.Equal(t, errVehicleRef, literal.guard.Validate(errVehicleRef))
}

func TestConstructorGuard_ConcurrentValidate(t *testing.T) {
	g := guard.NewConstructorGuard()
	done := make(chan struct{})

	for range 50 {
		go func() {
			defer func() { done <- struct{}{} }()
			for range 100 {
				assert.NoError(t, g.Validate(nil))
			}
		}()
	}

	for range 50 {
		<-done
	}
}
