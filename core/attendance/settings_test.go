package attendance

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memSettings struct {
	zone   *Zone
	window *bool
	err    error
}

func (m *memSettings) LoadZone(context.Context) (Zone, error) {
	if m.err != nil {
		return Zone{}, m.err
	}
	if m.zone == nil {
		return Zone{}, ErrSettingNotFound
	}
	return *m.zone, nil
}

func (m *memSettings) LoadWindow(context.Context) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.window == nil {
		return false, errors.Wrap(ErrSettingNotFound, "attendance_window")
	}
	return *m.window, nil
}

func (m *memSettings) SaveZone(_ context.Context, zone Zone) error {
	m.zone = &zone
	return m.err
}

func (m *memSettings) SaveWindow(_ context.Context, open bool) error {
	m.window = &open
	return m.err
}

func TestSettingsStore(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		for _, defaultOpen := range []bool{true, false} {
			store := NewSettingsStore(&memSettings{}, defaultOpen)
			zone, err := store.GetZone(ctx)
			require.NoError(t, err)
			assert.False(t, zone.IsConfigured())

			open, err := store.GetWindow(ctx)
			require.NoError(t, err)
			assert.Equal(t, defaultOpen, open)
		}
	})

	t.Run("saved values", func(t *testing.T) {
		store := NewSettingsStore(&memSettings{}, true)
		require.NoError(t, store.SaveZone(ctx, campusZone))
		require.NoError(t, store.SaveWindow(ctx, false))

		zone, err := store.GetZone(ctx)
		require.NoError(t, err)
		assert.Equal(t, campusZone, zone)

		open, err := store.GetWindow(ctx)
		require.NoError(t, err)
		assert.False(t, open)
	})

	t.Run("repository errors", func(t *testing.T) {
		errBoom := errors.New("boom")
		store := NewSettingsStore(&memSettings{err: errBoom}, true)
		_, err := store.GetZone(ctx)
		assert.Equal(t, errBoom, errors.Cause(err))
		_, err = store.GetWindow(ctx)
		assert.Equal(t, errBoom, errors.Cause(err))
	})
}
