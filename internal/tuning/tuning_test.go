package tuning

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	got, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadEmptyPathYieldsDefaults(t *testing.T) {
	got, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), got)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9999"
tick_ms: 100
offline_cap_hours: 2
`), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", got.Addr)
	assert.Equal(t, 100, got.TickMs)
	assert.Equal(t, 2.0, got.OfflineCapHours)
	// Untouched keys keep their defaults.
	assert.Equal(t, Default().AutosaveSeconds, got.AutosaveSeconds)
	assert.Equal(t, Default().SaveDBPath, got.SaveDBPath)
}

func TestLoadBrokenFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte("tick_ms: [not a number"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSanitizedRepairsNonsense(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
tick_ms: -5
update_rate_hz: 0
offline_cap_hours: -1
`), 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, d.TickMs, got.TickMs)
	assert.Equal(t, d.UpdateRateHz, got.UpdateRateHz)
	assert.Equal(t, d.OfflineCapHours, got.OfflineCapHours)
}
