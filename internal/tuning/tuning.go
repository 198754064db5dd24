// Package tuning loads the operational balance config from YAML.
package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning holds the knobs that are ops/balance choices rather than game rules.
// Game-rule constants (debt ceiling, synergy tiers, paydown ratio) live in
// code, not here.
type Tuning struct {
	Addr string `yaml:"addr"`

	TickMs       int     `yaml:"tick_ms"`
	UpdateRateHz float64 `yaml:"update_rate_hz"`

	AutosaveSeconds    int     `yaml:"autosave_seconds"`
	OfflineCapHours    float64 `yaml:"offline_cap_hours"`
	SaveDBPath         string  `yaml:"save_db_path"`
	SessionIdleMinutes int     `yaml:"session_idle_minutes"`
}

// Default returns the reference balance.
func Default() Tuning {
	return Tuning{
		Addr:               ":8080",
		TickMs:             250,
		UpdateRateHz:       10,
		AutosaveSeconds:    3,
		OfflineCapHours:    8,
		SaveDBPath:         "data/saves.db",
		SessionIdleMinutes: 10,
	}
}

// Load reads the tuning file at path. A missing file yields defaults; a
// present-but-broken file is an error (authored config should not silently
// degrade).
func Load(path string) (Tuning, error) {
	t := Default()
	if path == "" {
		return t, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return t, nil
		}
		return t, fmt.Errorf("tuning: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning: parse %s: %w", path, err)
	}
	return t.sanitized(), nil
}

func (t Tuning) sanitized() Tuning {
	d := Default()
	if t.TickMs <= 0 {
		t.TickMs = d.TickMs
	}
	if t.UpdateRateHz <= 0 {
		t.UpdateRateHz = d.UpdateRateHz
	}
	if t.AutosaveSeconds <= 0 {
		t.AutosaveSeconds = d.AutosaveSeconds
	}
	if t.OfflineCapHours <= 0 {
		t.OfflineCapHours = d.OfflineCapHours
	}
	if t.SaveDBPath == "" {
		t.SaveDBPath = d.SaveDBPath
	}
	if t.SessionIdleMinutes <= 0 {
		t.SessionIdleMinutes = d.SessionIdleMinutes
	}
	if t.Addr == "" {
		t.Addr = d.Addr
	}
	return t
}
