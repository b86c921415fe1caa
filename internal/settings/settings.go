// Package settings persists user configuration as versioned JSON.
//
// The schema carries an integer version; migration is forward-only. A
// migrated document is only rewritten when the caller saves.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/okian/gc2link/internal/domain/model"
)

// CurrentVersion of the settings schema.
const CurrentVersion = 2

// Settings is the full persisted document.
type Settings struct {
	Version   int               `json:"version"`
	Mode      string            `json:"mode"` // "remote" or "local"
	Remote    RemoteSettings    `json:"remote"`
	Device    DeviceSettings    `json:"device"`
	UI        UISettings        `json:"ui"`
	OpenRange OpenRangeSettings `json:"open_range"`
}

// RemoteSettings configures the simulator connection.
type RemoteSettings struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	AutoConnect bool   `json:"auto_connect"`
}

// DeviceSettings configures the launch monitor.
type DeviceSettings struct {
	AutoConnect    bool `json:"auto_connect"`
	RejectZeroSpin bool `json:"reject_zero_spin"`
	UseMock        bool `json:"use_mock"`
}

// UISettings is opaque to the core; persisted for the frontend.
type UISettings struct {
	Theme        string `json:"theme"`
	ShowHistory  bool   `json:"show_history"`
	HistoryLimit int    `json:"history_limit"`
}

// OpenRangeSettings configures the local simulation.
type OpenRangeSettings struct {
	Conditions     ConditionSettings `json:"conditions"`
	Surface        string            `json:"surface"`
	ShowTrajectory bool              `json:"show_trajectory"`
	CameraFollow   bool              `json:"camera_follow"`
}

// ConditionSettings is the persisted subset of the environment.
type ConditionSettings struct {
	TempF        float64 `json:"temp_f"`
	ElevationFt  float64 `json:"elevation_ft"`
	HumidityPct  float64 `json:"humidity_pct"`
	WindSpeedMPH float64 `json:"wind_speed_mph"`
	WindDirDeg   float64 `json:"wind_dir_deg"`
}

// ModelConditions expands persisted conditions to the full physics
// environment. Pressure is not persisted; standard pressure applies.
func (c ConditionSettings) ModelConditions() model.Conditions {
	cond := model.StandardConditions()
	cond.TempF = c.TempF
	cond.ElevationFt = c.ElevationFt
	cond.HumidityPct = c.HumidityPct
	cond.WindSpeedMPH = c.WindSpeedMPH
	cond.WindDirDeg = c.WindDirDeg
	return cond
}

// Defaults returns a fresh version-2 document.
func Defaults() Settings {
	std := model.StandardConditions()
	return Settings{
		Version: CurrentVersion,
		Mode:    "remote",
		Remote: RemoteSettings{
			Host: "127.0.0.1",
			Port: 921,
		},
		Device: DeviceSettings{
			AutoConnect:    true,
			RejectZeroSpin: true,
		},
		UI: UISettings{
			Theme:        "dark",
			ShowHistory:  true,
			HistoryLimit: 50,
		},
		OpenRange: OpenRangeSettings{
			Conditions: ConditionSettings{
				TempF:        std.TempF,
				ElevationFt:  std.ElevationFt,
				HumidityPct:  std.HumidityPct,
				WindSpeedMPH: std.WindSpeedMPH,
				WindDirDeg:   std.WindDirDeg,
			},
			Surface:        "fairway",
			ShowTrajectory: true,
			CameraFollow:   true,
		},
	}
}

// DefaultPath returns the platform-conventional settings location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("settings: home dir: %w", err)
	}
	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Application Support", "GC2 Connect", "settings.json"), nil
	}
	return filepath.Join(home, ".config", "gc2-connect", "settings.json"), nil
}

// Store loads and saves the settings file.
type Store struct {
	mu   sync.Mutex
	path string
}

// NewStore creates a store at path, or the platform default when empty.
func NewStore(path string) (*Store, error) {
	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}
	return &Store{path: path}, nil
}

// Path returns the backing file location.
func (s *Store) Path() string { return s.path }

// Load reads and migrates the settings document.
//
// A missing file yields defaults without touching disk. Malformed JSON
// yields defaults together with a *CorruptError; the file is left intact
// until the caller explicitly saves.
func (s *Store) Load() (Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return Defaults(), nil
	}
	if err != nil {
		return Defaults(), fmt.Errorf("settings: read %s: %w", s.path, err)
	}

	var st Settings
	if err := json.Unmarshal(data, &st); err != nil {
		return Defaults(), &CorruptError{Path: s.path, Err: err}
	}
	if st.Version > CurrentVersion {
		return Defaults(), &VersionError{Path: s.path, Version: st.Version}
	}

	migrate(&st)
	return st, nil
}

// Save writes the document atomically: temp file in the same directory,
// then rename over the target.
func (s *Store) Save(st Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st.Version = CurrentVersion

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("settings: create dir: %w", err)
	}

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("settings: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.json")
	if err != nil {
		return fmt.Errorf("settings: temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("settings: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: close: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("settings: rename: %w", err)
	}
	return nil
}

// migrate upgrades older documents in place. Version 1 predates routing
// modes and the local range.
func migrate(st *Settings) {
	if st.Version >= CurrentVersion {
		return
	}

	def := Defaults()
	if st.Mode == "" {
		st.Mode = def.Mode
	}
	if st.OpenRange == (OpenRangeSettings{}) {
		st.OpenRange = def.OpenRange
	}
	if st.UI.HistoryLimit <= 0 {
		st.UI.HistoryLimit = def.UI.HistoryLimit
	}
	st.Version = CurrentVersion
}
