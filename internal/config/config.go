package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Events    EventsConfig    `toml:"events"`
	Scene     SceneConfig     `toml:"scene"`
	Scripting ScriptingConfig `toml:"scripting"`
	Database  DatabaseConfig  `toml:"database"`
	Logging   LoggingConfig   `toml:"logging"`
}

type EngineConfig struct {
	FrameRate            time.Duration `toml:"frame_rate"`      // host loop period
	FixedStep            time.Duration `toml:"fixed_step"`      // FixedUpdate time step
	MaxFixedSteps        int           `toml:"max_fixed_steps"` // cap per frame, extra time is dropped
	EntityCapacity       int           `toml:"entity_capacity"`
	DestroyQueueCapacity int           `toml:"destroy_queue_capacity"` // initial size, grows on overflow
}

type EventsConfig struct {
	ArenaBytes     int `toml:"arena_bytes"`
	MaxPerDispatch int `toml:"max_per_dispatch"` // 0 = bounded by arena only
}

type SceneConfig struct {
	Path          string `toml:"path"`           // scene loaded at startup, empty = none
	SnapshotName  string `toml:"snapshot_name"`  // saved to the database on shutdown when set
	KeepSnapshots int    `toml:"keep_snapshots"` // history kept per name after a save, 0 = all
}

type ScriptingConfig struct {
	Dir string `toml:"dir"` // empty disables Lua systems
}

type DatabaseConfig struct {
	DSN             string        `toml:"dsn"` // empty disables the snapshot store
	MaxOpenConns    int           `toml:"max_open_conns"`
	MaxIdleConns    int           `toml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime"`
}

type LoggingConfig struct {
	Level  string            `toml:"level"`
	Format string            `toml:"format"` // "json" or "console"
	Output string            `toml:"output"` // file path, empty = stderr
	Levels map[string]string `toml:"levels"` // minimum level per sub-logger, e.g. events = "warn"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return Parse(data)
}

// Parse overlays TOML data on the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Events.ArenaBytes <= 0 {
		return nil, fmt.Errorf("parse config: events.arena_bytes must be positive, got %d", cfg.Events.ArenaBytes)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			FrameRate:            16 * time.Millisecond,
			FixedStep:            time.Second / 60,
			MaxFixedSteps:        5,
			EntityCapacity:       4096,
			DestroyQueueCapacity: 256,
		},
		Events: EventsConfig{
			ArenaBytes:     1 << 20,
			MaxPerDispatch: 1 << 16,
		},
		Scene: SceneConfig{
			KeepSnapshots: 10,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
