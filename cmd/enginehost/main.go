package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/engine/internal/config"
	coresys "github.com/l1jgo/engine/internal/core/system"
	"github.com/l1jgo/engine/internal/engine"
	"github.com/l1jgo/engine/internal/persist"
	"github.com/l1jgo/engine/internal/scene"
	"github.com/l1jgo/engine/internal/scripting"
	"github.com/l1jgo/engine/internal/system"
	"go.uber.org/zap"
)

const defaultConfigPath = "config/engine.toml"

// System priorities; lower runs first within a phase.
const (
	prioScripts   = 0
	prioLifetime  = 10
	prioMovement  = 20
	prioHierarchy = 100
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Host ───────────────────────────────────────────────────────────

func loadConfig() (*config.Config, error) {
	path := defaultConfigPath
	if p := os.Getenv("ENGINE_CONFIG"); p != "" {
		path = p
	}
	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == defaultConfigPath {
		return config.Defaults(), nil
	}
	return cfg, err
}

func run() error {
	// 1. Load config
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := engine.NewLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	// 3. Build the engine
	printSection("Engine")
	eng := engine.New(cfg, log)
	w := eng.World()
	if err := scene.RegisterDefaults(w); err != nil {
		return fmt.Errorf("register codecs: %w", err)
	}
	printStat("Event arena bytes", eng.Arena().Cap())
	printStat("Entity capacity", cfg.Engine.EntityCapacity)

	// 4. Optional snapshot store
	var snapshots *persist.SnapshotRepo
	if cfg.Database.DSN != "" {
		printSection("Snapshot store")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.NewDB(ctx, cfg.Database, engine.Named(log, cfg.Logging, "persist"))
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		version, err := persist.RunMigrations(ctx, db.Pool, log)
		if err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		snapshots = persist.NewSnapshotRepo(db)
		printOK(fmt.Sprintf("PostgreSQL connected, schema v%d", version))
	}

	// 5. Load the scene: latest snapshot first, then the scene file
	printSection("Scene")
	loaded, err := loadScene(cfg, eng, snapshots)
	if err != nil {
		return err
	}
	printStat("Entities", loaded)

	// 6. Scripts and systems
	if cfg.Scripting.Dir != "" {
		lua := scripting.NewEngine(w, engine.Named(log, cfg.Logging, "lua"))
		defer lua.Close()
		if err := lua.LoadDir(cfg.Scripting.Dir); err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}
		if err := eng.Register(scripting.NewScriptSystem(lua), prioScripts); err != nil {
			return err
		}
	}
	for _, s := range []struct {
		sys  coresys.System
		prio int
	}{
		{system.NewLifetimeSystem(w), prioLifetime},
		{system.NewMovementSystem(w), prioMovement},
		{system.NewHierarchySystem(w), prioHierarchy},
	} {
		if err := eng.Register(s.sys, s.prio); err != nil {
			return err
		}
	}
	printStat("Systems", len(eng.Runner().Names()))
	fmt.Println()

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.FrameRate)
	defer ticker.Stop()
	log.Info("frame loop started", zap.Duration("frame_rate", cfg.Engine.FrameRate))

	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			eng.Update(now.Sub(last))
			last = now
		case sig := <-shutdownCh:
			log.Info("shutdown signal received",
				zap.String("signal", sig.String()),
				zap.Uint64("frames", eng.Frame()))
			if err := saveSnapshot(cfg, eng, snapshots); err != nil {
				log.Error("snapshot save failed", zap.Error(err))
			}
			log.Info("engine stopped")
			return nil
		}
	}
}

func loadScene(cfg *config.Config, eng *engine.Engine, snapshots *persist.SnapshotRepo) (int, error) {
	if snapshots != nil && cfg.Scene.SnapshotName != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		row, err := snapshots.Load(ctx, cfg.Scene.SnapshotName)
		if err != nil {
			return 0, fmt.Errorf("load snapshot %s: %w", cfg.Scene.SnapshotName, err)
		}
		if row != nil {
			ids, err := scene.Unmarshal(eng.World(), row.Document)
			if err != nil {
				return 0, fmt.Errorf("decode snapshot %s: %w", cfg.Scene.SnapshotName, err)
			}
			printOK(fmt.Sprintf("snapshot %s #%d", row.Name, row.ID))
			return len(ids), nil
		}
	}
	if cfg.Scene.Path == "" {
		return 0, nil
	}
	ids, err := scene.LoadFile(eng.World(), cfg.Scene.Path)
	if err != nil {
		return 0, err
	}
	printOK(cfg.Scene.Path)
	return len(ids), nil
}

func saveSnapshot(cfg *config.Config, eng *engine.Engine, snapshots *persist.SnapshotRepo) error {
	if snapshots == nil || cfg.Scene.SnapshotName == "" {
		return nil
	}
	doc, err := scene.Marshal(eng.World())
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	saved, err := snapshots.Save(ctx, cfg.Scene.SnapshotName, doc, len(eng.World().Entities().Active()))
	if err != nil || !saved || cfg.Scene.KeepSnapshots <= 0 {
		return err
	}
	_, err = snapshots.Prune(ctx, cfg.Scene.SnapshotName, cfg.Scene.KeepSnapshots)
	return err
}
