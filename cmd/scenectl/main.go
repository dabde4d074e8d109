// scenectl copies scene documents between YAML files and the snapshot store.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/l1jgo/engine/internal/config"
	"github.com/l1jgo/engine/internal/core/arena"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
	"github.com/l1jgo/engine/internal/engine"
	"github.com/l1jgo/engine/internal/persist"
	"github.com/l1jgo/engine/internal/scene"
	"go.uber.org/zap"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: scenectl push <name> <scene.yaml>")
	fmt.Fprintln(os.Stderr, "       scenectl pull <name> <scene.yaml>")
	fmt.Fprintln(os.Stderr, "       scenectl prune <name> <keep>")
	os.Exit(1)
}

func main() {
	if len(os.Args) < 4 {
		usage()
	}
	cmd, name, arg := os.Args[1], os.Args[2], os.Args[3]

	cfgPath := "config/engine.toml"
	if p := os.Getenv("ENGINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := engine.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer db.Close()
	if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	repo := persist.NewSnapshotRepo(db)

	switch cmd {
	case "push":
		err = push(ctx, repo, cfg, log, name, arg)
	case "pull":
		err = pull(ctx, repo, name, arg)
	case "prune":
		err = prune(ctx, repo, name, arg)
	default:
		usage()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// push validates the scene file by decoding it into a scratch world, then
// stores it.
func push(ctx context.Context, repo *persist.SnapshotRepo, cfg *config.Config, log *zap.Logger, name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	bus := event.NewBus(event.NewRegistry(), arena.New(cfg.Events.ArenaBytes), log)
	w := ecs.NewWorld(bus, log, ecs.Options{})
	if err := scene.RegisterDefaults(w); err != nil {
		return err
	}
	ids, err := scene.Unmarshal(w, data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	saved, err := repo.Save(ctx, name, data, len(ids))
	if err != nil {
		return err
	}
	if saved {
		fmt.Printf("pushed %s (%d entities) as %s\n", path, len(ids), name)
	} else {
		fmt.Printf("%s unchanged\n", name)
	}
	return nil
}

func pull(ctx context.Context, repo *persist.SnapshotRepo, name, path string) error {
	row, err := repo.Load(ctx, name)
	if err != nil {
		return err
	}
	if row == nil {
		return errors.New("no snapshot named " + name)
	}
	if err := os.WriteFile(path, row.Document, 0o644); err != nil {
		return err
	}
	fmt.Printf("pulled %s #%d (%d entities) to %s\n", name, row.ID, row.Entities, path)
	return nil
}

func prune(ctx context.Context, repo *persist.SnapshotRepo, name, keepArg string) error {
	keep, err := strconv.Atoi(keepArg)
	if err != nil {
		return fmt.Errorf("keep %q: %w", keepArg, err)
	}
	n, err := repo.Prune(ctx, name, keep)
	if err != nil {
		return err
	}
	fmt.Printf("pruned %d snapshots of %s, kept %d\n", n, name, keep)
	return nil
}
