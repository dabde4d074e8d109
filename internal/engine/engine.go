package engine

import (
	"time"

	"github.com/l1jgo/engine/internal/config"
	"github.com/l1jgo/engine/internal/core/arena"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
	coresys "github.com/l1jgo/engine/internal/core/system"
	"go.uber.org/zap"
)

// FrameStats summarises one Update call.
type FrameStats struct {
	Frame      uint64
	Events     int // events delivered, re-entrant ones included
	Components int // components reclaimed at the flush
	Entities   int // entity records reclaimed at the flush
}

// Engine wires the arena, event bus, world and system runner, and drives one
// frame per Update call. The host's loop and renderer treat it as opaque.
type Engine struct {
	log    *zap.Logger
	arena  *arena.Arena
	bus    *event.Bus
	world  *ecs.World
	runner *coresys.Runner
	frame  uint64
}

func New(cfg *config.Config, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	a := arena.New(cfg.Events.ArenaBytes)
	bus := event.NewBus(event.NewRegistry(), a, Named(log, cfg.Logging, "events"))
	bus.SetDispatchLimit(cfg.Events.MaxPerDispatch)

	world := ecs.NewWorld(bus, Named(log, cfg.Logging, "ecs"), ecs.Options{
		EntityCapacity:       cfg.Engine.EntityCapacity,
		DestroyQueueCapacity: cfg.Engine.DestroyQueueCapacity,
	})
	runner := coresys.NewRunner(cfg.Engine.FixedStep, cfg.Engine.MaxFixedSteps, Named(log, cfg.Logging, "systems"))

	return &Engine{
		log:    log,
		arena:  a,
		bus:    bus,
		world:  world,
		runner: runner,
	}
}

func (e *Engine) World() *ecs.World       { return e.world }
func (e *Engine) Bus() *event.Bus         { return e.bus }
func (e *Engine) Runner() *coresys.Runner { return e.runner }
func (e *Engine) Arena() *arena.Arena     { return e.arena }
func (e *Engine) Frame() uint64           { return e.frame }
func (e *Engine) Logger() *zap.Logger     { return e.log }

// Register adds a system to the runner.
func (e *Engine) Register(s coresys.System, priority int) error {
	return e.runner.Register(s, priority)
}

// Update runs one frame: every system phase, then event dispatch, then the
// structural flush. Nothing is reclaimed before all systems and handlers of
// the frame have run.
func (e *Engine) Update(dt time.Duration) FrameStats {
	e.runner.Tick(dt)
	delivered := e.bus.DispatchEvents()
	comps, ents := e.world.Flush()
	e.frame++

	if comps > 0 || ents > 0 {
		e.log.Debug("frame flushed",
			zap.Uint64("frame", e.frame),
			zap.Int("components", comps),
			zap.Int("entities", ents))
	}
	return FrameStats{
		Frame:      e.frame,
		Events:     delivered,
		Components: comps,
		Entities:   ents,
	}
}
