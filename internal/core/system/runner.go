package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
)

type entry struct {
	sys      System
	priority int
	seq      int
	enabled  bool
	phases   [numPhases]func(time.Duration)
}

// Runner executes systems in phase order each frame. Within a phase systems
// run by ascending priority, then registration order. It owns no component or
// event data.
type Runner struct {
	log       *zap.Logger
	systems   []*entry
	byName    map[string]*entry
	sorted    bool
	seq       int
	fixedStep time.Duration
	maxSteps  int
	acc       time.Duration
}

// NewRunner creates a runner. fixedStep is the FixedUpdate time step; at most
// maxSteps fixed steps run per frame, extra accumulated time is dropped.
func NewRunner(fixedStep time.Duration, maxSteps int, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	if maxSteps <= 0 {
		maxSteps = 1
	}
	return &Runner{
		log:       log,
		systems:   make([]*entry, 0, 16),
		byName:    make(map[string]*entry, 16),
		fixedStep: fixedStep,
		maxSteps:  maxSteps,
	}
}

// Register adds s with the given priority. Names must be unique.
func (r *Runner) Register(s System, priority int) error {
	name := s.Name()
	if _, dup := r.byName[name]; dup {
		r.log.Error("system already registered", zap.String("system", name))
		return fmt.Errorf("register system %s: already registered", name)
	}
	e := &entry{sys: s, priority: priority, seq: r.seq, enabled: true}
	for p := Phase(0); p < numPhases; p++ {
		e.phases[p] = phaseFunc(s, p)
	}
	r.seq++
	r.systems = append(r.systems, e)
	r.byName[name] = e
	r.sorted = false
	return nil
}

// Unregister removes the named system. Safe to call from inside a phase: the
// removal takes effect from the next phase.
func (r *Runner) Unregister(name string) bool {
	e, ok := r.byName[name]
	if !ok {
		return false
	}
	delete(r.byName, name)
	kept := make([]*entry, 0, len(r.systems))
	for _, s := range r.systems {
		if s != e {
			kept = append(kept, s)
		}
	}
	r.systems = kept
	return true
}

// SetEnabled toggles a system. Disabled systems are skipped entirely.
func (r *Runner) SetEnabled(name string, enabled bool) bool {
	e, ok := r.byName[name]
	if !ok {
		r.log.Error("unknown system", zap.String("system", name))
		return false
	}
	e.enabled = enabled
	return true
}

func (r *Runner) Enabled(name string) bool {
	e, ok := r.byName[name]
	return ok && e.enabled
}

// Names lists registered systems in execution order.
func (r *Runner) Names() []string {
	r.ensureSorted()
	out := make([]string, len(r.systems))
	for i, e := range r.systems {
		out[i] = e.sys.Name()
	}
	return out
}

// Tick runs one frame: pre-update, update, post-update, then as many fixed
// updates as the accumulated time allows.
func (r *Runner) Tick(dt time.Duration) {
	r.TickPhase(PhasePreUpdate, dt)
	r.TickPhase(PhaseUpdate, dt)
	r.TickPhase(PhasePostUpdate, dt)
	r.tickFixed(dt)
}

// TickPhase runs only the systems of the given phase.
func (r *Runner) TickPhase(phase Phase, dt time.Duration) {
	r.ensureSorted()
	systems := r.systems
	for _, e := range systems {
		if !e.enabled {
			continue
		}
		if fn := e.phases[phase]; fn != nil {
			fn(dt)
		}
	}
}

func (r *Runner) tickFixed(dt time.Duration) {
	if r.fixedStep <= 0 {
		r.TickPhase(PhaseFixedUpdate, dt)
		return
	}
	r.acc += dt
	steps := 0
	for r.acc >= r.fixedStep && steps < r.maxSteps {
		r.TickPhase(PhaseFixedUpdate, r.fixedStep)
		r.acc -= r.fixedStep
		steps++
	}
	if r.acc >= r.fixedStep {
		r.log.Debug("fixed update falling behind, dropping time",
			zap.Duration("dropped", r.acc-r.acc%r.fixedStep))
		r.acc %= r.fixedStep
	}
}

func (r *Runner) ensureSorted() {
	if !r.sorted {
		sort.SliceStable(r.systems, func(i, j int) bool {
			if r.systems[i].priority != r.systems[j].priority {
				return r.systems[i].priority < r.systems[j].priority
			}
			return r.systems[i].seq < r.systems[j].seq
		})
		r.sorted = true
	}
}
