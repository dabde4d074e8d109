package system

import "time"

// Phase defines execution ordering within a single frame.
type Phase int

const (
	PhasePreUpdate   Phase = iota // 0: react to last frame's state, input
	PhaseUpdate                   // 1: game logic
	PhasePostUpdate               // 2: derived state (hierarchy, visibility)
	PhaseFixedUpdate              // 3: fixed-step simulation, 0..n times per frame
	numPhases
)

func (p Phase) String() string {
	switch p {
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseFixedUpdate:
		return "fixed_update"
	default:
		return "unknown"
	}
}

// System is the interface every system implements. A system takes part in a
// phase by implementing the matching phase interface below; systems read and
// write components through the world they were constructed with.
type System interface {
	Name() string
}

type PreUpdater interface {
	PreUpdate(dt time.Duration)
}

type Updater interface {
	Update(dt time.Duration)
}

type PostUpdater interface {
	PostUpdate(dt time.Duration)
}

type FixedUpdater interface {
	FixedUpdate(dt time.Duration)
}

func phaseFunc(s System, p Phase) func(time.Duration) {
	switch p {
	case PhasePreUpdate:
		if u, ok := s.(PreUpdater); ok {
			return u.PreUpdate
		}
	case PhaseUpdate:
		if u, ok := s.(Updater); ok {
			return u.Update
		}
	case PhasePostUpdate:
		if u, ok := s.(PostUpdater); ok {
			return u.PostUpdate
		}
	case PhaseFixedUpdate:
		if u, ok := s.(FixedUpdater); ok {
			return u.FixedUpdate
		}
	}
	return nil
}
