package scripting

import "time"

// Global Lua functions driven by ScriptSystem, one per scheduler phase.
const (
	FnPreUpdate   = "pre_update"
	FnUpdate      = "update"
	FnPostUpdate  = "post_update"
	FnFixedUpdate = "fixed_update"
)

// ScriptSystem runs the engine's phase functions from the scheduler. dt is
// passed to Lua in seconds.
type ScriptSystem struct {
	eng *Engine
}

func NewScriptSystem(eng *Engine) *ScriptSystem {
	return &ScriptSystem{eng: eng}
}

func (s *ScriptSystem) Name() string { return "scripts" }

func (s *ScriptSystem) PreUpdate(dt time.Duration)   { s.eng.Call(FnPreUpdate, dt.Seconds()) }
func (s *ScriptSystem) Update(dt time.Duration)      { s.eng.Call(FnUpdate, dt.Seconds()) }
func (s *ScriptSystem) PostUpdate(dt time.Duration)  { s.eng.Call(FnPostUpdate, dt.Seconds()) }
func (s *ScriptSystem) FixedUpdate(dt time.Duration) { s.eng.Call(FnFixedUpdate, dt.Seconds()) }
