package scripting

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/arena"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func newEngine(t *testing.T) (*Engine, *ecs.World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	bus := event.NewBus(event.NewRegistry(), arena.New(16*1024), log)
	w := ecs.NewWorld(bus, log, ecs.Options{})
	e := NewEngine(w, log)
	t.Cleanup(e.Close)
	return e, w, logs
}

func TestScriptedSystemSpawnsEntities(t *testing.T) {
	e, w, _ := newEngine(t)
	require.NoError(t, e.DoString(`
spawned = 0
function update(dt)
  local id = engine.create_entity()
  engine.set_transform(id, spawned, 0, 0)
  engine.add_velocity(id, 1, 0, 0)
  engine.add_velocity(id, 0, 2, 0)
  engine.set_lifetime(id, 1.5)
  spawned = spawned + 1
end
`))
	s := NewScriptSystem(e)
	s.Update(16 * time.Millisecond)
	s.Update(16 * time.Millisecond)

	assert.Equal(t, 2, ecs.Count[component.Transform](w))
	var xs []float64
	ecs.Each2(w, func(_ ecs.EntityID, tr *component.Transform, v *component.Velocity) {
		xs = append(xs, tr.Position.X)
		assert.Equal(t, component.Vec3{X: 1, Y: 2}, v.Linear)
	})
	assert.ElementsMatch(t, []float64{0, 1}, xs)
	ecs.Each(w, func(_ ecs.EntityID, l *component.Lifetime) {
		assert.Equal(t, 1500*time.Millisecond, l.Remaining)
	})
}

func TestScriptAPIReadsWorld(t *testing.T) {
	e, w, logs := newEngine(t)
	id := w.CreateEntity()
	ecs.Add(w, id, component.NewTransform(component.Vec3{X: 1, Y: 2, Z: 3}))
	require.NoError(t, w.SetName(id, "Player"))

	require.NoError(t, e.DoString(`
local id = engine.find("player")
local x, y, z = engine.get_transform(id)
engine.log("pos " .. x .. "," .. y .. "," .. z)
missing = engine.find("nobody")
was_alive = engine.alive(id)
destroyed = engine.destroy_entity(id)
again = engine.destroy_entity(id)
`))
	assert.Equal(t, 1, logs.FilterMessage("lua").Len())
	assert.Equal(t, "pos 1,2,3", logs.FilterMessage("lua").All()[0].ContextMap()["msg"])
	assert.Equal(t, "nil", e.vm.GetGlobal("missing").String())
	assert.Equal(t, "true", e.vm.GetGlobal("was_alive").String())
	assert.Equal(t, "true", e.vm.GetGlobal("destroyed").String())
	assert.Equal(t, "false", e.vm.GetGlobal("again").String())
	assert.False(t, w.Alive(id))
}

func TestScriptRejectsBadEntityIDs(t *testing.T) {
	e, w, logs := newEngine(t)
	id := w.CreateEntity()

	for _, src := range []string{
		`engine.alive(-1)`,
		`engine.alive(0)`,
		`engine.alive(1.5)`,
		`engine.alive(0/0)`,
		`engine.destroy_entity(2^60)`,
		`engine.set_transform(-3, 1, 2, 3)`,
	} {
		err := e.DoString(src)
		require.Error(t, err, src)
		assert.Contains(t, err.Error(), "entity id must be a positive integer", src)
	}
	assert.True(t, w.Alive(id))
	assert.Zero(t, logs.FilterMessage("destroy missing entity").Len())

	require.NoError(t, e.DoString(`function update(dt) engine.alive(-1) end`))
	NewScriptSystem(e).Update(time.Millisecond)
	assert.Equal(t, 1, logs.FilterMessage("lua script error").Len())
}

func TestScriptErrorsAreLogged(t *testing.T) {
	e, _, logs := newEngine(t)
	require.NoError(t, e.DoString(`function fixed_update(dt) error("boom") end`))

	s := NewScriptSystem(e)
	assert.NotPanics(t, func() { s.FixedUpdate(time.Millisecond) })
	assert.NotPanics(t, func() { s.PreUpdate(time.Millisecond) }, "undefined phase is a no-op")
	assert.Equal(t, 1, logs.FilterMessage("lua script error").Len())
	assert.True(t, e.Defined(FnFixedUpdate))
	assert.False(t, e.Defined(FnPostUpdate))
}

func TestLoadDir(t *testing.T) {
	e, _, _ := newEngine(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.lua"), []byte(`order = "a"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.lua"), []byte(`order = order .. "b"`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte(`not lua`), 0o644))

	require.NoError(t, e.LoadDir(dir))
	assert.Equal(t, "ab", e.vm.GetGlobal("order").String())
	assert.NoError(t, e.LoadDir(filepath.Join(dir, "missing")))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.lua"), []byte(`this is not lua`), 0o644))
	assert.Error(t, e.LoadDir(dir))
}
