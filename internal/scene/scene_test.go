package scene

import (
	"bytes"
	"path/filepath"
	"strings"
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

type unbound struct{ N int }

func newWorld(t *testing.T) (*ecs.World, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)
	bus := event.NewBus(event.NewRegistry(), arena.New(16*1024), log)
	w := ecs.NewWorld(bus, log, ecs.Options{})
	require.NoError(t, RegisterDefaults(w))
	return w, logs
}

func populate(t *testing.T, w *ecs.World) (root, child ecs.EntityID) {
	t.Helper()
	root = w.CreateEntity()
	require.NoError(t, w.SetName(root, "Ship"))
	ecs.Add(w, root, component.NewTransform(component.Vec3{X: 1, Y: 2, Z: 3}))
	ecs.Add(w, root, component.Velocity{Linear: component.Vec3{Z: 4}})
	ecs.Add(w, root, component.Material{Shader: "lit", Color: [4]float32{1, 0.5, 0, 1}})

	child = w.CreateEntity()
	require.NoError(t, w.SetName(child, "Turret"))
	ecs.Add(w, child, component.MeshRef{Asset: "turret.glb", Submesh: 2})
	ecs.Add(w, child, component.Lifetime{Remaining: 1500 * time.Millisecond})
	ecs.Add(w, child, unbound{N: 7})
	require.NoError(t, w.SetParent(child, root))
	return root, child
}

func TestRoundTrip(t *testing.T) {
	src, logs := newWorld(t)
	populate(t, src)

	var buf bytes.Buffer
	require.NoError(t, Encode(src, &buf))
	assert.Equal(t, 1, logs.FilterMessage("no serialize binding, component skipped").Len())
	assert.NotContains(t, buf.String(), "worldposition")

	dst, _ := newWorld(t)
	ids, err := Decode(dst, &buf)
	require.NoError(t, err)
	require.Len(t, ids, 2)

	ship := dst.FindByName("ship")
	turret := dst.FindByName("TURRET")
	require.Equal(t, ids[0], ship)
	require.Equal(t, ids[1], turret)

	tr := ecs.Get[component.Transform](dst, ship)
	require.NotNil(t, tr)
	assert.Equal(t, component.Vec3{X: 1, Y: 2, Z: 3}, tr.Position)
	assert.Equal(t, component.One, tr.Scale)
	assert.Equal(t, component.Vec3{Z: 4}, ecs.Get[component.Velocity](dst, ship).Linear)
	assert.Equal(t, [4]float32{1, 0.5, 0, 1}, ecs.Get[component.Material](dst, ship).Color)

	assert.Equal(t, component.MeshRef{Asset: "turret.glb", Submesh: 2}, *ecs.Get[component.MeshRef](dst, turret))
	assert.Equal(t, 1500*time.Millisecond, ecs.Get[component.Lifetime](dst, turret).Remaining)
	assert.False(t, ecs.Has[unbound](dst, turret))
	assert.Equal(t, ship, dst.Entity(turret).Parent())
}

func TestDecodeSkipsUnknownComponents(t *testing.T) {
	w, logs := newWorld(t)
	doc := `
version: 1
entities:
  - name: crate
    components:
      transform: {position: {x: 5}}
      physics: {mass: 10}
`
	ids, err := Decode(w, strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, ids, 1)

	assert.Equal(t, 1, logs.FilterMessage("no deserialize binding, component skipped").Len())
	tr := ecs.Get[component.Transform](w, ids[0])
	require.NotNil(t, tr)
	assert.Equal(t, 5.0, tr.Position.X)
	assert.Equal(t, component.One, tr.Scale, "scale defaults to one")
	assert.Equal(t, 1, w.Storage().Count(ids[0]))
}

func TestDecodeSkipsMalformedComponent(t *testing.T) {
	w, logs := newWorld(t)
	doc := `
entities:
  - components:
      velocity: [1, 2, 3]
      tag: {group: enemies}
`
	ids, err := Decode(w, strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, 1, logs.FilterMessage("decode component failed, skipped").Len())
	assert.False(t, ecs.Has[component.Velocity](w, ids[0]))
	assert.Equal(t, "enemies", ecs.Get[component.Tag](w, ids[0]).Group)
}

func TestDecodeRejectsBadDocuments(t *testing.T) {
	w, _ := newWorld(t)

	_, err := Decode(w, strings.NewReader("version: 99\n"))
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = Decode(w, strings.NewReader("entities:\n  - parent: 3\n"))
	assert.ErrorIs(t, err, ErrBadParent)
	assert.Empty(t, w.Entities().Active(), "nothing created on a rejected document")

	ids, err := Decode(w, strings.NewReader(""))
	assert.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSaveAndLoadFile(t *testing.T) {
	src, _ := newWorld(t)
	populate(t, src)
	path := filepath.Join(t.TempDir(), "level.yaml")
	require.NoError(t, SaveFile(src, path))

	dst, _ := newWorld(t)
	ids, err := LoadFile(dst, path)
	require.NoError(t, err)
	assert.Len(t, ids, 2)

	_, err = LoadFile(dst, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
