package scripting

import (
	"math"
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/ecs"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

func (e *Engine) api() map[string]lua.LGFunction {
	return map[string]lua.LGFunction{
		"create_entity":  e.luaCreateEntity,
		"destroy_entity": e.luaDestroyEntity,
		"alive":          e.luaAlive,
		"get_transform":  e.luaGetTransform,
		"set_transform":  e.luaSetTransform,
		"add_velocity":   e.luaAddVelocity,
		"set_lifetime":   e.luaSetLifetime,
		"set_name":       e.luaSetName,
		"find":           e.luaFind,
		"log":            e.luaLog,
	}
}

// maxScriptEntity is the largest id a Lua number holds exactly.
const maxScriptEntity = 1 << 53

// checkEntity raises a Lua argument error unless arg n is a positive integer
// id that survives the round trip through a Lua number.
func checkEntity(L *lua.LState, n int) ecs.EntityID {
	v := float64(L.CheckNumber(n))
	if !(v >= 1 && v <= maxScriptEntity && v == math.Trunc(v)) {
		L.ArgError(n, "entity id must be a positive integer")
		return ecs.InvalidEntity
	}
	return ecs.EntityID(v)
}

func checkVec(L *lua.LState, n int) component.Vec3 {
	return component.Vec3{
		X: float64(L.OptNumber(n, 0)),
		Y: float64(L.OptNumber(n+1, 0)),
		Z: float64(L.OptNumber(n+2, 0)),
	}
}

// engine.create_entity() -> id
func (e *Engine) luaCreateEntity(L *lua.LState) int {
	L.Push(lua.LNumber(e.world.CreateEntity()))
	return 1
}

// engine.destroy_entity(id) -> bool
func (e *Engine) luaDestroyEntity(L *lua.LState) int {
	id := checkEntity(L, 1)
	if !e.world.Alive(id) {
		L.Push(lua.LFalse)
		return 1
	}
	L.Push(lua.LBool(e.world.DestroyEntity(id)))
	return 1
}

// engine.alive(id) -> bool
func (e *Engine) luaAlive(L *lua.LState) int {
	L.Push(lua.LBool(e.world.Alive(checkEntity(L, 1))))
	return 1
}

// engine.get_transform(id) -> x, y, z | nil
func (e *Engine) luaGetTransform(L *lua.LState) int {
	id := checkEntity(L, 1)
	if !ecs.Has[component.Transform](e.world, id) {
		L.Push(lua.LNil)
		return 1
	}
	p := ecs.Get[component.Transform](e.world, id).Position
	L.Push(lua.LNumber(p.X))
	L.Push(lua.LNumber(p.Y))
	L.Push(lua.LNumber(p.Z))
	return 3
}

// engine.set_transform(id, x, y, z) -> bool. Adds a Transform if missing.
func (e *Engine) luaSetTransform(L *lua.LState) int {
	id := checkEntity(L, 1)
	pos := checkVec(L, 2)
	if !e.world.Alive(id) {
		L.Push(lua.LFalse)
		return 1
	}
	if ecs.Has[component.Transform](e.world, id) {
		ecs.Get[component.Transform](e.world, id).Position = pos
	} else {
		ecs.Add(e.world, id, component.NewTransform(pos))
	}
	L.Push(lua.LTrue)
	return 1
}

// engine.add_velocity(id, x, y, z) -> bool. Accumulates onto any existing
// Velocity.
func (e *Engine) luaAddVelocity(L *lua.LState) int {
	id := checkEntity(L, 1)
	dv := checkVec(L, 2)
	if !e.world.Alive(id) {
		L.Push(lua.LFalse)
		return 1
	}
	if ecs.Has[component.Velocity](e.world, id) {
		v := ecs.Get[component.Velocity](e.world, id)
		v.Linear = v.Linear.Add(dv)
	} else {
		ecs.Add(e.world, id, component.Velocity{Linear: dv})
	}
	L.Push(lua.LTrue)
	return 1
}

// engine.set_lifetime(id, seconds) -> bool
func (e *Engine) luaSetLifetime(L *lua.LState) int {
	id := checkEntity(L, 1)
	d := time.Duration(float64(L.CheckNumber(2)) * float64(time.Second))
	if !e.world.Alive(id) {
		L.Push(lua.LFalse)
		return 1
	}
	if ecs.Has[component.Lifetime](e.world, id) {
		ecs.Get[component.Lifetime](e.world, id).Remaining = d
	} else {
		ecs.Add(e.world, id, component.Lifetime{Remaining: d})
	}
	L.Push(lua.LTrue)
	return 1
}

// engine.set_name(id, name) -> true | false, err
func (e *Engine) luaSetName(L *lua.LState) int {
	id := checkEntity(L, 1)
	name := L.CheckString(2)
	if err := e.world.SetName(id, name); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// engine.find(name) -> id | nil
func (e *Engine) luaFind(L *lua.LState) int {
	id := e.world.FindByName(L.CheckString(1))
	if id == ecs.InvalidEntity {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(id))
	return 1
}

// engine.log(msg)
func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)))
	return 0
}
