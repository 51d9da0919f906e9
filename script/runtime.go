// Package script binds tengo scripts to entity update hooks, exposing the
// fluent handle API so prefab-declared behaviors can move, push and recolor
// their own entity without recompiling the engine.
package script

import (
	"fmt"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/rs/zerolog/log"

	"github.com/kiln3d/kiln/engine"
)

const updateDispatch = `
if __phase == "update" {
	update(__engine, __state, __dt)
}
`

// Runtime is one compiled script instance. Scripts define
// update(engine, state, dt); state is a persistent map carried between
// calls. A Runtime belongs to a single entity and a single goroutine.
type Runtime struct {
	compiled *tengo.Compiled
	state    *tengo.Map
}

// New compiles a script source.
func New(src []byte) (*Runtime, error) {
	s := tengo.NewScript(append(append([]byte{}, src...), []byte("\n"+updateDispatch)...))
	_ = s.Add("__phase", "")
	_ = s.Add("__engine", map[string]any{})
	_ = s.Add("__state", map[string]any{})
	_ = s.Add("__dt", 0.0)
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return nil, fmt.Errorf("script: compile: %w", err)
	}
	return &Runtime{
		compiled: compiled,
		state:    &tengo.Map{Value: map[string]tengo.Object{}},
	}, nil
}

// Hook returns an entity update callback driving the script. Script errors
// log and no-op; they never propagate into the frame loop.
func (rt *Runtime) Hook(h engine.Handle) func(e *engine.Entity, dt float32) {
	eng := buildEngine(h)
	return func(e *engine.Entity, dt float32) {
		if rt == nil || rt.compiled == nil {
			return
		}
		if err := rt.compiled.Set("__phase", "update"); err != nil {
			log.Error().Err(err).Int("entity", h.ID()).Msg("script phase set failed")
			return
		}
		if err := rt.compiled.Set("__engine", eng); err != nil {
			log.Error().Err(err).Int("entity", h.ID()).Msg("script engine set failed")
			return
		}
		if err := rt.compiled.Set("__state", rt.state); err != nil {
			log.Error().Err(err).Int("entity", h.ID()).Msg("script state set failed")
			return
		}
		if err := rt.compiled.Set("__dt", float64(dt)); err != nil {
			log.Error().Err(err).Int("entity", h.ID()).Msg("script dt set failed")
			return
		}
		if err := rt.compiled.Run(); err != nil {
			log.Error().Err(err).Int("entity", h.ID()).Msg("script update failed")
		}
	}
}

func buildEngine(h engine.Handle) *tengo.ImmutableMap {
	values := map[string]tengo.Object{}

	vec3Fn := func(name string, apply func(v mgl32.Vec3)) {
		values[name] = &tengo.UserFunction{Name: name, Value: func(args ...tengo.Object) (tengo.Object, error) {
			v, ok := vec3Args(args)
			if !ok {
				return tengo.FalseValue, nil
			}
			apply(v)
			return tengo.TrueValue, nil
		}}
	}

	vec3Fn("at", func(v mgl32.Vec3) { h.At(v) })
	vec3Fn("rotate", func(v mgl32.Vec3) { h.Rotate(v) })
	vec3Fn("scale", func(v mgl32.Vec3) { h.Scale(v) })
	vec3Fn("push", func(v mgl32.Vec3) { h.Push(v) })
	vec3Fn("impulse", func(v mgl32.Vec3) { h.Impulse(v) })
	vec3Fn("set_velocity", func(v mgl32.Vec3) { h.SetVelocity(v) })
	vec3Fn("set_angular_velocity", func(v mgl32.Vec3) { h.SetAngularVelocity(v) })
	vec3Fn("set_color", func(v mgl32.Vec3) { h.Color(v) })

	values["make_static"] = &tengo.UserFunction{Name: "make_static", Value: func(args ...tengo.Object) (tengo.Object, error) {
		h.MakeStatic()
		return tengo.TrueValue, nil
	}}
	values["make_dynamic"] = &tengo.UserFunction{Name: "make_dynamic", Value: func(args ...tengo.Object) (tengo.Object, error) {
		h.MakeDynamic()
		return tengo.TrueValue, nil
	}}
	values["get_position"] = &tengo.UserFunction{Name: "get_position", Value: func(args ...tengo.Object) (tengo.Object, error) {
		p := h.GetPosition()
		return &tengo.Array{Value: []tengo.Object{
			&tengo.Float{Value: float64(p.X())},
			&tengo.Float{Value: float64(p.Y())},
			&tengo.Float{Value: float64(p.Z())},
		}}, nil
	}}
	values["get_velocity"] = &tengo.UserFunction{Name: "get_velocity", Value: func(args ...tengo.Object) (tengo.Object, error) {
		vel := h.GetVelocity()
		return &tengo.Array{Value: []tengo.Object{
			&tengo.Float{Value: float64(vel.X())},
			&tengo.Float{Value: float64(vel.Y())},
			&tengo.Float{Value: float64(vel.Z())},
		}}, nil
	}}

	return &tengo.ImmutableMap{Value: values}
}

func vec3Args(args []tengo.Object) (mgl32.Vec3, bool) {
	if len(args) < 3 {
		return mgl32.Vec3{}, false
	}
	var out mgl32.Vec3
	for i := 0; i < 3; i++ {
		f, ok := tengo.ToFloat64(args[i])
		if !ok {
			return mgl32.Vec3{}, false
		}
		out[i] = float32(f)
	}
	return out, true
}
