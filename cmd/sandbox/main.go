package main

import (
	"flag"
	"log"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/pkg/profile"

	"github.com/kiln3d/kiln/engine"
	"github.com/kiln3d/kiln/script"
)

func main() {
	prof := flag.Bool("profile", false, "write a CPU profile to the working directory")
	prefabDir := flag.String("prefabs", "assets/prefabs", "directory of prefab yaml specs (empty to skip)")
	flag.Parse()

	if *prof {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}

	scene := engine.NewScene("sandbox")
	if !scene.Init() {
		log.Fatal("scene init failed")
	}
	defer scene.Shutdown()

	buildDemo(scene)

	var rel *reloader
	if *prefabDir != "" {
		rel = newReloader(scene, *prefabDir)
		rel.spawnAll()
		rel.watch()
		defer rel.close()
	}

	ebiten.SetWindowSize(1280, 720)
	ebiten.SetWindowTitle("kiln sandbox")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(newViewer(scene, rel)); err != nil {
		log.Fatal(err)
	}
}

// buildDemo fills the scene with a static ground, a falling stack, and one
// tengo-scripted orbiter.
func buildDemo(scene *engine.Scene) {
	es := scene.Entities()

	es.SpawnPlane("ground", mgl32.Vec3{0, -2, 0}, mgl32.Vec3{24, 1, 24}, false)

	for i := 0; i < 4; i++ {
		id := es.SpawnCube("crate", mgl32.Vec3{-3, float32(2 + 2*i), 0}, mgl32.Vec3{1, 1, 1}, true)
		scene.Handle(id).Color(mgl32.Vec3{0.9, 0.6, 0.2})
	}
	for i := 0; i < 3; i++ {
		id := es.SpawnSphere("ball", mgl32.Vec3{float32(2 + i), 8, 0}, mgl32.Vec3{1, 1, 1}, true)
		scene.Handle(id).Color(mgl32.Vec3{0.3, 0.6, 0.9})
	}

	orbiterSrc := []byte(`
math := import("math")

update := func(engine, state, dt) {
	t := 0.0
	if state.t != undefined {
		t = state.t
	}
	t += dt
	state.t = t
	engine.at(6.0 * math.cos(t), 4.0, 6.0 * math.sin(t))
}
`)
	rt, err := script.New(orbiterSrc)
	if err != nil {
		log.Printf("sandbox: orbiter script: %v", err)
		return
	}
	id := es.SpawnSphere("orbiter", mgl32.Vec3{6, 4, 0}, mgl32.Vec3{0.5, 0.5, 0.5}, true)
	if e := es.GetEntityPtr(id); e != nil {
		scene.Handle(id).MakeStatic().Color(mgl32.Vec3{0.9, 0.3, 0.3})
		e.OnUpdate = rt.Hook(scene.Handle(id))
	}
}

