package main

import (
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/kiln3d/kiln/engine"
	"github.com/kiln3d/kiln/prefab"
	"github.com/kiln3d/kiln/script"
)

// reloader owns the prefab directory: it spawns every spec at startup and
// respawns entities as the watcher reports changed files. Events are
// drained on the game loop, never concurrently with the physics step.
type reloader struct {
	scene   *engine.Scene
	dir     string
	watcher *prefab.Watcher
	spawned map[string]spawnedPrefab
}

type spawnedPrefab struct {
	id     int
	script string
}

func newReloader(scene *engine.Scene, dir string) *reloader {
	return &reloader{scene: scene, dir: dir, spawned: map[string]spawnedPrefab{}}
}

func (r *reloader) spawnAll() {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		log.Printf("sandbox: prefab dir: %v", err)
		return
	}
	for _, entry := range entries {
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		r.spawnSpec(filepath.Join(r.dir, entry.Name()))
	}
}

func (r *reloader) watch() {
	w, err := prefab.NewWatcher(r.dir)
	if err != nil {
		log.Printf("sandbox: watch %s: %v", r.dir, err)
		return
	}
	r.watcher = w
}

func (r *reloader) close() {
	if r != nil && r.watcher != nil {
		_ = r.watcher.Close()
	}
}

// poll applies pending watcher events without blocking the frame.
func (r *reloader) poll() {
	if r == nil || r.watcher == nil {
		return
	}
	for {
		select {
		case ev, ok := <-r.watcher.Events:
			if !ok {
				r.watcher = nil
				return
			}
			r.apply(ev)
		default:
			return
		}
	}
}

func (r *reloader) apply(ev prefab.Event) {
	log.Printf("sandbox: %s changed: %s", ev.Kind, ev.Path)
	switch ev.Kind {
	case prefab.KindSpec:
		if old, ok := r.spawned[ev.Path]; ok {
			r.scene.Handle(old.id).Destroy()
			delete(r.spawned, ev.Path)
		}
		if _, err := os.Stat(ev.Path); err != nil {
			return // spec deleted, nothing to respawn
		}
		r.spawnSpec(ev.Path)
	case prefab.KindScript:
		name := filepath.Base(ev.Path)
		for _, sp := range r.spawned {
			if sp.script == name {
				r.attachScript(sp.id, ev.Path)
			}
		}
	}
}

func (r *reloader) spawnSpec(path string) {
	spec, err := prefab.LoadSpec[prefab.EntitySpec](path)
	if err != nil {
		log.Printf("sandbox: %v", err)
		return
	}
	id := prefab.Spawn(r.scene.Entities(), spec)
	if id < 0 {
		log.Printf("sandbox: spawn failed for %s", path)
		return
	}
	r.spawned[path] = spawnedPrefab{id: id, script: spec.Script}
	if spec.Script != "" {
		r.attachScript(id, filepath.Join(r.dir, spec.Script))
	}
}

func (r *reloader) attachScript(id int, path string) {
	src, err := os.ReadFile(path)
	if err != nil {
		log.Printf("sandbox: script %s: %v", path, err)
		return
	}
	rt, err := script.New(src)
	if err != nil {
		log.Printf("sandbox: script %s: %v", path, err)
		return
	}
	if e := r.scene.Entities().GetEntityPtr(id); e != nil {
		e.OnUpdate = rt.Hook(r.scene.Handle(id))
	}
}
