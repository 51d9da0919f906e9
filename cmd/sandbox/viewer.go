package main

import (
	"fmt"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"golang.org/x/image/colornames"

	"github.com/kiln3d/kiln/engine"
)

const pixelsPerUnit = 32.0

// viewer is an orthographic XY wireframe projection of the scene. The Z
// axis is dropped; it exists to watch bodies fall, not to render the game.
type viewer struct {
	scene  *engine.Scene
	reload *reloader
	width  int
	height int
}

func newViewer(scene *engine.Scene, reload *reloader) *viewer {
	return &viewer{scene: scene, reload: reload, width: 1280, height: 720}
}

func (v *viewer) Update() error {
	v.reload.poll()
	v.scene.Update(1.0 / 60.0)
	return nil
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(colornames.Black)
	v.scene.Render(&wireframe{screen: screen, cx: float64(v.width) / 2, cy: float64(v.height) * 0.75})

	ps := v.scene.Physics()
	ebitenutil.DebugPrint(screen, fmt.Sprintf("bodies: %d  entities: %d",
		ps.NumBodies(), len(v.scene.Entities().Entities())))
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	v.width, v.height = outsideWidth, outsideHeight
	return outsideWidth, outsideHeight
}

// wireframe adapts the scene's Renderer interface to 2D debug lines.
type wireframe struct {
	screen *ebiten.Image
	cx, cy float64
}

func (w *wireframe) project(p mgl32.Vec3) (float64, float64) {
	return w.cx + float64(p.X())*pixelsPerUnit, w.cy - float64(p.Y())*pixelsPerUnit
}

func (w *wireframe) DrawCube(t engine.Transform, shader string, c mgl32.Vec3) {
	w.drawRect(t, c)
}

func (w *wireframe) DrawPlane(t engine.Transform, shader string, c mgl32.Vec3) {
	w.drawRect(t, c)
}

func (w *wireframe) DrawSphere(t engine.Transform, shader string, c mgl32.Vec3) {
	x, y := w.project(t.Position)
	// Largest scale axis matches the collision radius rule.
	r := float64(t.Scale.X())
	if float64(t.Scale.Y()) > r {
		r = float64(t.Scale.Y())
	}
	if float64(t.Scale.Z()) > r {
		r = float64(t.Scale.Z())
	}
	r = r / 2 * pixelsPerUnit

	col := toRGBA(c)
	steps := 20
	px, py := x+r, y
	for i := 1; i <= steps; i++ {
		th := float64(i) * (2 * math.Pi / float64(steps))
		nx, ny := x+math.Cos(th)*r, y+math.Sin(th)*r
		ebitenutil.DrawLine(w.screen, px, py, nx, ny, col)
		px, py = nx, ny
	}
}

func (w *wireframe) drawRect(t engine.Transform, c mgl32.Vec3) {
	x, y := w.project(t.Position)
	hw := float64(t.Scale.X()) / 2 * pixelsPerUnit
	hh := float64(t.Scale.Y()) / 2 * pixelsPerUnit
	col := toRGBA(c)
	ebitenutil.DrawLine(w.screen, x-hw, y-hh, x+hw, y-hh, col)
	ebitenutil.DrawLine(w.screen, x+hw, y-hh, x+hw, y+hh, col)
	ebitenutil.DrawLine(w.screen, x+hw, y+hh, x-hw, y+hh, col)
	ebitenutil.DrawLine(w.screen, x-hw, y+hh, x-hw, y-hh, col)
}

func toRGBA(c mgl32.Vec3) color.RGBA {
	clamp := func(v float32) uint8 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 255
		}
		return uint8(v * 255)
	}
	return color.RGBA{R: clamp(c.X()), G: clamp(c.Y()), B: clamp(c.Z()), A: 255}
}
