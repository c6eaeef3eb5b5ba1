// Package ebiten provides Dear ImGui backend integration for the Ebiten game engine.
package ebiten

import (
	ebitenbackend "github.com/AllenDang/cimgui-go/backend/ebiten-backend"
	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/hajimehoshi/ebiten/v2"
)

// ImguiBackend wraps the Ebiten-specific Dear ImGui backend implementation.
// It satisfies the frame, draw and layout hooks of host.Game, so passing it
// to Game.Use brackets every tick with an ImGui frame and draws the overlay
// on top of the scene.
type ImguiBackend struct {
	*ebitenbackend.EbitenBackend
}

// NewImguiBackend creates the backend and its window. The imgui.ini file is
// disabled so debug sessions do not leave layout files behind.
func NewImguiBackend(title string, width, height int) *ImguiBackend {
	backend := ebitenbackend.NewEbitenBackend()
	backend.CreateWindow(title, width, height)
	imgui.CurrentIO().SetIniFilename("")
	return &ImguiBackend{EbitenBackend: backend}
}

func (b *ImguiBackend) BeginFrame()               { b.EbitenBackend.BeginFrame() }
func (b *ImguiBackend) EndFrame()                 { b.EbitenBackend.EndFrame() }
func (b *ImguiBackend) Draw(screen *ebiten.Image) { b.EbitenBackend.Draw(screen) }
func (b *ImguiBackend) Layout(outsideWidth, outsideHeight int) {
	b.EbitenBackend.Layout(outsideWidth, outsideHeight)
}
