package app

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"gemshell/typedef"
)

// swipeThreshold is the horizontal wheel delta treated as a swipe gesture on
// touch-forwarding backends.
const swipeThreshold = 3.0

// ReadInput builds the per-frame input snapshot the host core consumes.
// Directional and select fields fire on key press, back and escape on key
// release, matching the exit rules of the plugin runtime.
func ReadInput() typedef.InputState {
	wheelX, wheelY := ebiten.Wheel()
	mouseX, mouseY := ebiten.CursorPosition()

	in := typedef.InputState{
		Up:     inpututil.IsKeyJustPressed(ebiten.KeyArrowUp) || inpututil.IsKeyJustPressed(ebiten.KeyW),
		Down:   inpututil.IsKeyJustPressed(ebiten.KeyArrowDown) || inpututil.IsKeyJustPressed(ebiten.KeyS),
		Left:   inpututil.IsKeyJustPressed(ebiten.KeyArrowLeft) || inpututil.IsKeyJustPressed(ebiten.KeyA),
		Right:  inpututil.IsKeyJustPressed(ebiten.KeyArrowRight) || inpututil.IsKeyJustPressed(ebiten.KeyD),
		Select: inpututil.IsKeyJustPressed(ebiten.KeyEnter) || inpututil.IsKeyJustPressed(ebiten.KeyZ),

		Back:   inpututil.IsKeyJustReleased(ebiten.KeyBackspace) || inpututil.IsKeyJustReleased(ebiten.KeyX),
		Escape: inpututil.IsKeyJustReleased(ebiten.KeyEscape),

		ScrollY: wheelY,

		SwipeLeft:  wheelX < -swipeThreshold,
		SwipeRight: wheelX > swipeThreshold,

		MouseX:    mouseX,
		MouseY:    mouseY,
		MouseDown: ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft),
	}

	if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		in.Tapped = true
		in.TapX, in.TapY = mouseX, mouseY
	}
	return in
}
