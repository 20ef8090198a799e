// Package frontend hosts the display, keypad and audio collaborators
// around the chip8 core, plus the driver loop that paces it.
package frontend

import (
	"image"
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"chip8emu/chip8"
)

// windowScale enlarges the 64x32 framebuffer to a usable window size.
const windowScale = 10

// Conventional CHIP-8 keypad layout on the left side of a QWERTY board:
// 1234/QWER/ASDF/ZXCV map to the hex keys 123C/456D/789E/A0BF.
var keyMap = map[fyne.KeyName]uint8{
	fyne.Key1: 0x1, fyne.Key2: 0x2, fyne.Key3: 0x3, fyne.Key4: 0xC,
	fyne.KeyQ: 0x4, fyne.KeyW: 0x5, fyne.KeyE: 0x6, fyne.KeyR: 0xD,
	fyne.KeyA: 0x7, fyne.KeyS: 0x8, fyne.KeyD: 0x9, fyne.KeyF: 0xE,
	fyne.KeyZ: 0xA, fyne.KeyX: 0x0, fyne.KeyC: 0xB, fyne.KeyV: 0xF,
}

// screen owns the RGBA back-buffer the framebuffer is rendered into and
// the fyne image shown in the window.
type screen struct {
	buffer *image.RGBA
	image  *canvas.Image
}

func newScreen() *screen {
	buffer := image.NewRGBA(image.Rect(0, 0, chip8.Width, chip8.Height))

	img := canvas.NewImageFromImage(buffer)
	img.FillMode = canvas.ImageFillStretch  // scale the 64x32 grid to the window
	img.ScaleMode = canvas.ImageScalePixels // keep hard pixel edges

	return &screen{
		buffer: buffer,
		image:  img,
	}
}

// render copies the framebuffer into the back-buffer and refreshes the
// window image. Must not be called from the fyne event loop itself.
func (s *screen) render(display []byte) {
	for i, cell := range display {
		x, y := i%chip8.Width, i/chip8.Width
		c := color.Black
		if cell != 0 {
			c = color.White
		}
		s.buffer.Set(x, y, c)
	}

	fyne.Do(func() {
		s.image.Refresh()
	})
}

// keyHandler writes host key events into the processor's keypad. The
// engine only ever reads key state; this is the sole writer.
type keyHandler struct {
	proc *chip8.Processor
}

func (k *keyHandler) onKeyDown(ev *fyne.KeyEvent) {
	if hex, ok := keyMap[ev.Name]; ok {
		k.proc.SetKey(hex, true)
	}
}

func (k *keyHandler) onKeyUp(ev *fyne.KeyEvent) {
	if hex, ok := keyMap[ev.Name]; ok {
		k.proc.SetKey(hex, false)
	}
}
