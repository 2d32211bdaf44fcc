package main

import (
	"github.com/retro8/chip8/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	Screen *sdl.Texture
)

/// InitScreen creates the render target for the CHIP-8 video memory.
///
func InitScreen() error {
	var err error

	// create a render target for the display
	Screen, err = Renderer.CreateTexture(sdl.PIXELFORMAT_RGB888, sdl.TEXTUREACCESS_TARGET, chip8.DisplayWidth, chip8.DisplayHeight)

	return err
}

/// RefreshScreen redraws the render target from the CHIP-8 video memory.
///
func RefreshScreen() {
	Renderer.SetRenderTarget(Screen)

	// the background color for the screen
	Renderer.SetDrawColor(143, 145, 133, 255)
	Renderer.Clear()

	// set the pixel color
	Renderer.SetDrawColor(17, 29, 43, 255)

	// draw every lit pixel of the row-major surface
	for y := int32(0); y < chip8.DisplayHeight; y++ {
		for x := int32(0); x < chip8.DisplayWidth; x++ {
			if VM.Video[y*chip8.DisplayWidth+x] != 0 {
				Renderer.DrawPoint(x, y)
			}
		}
	}

	// restore the render target
	Renderer.SetRenderTarget(nil)
}

/// CopyScreen stretches the render target over the window.
///
func CopyScreen() {
	src := sdl.Rect{
		W: chip8.DisplayWidth,
		H: chip8.DisplayHeight,
	}

	Renderer.Copy(Screen, &src, nil)
}
