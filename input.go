package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

var (
	/// Mapping of modern keyboard to CHIP-8 keys.
	///
	KeyMap = map[sdl.Scancode]uint{
		sdl.SCANCODE_X: 0x0,
		sdl.SCANCODE_1: 0x1,
		sdl.SCANCODE_2: 0x2,
		sdl.SCANCODE_3: 0x3,
		sdl.SCANCODE_Q: 0x4,
		sdl.SCANCODE_W: 0x5,
		sdl.SCANCODE_E: 0x6,
		sdl.SCANCODE_A: 0x7,
		sdl.SCANCODE_S: 0x8,
		sdl.SCANCODE_D: 0x9,
		sdl.SCANCODE_Z: 0xA,
		sdl.SCANCODE_C: 0xB,
		sdl.SCANCODE_4: 0xC,
		sdl.SCANCODE_R: 0xD,
		sdl.SCANCODE_F: 0xE,
		sdl.SCANCODE_V: 0xF,
	}
)

/// ProcessEvents from SDL and map keys to the CHIP-8 VM.
///
func ProcessEvents() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.KeyboardEvent:
			if ev.Type == sdl.KEYDOWN {
				if !keyDown(ev.Keysym.Scancode) {
					return false
				}
			} else if ev.Type == sdl.KEYUP {
				if key, ok := KeyMap[ev.Keysym.Scancode]; ok {
					VM.ReleaseKey(key)
				}
			}
		}
	}

	return true
}

/// keyDown handles a pressed key; pad keys go to the VM, the rest
/// control the emulator. Returns false to quit.
///
func keyDown(scancode sdl.Scancode) bool {
	if key, ok := KeyMap[scancode]; ok {
		VM.PressKey(key)
		return true
	}

	switch scancode {
	case sdl.SCANCODE_ESCAPE:
		return false
	case sdl.SCANCODE_BACKSPACE:
		Reboot()
	case sdl.SCANCODE_F3:
		LoadDialog()
	case sdl.SCANCODE_F5, sdl.SCANCODE_SPACE:
		Paused = !Paused
	case sdl.SCANCODE_F6, sdl.SCANCODE_F10:
		if Paused {
			StepVM()
		}
	}

	return true
}

/// LoadDialog asks for a new ROM and boots it.
///
func LoadDialog() {
	file, err := dialogFile()
	if err != nil {
		// dialog canceled
		return
	}

	File = file
	Reboot()
}
