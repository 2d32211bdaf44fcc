package main

import (
	"flag"
	"runtime"
	"time"

	"github.com/retro8/chip8/chip8"
	"github.com/retroenv/retrogolib/log"
	"github.com/sqweek/dialog"
	"github.com/veandco/go-sdl2/sdl"
)

var (
	/// The CHIP-8 virtual machine.
	///
	VM *chip8.CHIP_8

	/// The SDL Window and Renderer.
	///
	Window   *sdl.Window
	Renderer *sdl.Renderer

	/// Host logger.
	///
	Logger *log.Logger

	/// Path of the loaded ROM, kept for reboots.
	///
	File string

	/// True if emulation is paused (single stepping).
	///
	Paused bool
)

func init() {
	runtime.LockOSThread()
}

func main() {
	debug := flag.Bool("debug", false, "enable debug logging")
	quiet := flag.Bool("q", false, "quiet mode")
	flag.Parse()

	Logger = createLogger(*debug, *quiet)

	// take the ROM from the command line, or ask for one
	File = flag.Arg(0)
	if File == "" {
		file, err := dialogFile()
		if err != nil {
			Logger.Fatal("No ROM selected", log.Err(err))
		}
		File = file
	}

	// create the CHIP-8 virtual machine, must happen early!
	vm, err := chip8.LoadFile(File)
	if err != nil {
		Logger.Fatal("Loading ROM failed", log.Err(err))
	}
	VM = vm

	Logger.Info("Loaded ROM", log.String("file", File))

	// initialize SDL or die
	if err = sdl.Init(sdl.INIT_VIDEO | sdl.INIT_AUDIO); err != nil {
		Logger.Fatal("Initializing SDL failed", log.Err(err))
	}
	defer sdl.Quit()

	// create the main window and renderer
	if Window, Renderer, err = sdl.CreateWindowAndRenderer(640, 320, sdl.WINDOW_SHOWN); err != nil {
		Logger.Fatal("Creating window failed", log.Err(err))
	}
	defer Window.Destroy()

	Window.SetTitle("CHIP-8")

	// initialize subsystems
	if err := InitScreen(); err != nil {
		Logger.Fatal("Creating screen texture failed", log.Err(err))
	}
	if err := InitAudio(); err != nil {
		Logger.Fatal("Opening audio device failed", log.Err(err))
	}

	// machine clock and refresh rate; the step rate paces timer decay
	clock := time.NewTicker(time.Millisecond * 2)
	video := time.NewTicker(time.Second / 60)

	// show the empty screen before the first draw
	Refresh()

	// loop until window closed or user quit
	for ProcessEvents() {
		select {
		case <-video.C:
			UpdateAudio()

			// hand the surface to the renderer only when it changed
			if VM.DrawFlag {
				VM.DrawFlag = false
				Refresh()
			}
		case <-clock.C:
			if !Paused {
				StepVM()
			}
		}
	}
}

/// createLogger builds the host logger with the level selected by the
/// command line flags.
///
func createLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

/// StepVM executes a single instruction. A fatal machine condition
/// pauses emulation; the only way forward is a reboot.
///
func StepVM() {
	if err := VM.Step(); err != nil {
		Logger.Error("Emulation halted", log.Err(err))
		Paused = true
	}
}

/// dialogFile opens a native file dialog asking for a ROM.
///
func dialogFile() (string, error) {
	return dialog.File().Title("Open ROM").Filter("CHIP-8 ROM", "ch8", "rom").Load()
}

/// Reboot builds a fresh machine and reloads the current ROM.
///
func Reboot() {
	vm, err := chip8.LoadFile(File)
	if err != nil {
		Logger.Error("Reloading ROM failed", log.Err(err))
		return
	}

	VM = vm
	Paused = false

	Logger.Info("Rebooted", log.String("file", File))
}

/// Refresh redraws the window from the CHIP-8 video surface.
///
func Refresh() {
	Renderer.SetDrawColor(32, 42, 53, 255)
	Renderer.Clear()

	// update the video screen and stretch it over the window
	RefreshScreen()
	CopyScreen()

	// show the new frame
	Renderer.Present()
}
