package main

import (
	"github.com/veandco/go-sdl2/sdl"
)

const (
	toneHz   = 440
	sampleHz = 22050
)

var (
	/// The opened audio device.
	///
	AudioDev sdl.AudioDeviceID

	/// One frame (1/60 s) of square wave samples.
	///
	Tone []byte
)

/// InitAudio opens an audio device for the CHIP-8 virtual machine and
/// precomputes a frame of tone.
///
func InitAudio() error {
	spec := &sdl.AudioSpec{
		Freq:     sampleHz,
		Format:   sdl.AUDIO_U8,
		Channels: 1,
		Samples:  512,
	}

	dev, err := sdl.OpenAudioDevice("", false, spec, nil, 0)
	if err != nil {
		return err
	}

	AudioDev = dev

	// square wave, one video frame long
	Tone = make([]byte, sampleHz/60)
	period := sampleHz / toneHz

	for i := range Tone {
		if i%period < period/2 {
			Tone[i] = 0xA0
		} else {
			Tone[i] = 0x60
		}
	}

	// start the device; silence until samples are queued
	sdl.PauseAudioDevice(AudioDev, false)

	return nil
}

/// UpdateAudio queues a frame of tone while the sound timer runs. Called
/// once per video frame.
///
func UpdateAudio() {
	if VM.ST == 0 {
		return
	}

	// keep at most two frames buffered ahead
	if sdl.GetQueuedAudioSize(AudioDev) > uint32(2*len(Tone)) {
		return
	}

	sdl.QueueAudio(AudioDev, Tone)
}
