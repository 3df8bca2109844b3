package audio

import "errors"

var (
	// ErrMixerFailed is returned when the volume-control command fails or exits non-zero.
	ErrMixerFailed = errors.New("audio: mixer command failed")

	// ErrNoDevice is returned when a Mixer is built without a device identifier.
	ErrNoDevice = errors.New("audio: device is required")
)
