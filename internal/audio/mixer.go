package audio

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// defaultCommandTimeout bounds a single amixer invocation.
const defaultCommandTimeout = 5 * time.Second

// maxOutputLen caps how much command output is carried in an error.
const maxOutputLen = 256

// Runner executes a command and returns its combined output.
// The default runner uses os/exec; tests substitute a fake.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

// execRunner runs the command as a subprocess.
func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Config holds the ALSA target for a Mixer.
type Config struct {
	// Device is the ALSA device passed to amixer -D (e.g. "default", "hw:0").
	Device string

	// Control is the simple mixer control to set. Default: "Master".
	Control string

	// Binary is the amixer executable. Default: "amixer".
	Binary string

	// Timeout bounds each invocation. Default: 5s.
	Timeout time.Duration

	// Runner overrides command execution. Default: os/exec.
	Runner Runner
}

// Mixer sets the output volume of one ALSA device.
//
// Thread Safety:
//   - Safe for concurrent use; each call runs its own subprocess.
type Mixer struct {
	device  string
	control string
	binary  string
	timeout time.Duration
	run     Runner
}

// NewMixer creates a Mixer for the configured device.
func NewMixer(cfg Config) (*Mixer, error) {
	if cfg.Device == "" {
		return nil, ErrNoDevice
	}

	m := &Mixer{
		device:  cfg.Device,
		control: cfg.Control,
		binary:  cfg.Binary,
		timeout: cfg.Timeout,
		run:     cfg.Runner,
	}
	if m.control == "" {
		m.control = "Master"
	}
	if m.binary == "" {
		m.binary = "amixer"
	}
	if m.timeout <= 0 {
		m.timeout = defaultCommandTimeout
	}
	if m.run == nil {
		m.run = execRunner
	}

	return m, nil
}

// Device returns the ALSA device this mixer controls.
func (m *Mixer) Device() string {
	return m.device
}

// SetVolume sets the control to percent.
//
// The value is passed to amixer unchanged; amixer itself saturates values
// outside 0-100.
//
// Returns:
//   - error: ErrMixerFailed with the command output if amixer fails
func (m *Mixer) SetVolume(ctx context.Context, percent int) error {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	args := m.args(percent)
	out, err := m.run(ctx, m.binary, args...)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w: %s", ErrMixerFailed, m.binary, strings.Join(args, " "), err, trimOutput(out))
	}

	return nil
}

// args builds the amixer argument list: -D <device> sset <control> <N>%
func (m *Mixer) args(percent int) []string {
	return []string{"-D", m.device, "sset", m.control, strconv.Itoa(percent) + "%"}
}

// trimOutput shortens command output for inclusion in an error.
func trimOutput(out []byte) string {
	s := strings.TrimSpace(string(out))
	if len(s) > maxOutputLen {
		s = s[:maxOutputLen] + "..."
	}
	return s
}
