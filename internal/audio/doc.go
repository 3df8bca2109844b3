// Package audio adjusts the system output level through ALSA's amixer.
//
// A Mixer is bound to one device and control at construction and runs
//
//	amixer -D <device> sset <control> <N>%
//
// for every SetVolume call. Failures are returned to the caller; the bridge
// logs them and carries on.
package audio
