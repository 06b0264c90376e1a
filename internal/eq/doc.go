// Package eq keeps the equalizer's display state: twenty band gains in dB
// and a set of instrument sliders aliasing them in percent.
//
// Edits update both sides at once and commit to the audio stage after a
// short per-band debounce. Presets replace every band atomically and commit
// without delay.
package eq
