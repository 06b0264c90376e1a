// Package design provides biquad coefficient designers for equalizer bands.
//
// The functions in this package produce RBJ cookbook coefficients consumable
// by dsp/filter/biquad for runtime processing. Invalid parameters (frequency
// at or above Nyquist, non-finite values) yield the zero [biquad.Coefficients].
package design
