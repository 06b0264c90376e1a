// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. [Stereo] runs one
// coefficient set over a channel pair, which is what each equalizer band
// stage needs.
//
// This package provides the processing runtime only. Coefficient design
// lives in dsp/filter/design.
package biquad
