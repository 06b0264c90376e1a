package biquad

// Stereo runs one set of coefficients over a left/right channel pair.
// Each channel keeps its own delay line.
type Stereo struct {
	left, right Section
}

// NewStereo returns a Stereo pair with zero state.
func NewStereo(c Coefficients) *Stereo {
	return &Stereo{
		left:  Section{Coefficients: c},
		right: Section{Coefficients: c},
	}
}

// Coefficients returns the coefficients shared by both channels.
func (s *Stereo) Coefficients() Coefficients {
	return s.left.Coefficients
}

// SetCoefficients replaces the coefficients of both channels. The delay-line
// state is kept so a parameter change does not produce a discontinuity.
func (s *Stereo) SetCoefficients(c Coefficients) {
	s.left.Coefficients = c
	s.right.Coefficients = c
}

// ProcessBlock filters left and right in place. Both slices must have the
// same length.
func (s *Stereo) ProcessBlock(left, right []float64) {
	s.left.ProcessBlock(left)
	s.right.ProcessBlock(right)
}

// Reset clears both delay lines.
func (s *Stereo) Reset() {
	s.left.Reset()
	s.right.Reset()
}

// State returns the delay-line state of the left and right channels.
func (s *Stereo) State() [2][2]float64 {
	return [2][2]float64{s.left.State(), s.right.State()}
}
