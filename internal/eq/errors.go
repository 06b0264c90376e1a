package eq

import "errors"

var (
	ErrUnknownPreset    = errors.New("eq: unknown preset")
	ErrInstrumentIndex  = errors.New("eq: instrument index out of range")
	ErrInstrumentTable  = errors.New("eq: invalid instrument table")
	ErrDebouncerStopped = errors.New("eq: debouncer stopped")
)
