package sectorflags

import "fmt"

// FlagError reports misuse of a BitTrack.
type FlagError int

const (
	ErrOutOfRange    FlagError = 1 // sector index outside the track
	ErrMalformedData FlagError = 2 // serialized bitmap does not match the sector count
	ErrFrozenTrack   FlagError = 3 // write after the track was read or serialized
)

func (fe FlagError) Error() string {
	return fmt.Sprintf("sectorflags: %v", fe.name())
}

func (fe FlagError) name() string {
	switch fe {
	case ErrOutOfRange:
		return "sector index out of range"
	case ErrMalformedData:
		return "malformed error flag data"
	case ErrFrozenTrack:
		return "track is frozen"
	default:
		return fmt.Sprintf("unknown error code: %v", int(fe))
	}
}
