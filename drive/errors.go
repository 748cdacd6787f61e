package drive

import "fmt"

// ReadError reports a failed track read.
type ReadError int

const (
	ErrTooManyFailures ReadError = 1 // consecutive sector failures hit the limit
	ErrUnsupported     ReadError = 2 // no cdparanoia support in this build
	ErrNoAudio         ReadError = 3 // the disc has no readable audio
)

func (re ReadError) Error() string {
	return fmt.Sprintf("drive: %v", re.name())
}

func (re ReadError) name() string {
	switch re {
	case ErrTooManyFailures:
		return "too many consecutive read failures"
	case ErrUnsupported:
		return "cd drives are only supported on linux with cgo"
	case ErrNoAudio:
		return "no audio tracks on disc"
	default:
		return fmt.Sprintf("unknown error code: %v", int(re))
	}
}
