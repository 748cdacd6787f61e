package accuraterip

import "fmt"

// ChecksumError reports invalid input to the checksum engine.
type ChecksumError int

const (
	ErrInsufficientSamples ChecksumError = 1 // buffer is not a whole number of stereo samples
	ErrInvalidOffset       ChecksumError = 2 // requested offset outside the search range
	ErrMalformedResponse   ChecksumError = 3 // database response could not be decoded
)

func (ce ChecksumError) Error() string {
	return fmt.Sprintf("accuraterip: %v", ce.name())
}

func (ce ChecksumError) name() string {
	switch ce {
	case ErrInsufficientSamples:
		return "sample buffer is not a whole number of stereo samples"
	case ErrInvalidOffset:
		return "offset outside search range"
	case ErrMalformedResponse:
		return "malformed database response"
	default:
		return fmt.Sprintf("unknown error code: %v", int(ce))
	}
}
