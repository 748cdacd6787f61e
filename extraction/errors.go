package extraction

import "fmt"

// BuildError reports why a record could not be assembled.
type BuildError int

const (
	ErrIncompleteExtraction BuildError = 1 // sample or flag count does not match the track
	ErrMissingTrack         BuildError = 2 // no track descriptor supplied
)

func (be BuildError) Error() string {
	return fmt.Sprintf("extraction: %v", be.name())
}

func (be BuildError) name() string {
	switch be {
	case ErrIncompleteExtraction:
		return "incomplete extraction"
	case ErrMissingTrack:
		return "missing track descriptor"
	default:
		return fmt.Sprintf("unknown error code: %v", int(be))
	}
}
