package accuraterip

// ErrorCounter is anything that knows how many sectors were flagged
// during extraction.
type ErrorCounter interface {
	ErrorCount() int
}

// Status summarizes how far a rip can be trusted.
type Status int

const (
	StatusNotInDatabase             Status = iota // nothing to compare against
	StatusAccurate                                // primary checksum matched
	StatusAccurateAlternatePressing               // matched at an alternate pressing offset
	StatusMismatch                                // no match, no sectors flagged
	StatusSuspect                                 // no match and the drive flagged sectors
)

func (s Status) String() string {
	switch s {
	case StatusNotInDatabase:
		return "not in database"
	case StatusAccurate:
		return "accurate"
	case StatusAccurateAlternatePressing:
		return "accurate (alternate pressing)"
	case StatusMismatch:
		return "mismatch"
	case StatusSuspect:
		return "suspect"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, bool) {
	for st := StatusNotInDatabase; st <= StatusSuspect; st++ {
		if st.String() == s {
			return st, true
		}
	}
	return StatusNotInDatabase, false
}

// Assess correlates a checksum result with the extraction's error flags.
// consulted says whether any database references were available; without
// them a zero confidence means the disc is unknown rather than wrong.
func Assess(r Result, consulted bool, errs ErrorCounter) Status {
	if _, alt := r.AlternateOffset(); alt && r.Confidence() > 0 {
		return StatusAccurateAlternatePressing
	}
	if r.Confidence() > 0 {
		return StatusAccurate
	}
	if !consulted {
		return StatusNotInDatabase
	}
	if errs != nil && errs.ErrorCount() > 0 {
		return StatusSuspect
	}
	return StatusMismatch
}
