package accuraterip

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Reference is one checksum known to the database for a track, with the
// number of submissions that agree on it.
type Reference struct {
	Checksum   uint32
	Confidence int
}

// Match is an offset at which the track's checksum equals a reference.
type Match struct {
	Offset     int // samples
	Checksum   uint32
	Confidence int
}

// better reports whether m should win over other when merging results.
func (m Match) better(other Match) bool {
	if m.Confidence != other.Confidence {
		return m.Confidence > other.Confidence
	}
	am, ao := abs(m.Offset), abs(other.Offset)
	if am != ao {
		return am < ao
	}
	return m.Offset < other.Offset
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Engine computes checksums and searches for alternate pressings.
// The zero value searches the full range on every CPU.
type Engine struct {
	MaxOffset int // search range in samples; 0 or anything above MaxOffset means MaxOffset
	Workers   int // parallel offset partitions; 0 means GOMAXPROCS
}

// NewEngine returns an Engine with the default search range.
func NewEngine() *Engine {
	return &Engine{MaxOffset: MaxOffset}
}

func (e *Engine) maxOffset() int {
	if e == nil || e.MaxOffset <= 0 || e.MaxOffset > MaxOffset {
		return MaxOffset
	}
	return e.MaxOffset
}

func (e *Engine) workers() int {
	if e == nil || e.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return e.Workers
}

// FindAlternateOffset looks for a non-zero offset within the search range at
// which the track's primary checksum equals one of refs. When several match,
// the one backed by the most submissions wins, then the smallest shift.
func (e *Engine) FindAlternateOffset(samples []int16, pos Position, refs []Reference) (Match, bool, error) {
	n, err := sampleCount(samples)
	if err != nil {
		return Match{}, false, err
	}
	a, b := pos.window(n)
	if len(refs) == 0 || b < a {
		return Match{}, false, nil
	}

	want := make(map[uint32]int, len(refs))
	for _, r := range refs {
		want[r.Checksum] += r.Confidence
	}

	limit := e.maxOffset()
	total := 2*limit + 1
	parts := min(e.workers(), total)
	chunk := (total + parts - 1) / parts

	best := make([]Match, parts)
	found := make([]bool, parts)

	var g errgroup.Group
	g.SetLimit(parts)
	for p := range parts {
		lo := -limit + p*chunk
		hi := min(lo+chunk-1, limit)
		if lo > hi {
			continue
		}
		g.Go(func() error {
			best[p], found[p] = scan(samples, a, b, lo, hi, want)
			return nil
		})
	}
	_ = g.Wait()

	var m Match
	ok := false
	for p := range parts {
		if found[p] && (!ok || best[p].better(m)) {
			m, ok = best[p], true
		}
	}
	return m, ok, nil
}

// scan walks offsets lo..hi over the window [a, b]. The first checksum is
// computed directly, the rest with
//
//	C(o+1) = C(o) - S(o) - a*w[a+o] + (b+1)*w[b+o+1]
//	S(o+1) = S(o) - w[a+o] + w[b+o+1]
//
// where S(o) is the plain sum of the words under the window.
func scan(samples []int16, a, b, lo, hi int, want map[uint32]int) (Match, bool) {
	var c, s uint32
	for i := a; i <= b; i++ {
		w := word(samples, i+lo)
		c += uint32(i+1) * w
		s += w
	}

	var best Match
	ok := false
	for o := lo; ; o++ {
		if conf, hit := want[c]; hit && o != 0 {
			m := Match{Offset: o, Checksum: c, Confidence: conf}
			if !ok || m.better(best) {
				best, ok = m, true
			}
		}
		if o == hi {
			break
		}
		head := word(samples, a+o)
		tail := word(samples, b+o+1)
		c = c - s - uint32(a)*head + uint32(b+1)*tail
		s = s - head + tail
	}
	return best, ok
}

// Confidence sums the submissions of every reference whose checksum equals
// one of sums.
func Confidence(refs []Reference, sums ...uint32) int {
	total := 0
	for _, r := range refs {
		for _, s := range sums {
			if r.Checksum == s {
				total += r.Confidence
				break
			}
		}
	}
	return total
}
