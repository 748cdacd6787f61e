// Package disc models the structure of a compact disc: sessions, tracks,
// and the drive that read them.
//
// A CompactDisc owns its sessions and each Session owns its tracks.
// Every entity carries a stable ID assigned by the disc; references back
// up the tree are plain ID fields.
package disc

import (
	"fmt"
	"slices"
)

// ID identifies an entity within one CompactDisc.
type ID uint32

// Session is one recording session of a disc.
type Session struct {
	ID     ID
	DiscID ID
	Number int
	tracks []*TrackDescriptor
	d      *CompactDisc
}

// CompactDisc is the root of the disc graph.
type CompactDisc struct {
	ID       ID
	sessions []*Session
	nextID   ID
	leadOut  int32
}

// New returns an empty disc whose lead-out is at sector leadOut.
func New(leadOut int32) *CompactDisc {
	d := &CompactDisc{leadOut: leadOut}
	d.ID = d.allocID()
	return d
}

func (d *CompactDisc) allocID() ID {
	d.nextID++
	return d.nextID
}

// LeadOut returns the first sector after the audio program.
func (d *CompactDisc) LeadOut() int32 {
	return d.leadOut
}

// AddSession creates and appends a session with the given number.
func (d *CompactDisc) AddSession(number int) (*Session, error) {
	if d.SessionNumber(number) != nil {
		return nil, fmt.Errorf("disc: session %d already exists", number)
	}
	s := &Session{ID: d.allocID(), DiscID: d.ID, Number: number, d: d}
	d.sessions = append(d.sessions, s)
	return s, nil
}

// RemoveSession drops a session and all of its tracks.
func (d *CompactDisc) RemoveSession(id ID) bool {
	i := slices.IndexFunc(d.sessions, func(s *Session) bool { return s.ID == id })
	if i < 0 {
		return false
	}
	d.sessions = slices.Delete(d.sessions, i, i+1)
	return true
}

// OrderedSessions returns the sessions sorted by number.
func (d *CompactDisc) OrderedSessions() []*Session {
	out := slices.Clone(d.sessions)
	slices.SortFunc(out, func(a, b *Session) int { return a.Number - b.Number })
	return out
}

// FirstSession returns the lowest numbered session, or nil.
func (d *CompactDisc) FirstSession() *Session {
	s := d.OrderedSessions()
	if len(s) == 0 {
		return nil
	}
	return s[0]
}

// LastSession returns the highest numbered session, or nil.
func (d *CompactDisc) LastSession() *Session {
	s := d.OrderedSessions()
	if len(s) == 0 {
		return nil
	}
	return s[len(s)-1]
}

// SessionNumber looks up a session by number.
func (d *CompactDisc) SessionNumber(number int) *Session {
	for _, s := range d.sessions {
		if s.Number == number {
			return s
		}
	}
	return nil
}

// TrackNumber looks up a track by number across all sessions.
func (d *CompactDisc) TrackNumber(number uint8) *TrackDescriptor {
	for _, s := range d.sessions {
		if t := s.TrackNumber(number); t != nil {
			return t
		}
	}
	return nil
}

// Track looks up a track by ID.
func (d *CompactDisc) Track(id ID) *TrackDescriptor {
	for _, s := range d.sessions {
		for _, t := range s.tracks {
			if t.ID == id {
				return t
			}
		}
	}
	return nil
}

// Tracks returns every track in session then track order.
func (d *CompactDisc) Tracks() []*TrackDescriptor {
	var out []*TrackDescriptor
	for _, s := range d.OrderedSessions() {
		out = append(out, s.Tracks()...)
	}
	return out
}

// AudioTracks returns the tracks of the first session that hold audio.
func (d *CompactDisc) AudioTracks() []*TrackDescriptor {
	s := d.FirstSession()
	if s == nil {
		return nil
	}
	var out []*TrackDescriptor
	for _, t := range s.Tracks() {
		if !t.IsDataTrack {
			out = append(out, t)
		}
	}
	return out
}

// IsFirstTrack reports whether t is the first audio track on the disc.
func (d *CompactDisc) IsFirstTrack(t *TrackDescriptor) bool {
	audio := d.AudioTracks()
	return len(audio) > 0 && audio[0].ID == t.ID
}

// IsLastTrack reports whether t is the last audio track on the disc.
func (d *CompactDisc) IsLastTrack(t *TrackDescriptor) bool {
	audio := d.AudioTracks()
	return len(audio) > 0 && audio[len(audio)-1].ID == t.ID
}

// AddTrack appends a track to the session and assigns its IDs.
// The sector bounds must not be inverted.
func (s *Session) AddTrack(t TrackDescriptor) (*TrackDescriptor, error) {
	if t.LastSector < t.FirstSector {
		return nil, fmt.Errorf("disc: track %d ends before it starts (%d < %d)", t.Number, t.LastSector, t.FirstSector)
	}
	if s.d.TrackNumber(t.Number) != nil {
		return nil, fmt.Errorf("disc: track %d already exists", t.Number)
	}
	t.ID = s.d.allocID()
	t.SessionID = s.ID
	if t.ChannelsPerFrame == 0 {
		t.ChannelsPerFrame = 2
	}
	td := &t
	s.tracks = append(s.tracks, td)
	return td, nil
}

// RemoveTrack drops a track from the session.
func (s *Session) RemoveTrack(id ID) bool {
	i := slices.IndexFunc(s.tracks, func(t *TrackDescriptor) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	s.tracks = slices.Delete(s.tracks, i, i+1)
	return true
}

// Tracks returns the session's tracks ordered by number.
func (s *Session) Tracks() []*TrackDescriptor {
	out := slices.Clone(s.tracks)
	slices.SortFunc(out, func(a, b *TrackDescriptor) int { return int(a.Number) - int(b.Number) })
	return out
}

// TrackNumber looks up a track in this session by number.
func (s *Session) TrackNumber(number uint8) *TrackDescriptor {
	for _, t := range s.tracks {
		if t.Number == number {
			return t
		}
	}
	return nil
}

// FirstTrack returns the lowest numbered track, or nil.
func (s *Session) FirstTrack() *TrackDescriptor {
	t := s.Tracks()
	if len(t) == 0 {
		return nil
	}
	return t[0]
}

// LastTrack returns the highest numbered track, or nil.
func (s *Session) LastTrack() *TrackDescriptor {
	t := s.Tracks()
	if len(t) == 0 {
		return nil
	}
	return t[len(t)-1]
}
