package extraction

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/sectorflags"
)

// Record is the immutable result of extracting one track.
type Record struct {
	track       *disc.TrackDescriptor
	drive       *disc.DriveInformation
	errorFlags  *sectorflags.BitTrack
	checksums   accuraterip.Result
	status      accuraterip.Status
	md5         [16]byte
	sha1        [20]byte
	date        time.Time
	destination string
}

// Track returns the descriptor of the extracted track. Callers must not
// modify it.
func (r *Record) Track() *disc.TrackDescriptor { return r.track }

// Drive returns the drive the track was read with, if known.
func (r *Record) Drive() *disc.DriveInformation { return r.drive }

// ErrorFlags returns the frozen per-sector error bitmap.
func (r *Record) ErrorFlags() *sectorflags.BitTrack { return r.errorFlags }

// Checksums returns the AccurateRip checksums and confidence.
func (r *Record) Checksums() accuraterip.Result { return r.checksums }

// Status summarizes the checksums against the error flags.
func (r *Record) Status() accuraterip.Status { return r.status }

// MD5 returns the digest of the audio written to the destination.
func (r *Record) MD5() [16]byte { return r.md5 }

// SHA1 returns the digest of the audio written to the destination.
func (r *Record) SHA1() [20]byte { return r.sha1 }

// MD5Hex renders the MD5 digest as lowercase hex.
func (r *Record) MD5Hex() string { return hex.EncodeToString(r.md5[:]) }

// SHA1Hex renders the SHA1 digest as lowercase hex.
func (r *Record) SHA1Hex() string { return hex.EncodeToString(r.sha1[:]) }

// Date is the wall clock time the record was built.
func (r *Record) Date() time.Time { return r.date }

// Destination is the file the audio was written to.
func (r *Record) Destination() string { return r.destination }

func (r *Record) String() string {
	v1, _ := r.checksums.Checksum(accuraterip.KindPrimary)
	return fmt.Sprintf("%v: %s AR %s (confidence %d), %d sector(s) flagged, md5 %s",
		r.track, r.status, accuraterip.FormatChecksum(v1), r.checksums.Confidence(),
		r.errorFlags.ErrorCount(), r.MD5Hex())
}

// RecordData is the flat form of a Record used for persistence.
type RecordData struct {
	Track       disc.TrackDescriptor
	Drive       *disc.DriveInformation
	ErrorFlags  []byte // compact form
	Checksum    uint32
	ChecksumV2  uint32
	Alternate   *uint32
	AltOffset   *int
	Confidence  int
	Status      accuraterip.Status
	MD5         [16]byte
	SHA1        [20]byte
	Date        time.Time
	Destination string
}

// Data flattens the record.
func (r *Record) Data() RecordData {
	d := RecordData{
		Track:       *r.track,
		ErrorFlags:  r.errorFlags.CompactForm(),
		Confidence:  r.checksums.Confidence(),
		Status:      r.status,
		MD5:         r.md5,
		SHA1:        r.sha1,
		Date:        r.date,
		Destination: r.destination,
	}
	if r.drive != nil {
		drv := *r.drive
		d.Drive = &drv
	}
	d.Checksum, _ = r.checksums.Checksum(accuraterip.KindPrimary)
	d.ChecksumV2, _ = r.checksums.Checksum(accuraterip.KindV2)
	if alt, ok := r.checksums.Checksum(accuraterip.KindAlternatePressing); ok {
		d.Alternate = &alt
	}
	if off, ok := r.checksums.AlternateOffset(); ok {
		d.AltOffset = &off
	}
	return d
}

// FromData restores a record from its flat form.
func FromData(d RecordData) (*Record, error) {
	track := d.Track
	flags, err := sectorflags.FromCompactForm(d.ErrorFlags, int(track.SectorCount()))
	if err != nil {
		return nil, fmt.Errorf("track %d error flags: %w", track.Number, err)
	}
	sums := map[accuraterip.Kind]uint32{
		accuraterip.KindPrimary: d.Checksum,
		accuraterip.KindV2:      d.ChecksumV2,
	}
	if d.Alternate != nil {
		sums[accuraterip.KindAlternatePressing] = *d.Alternate
	}
	r := &Record{
		track:       &track,
		errorFlags:  flags,
		checksums:   accuraterip.NewResult(sums, d.AltOffset, d.Confidence),
		status:      d.Status,
		md5:         d.MD5,
		sha1:        d.SHA1,
		date:        d.Date,
		destination: d.Destination,
	}
	if d.Drive != nil {
		drv := *d.Drive
		r.drive = &drv
	}
	return r, nil
}
