// Package store keeps extraction records in a sqlite database.
package store

import (
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rabidaudio/ripcheck/accuraterip"
	"github.com/rabidaudio/ripcheck/disc"
	"github.com/rabidaudio/ripcheck/extraction"
)

// ErrNotFound is returned by Get for unknown IDs.
var ErrNotFound = errors.New("store: record not found")

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id             TEXT PRIMARY KEY,
	disc_id        TEXT NOT NULL,
	track_number   INTEGER NOT NULL,
	first_sector   INTEGER NOT NULL,
	last_sector    INTEGER NOT NULL,
	pregap         INTEGER NOT NULL DEFAULT 0,
	channels       INTEGER NOT NULL DEFAULT 2,
	copy_permitted INTEGER NOT NULL DEFAULT 0,
	pre_emphasis   INTEGER NOT NULL DEFAULT 0,
	data_track     INTEGER NOT NULL DEFAULT 0,
	drive_vendor   TEXT,
	drive_model    TEXT,
	read_offset    INTEGER,
	error_flags    BLOB NOT NULL,
	checksum       INTEGER NOT NULL,
	checksum_v2    INTEGER NOT NULL,
	alt_checksum   INTEGER,
	alt_offset     INTEGER,
	confidence     INTEGER NOT NULL DEFAULT 0,
	status         TEXT NOT NULL,
	md5            TEXT NOT NULL,
	sha1           TEXT NOT NULL,
	destination    TEXT DEFAULT '',
	extracted_at   INTEGER NOT NULL,
	created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_records_disc ON records(disc_id, track_number);
`

const columns = `id, disc_id, track_number, first_sector, last_sector, pregap, channels,
	copy_permitted, pre_emphasis, data_track, drive_vendor, drive_model, read_offset,
	error_flags, checksum, checksum_v2, alt_checksum, alt_offset, confidence, status,
	md5, sha1, destination, extracted_at`

// Store is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Entry is a stored record with its keys.
type Entry struct {
	ID     uuid.UUID
	DiscID string
	*extraction.Record
}

// Open creates or opens the database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Save inserts r under discID and returns its new ID.
func (s *Store) Save(discID string, r *extraction.Record) (uuid.UUID, error) {
	id := uuid.New()
	d := r.Data()

	var vendor, model sql.NullString
	var readOffset, altSum, altOffset sql.NullInt64
	if d.Drive != nil {
		vendor = sql.NullString{String: d.Drive.Vendor, Valid: true}
		model = sql.NullString{String: d.Drive.Model, Valid: true}
		readOffset = sql.NullInt64{Int64: int64(d.Drive.ReadOffset), Valid: true}
	}
	if d.Alternate != nil {
		altSum = sql.NullInt64{Int64: int64(*d.Alternate), Valid: true}
	}
	if d.AltOffset != nil {
		altOffset = sql.NullInt64{Int64: int64(*d.AltOffset), Valid: true}
	}

	_, err := s.db.Exec(`INSERT INTO records (`+columns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id.String(), discID, d.Track.Number, d.Track.FirstSector, d.Track.LastSector,
		d.Track.PreGap, d.Track.ChannelsPerFrame, d.Track.DigitalCopyPermitted,
		d.Track.HasPreEmphasis, d.Track.IsDataTrack, vendor, model, readOffset,
		d.ErrorFlags, int64(d.Checksum), int64(d.ChecksumV2), altSum, altOffset,
		d.Confidence, d.Status.String(), hex.EncodeToString(d.MD5[:]),
		hex.EncodeToString(d.SHA1[:]), d.Destination, d.Date.UnixNano(),
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save track %d: %w", d.Track.Number, err)
	}
	return id, nil
}

// Get loads one record.
func (s *Store) Get(id uuid.UUID) (Entry, error) {
	row := s.db.QueryRow(`SELECT `+columns+` FROM records WHERE id = ?`, id.String())
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%v: %w", id, ErrNotFound)
	}
	return e, err
}

// ListByDisc returns every record of a disc ordered by track, oldest
// first within a track.
func (s *Store) ListByDisc(discID string) ([]Entry, error) {
	return s.query(`SELECT `+columns+` FROM records WHERE disc_id = ?
		ORDER BY track_number, extracted_at`, discID)
}

// Recent returns the newest records across all discs.
func (s *Store) Recent(limit int) ([]Entry, error) {
	return s.query(`SELECT `+columns+` FROM records
		ORDER BY extracted_at DESC, track_number LIMIT ?`, limit)
}

func (s *Store) query(q string, args ...any) ([]Entry, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e                       Entry
		id, status, md5h, sha1h string
		d                       extraction.RecordData
		vendor, model           sql.NullString
		readOffset              sql.NullInt64
		altSum, altOffset       sql.NullInt64
		sum, sumV2, extractedAt int64
	)
	err := row.Scan(&id, &e.DiscID, &d.Track.Number, &d.Track.FirstSector, &d.Track.LastSector,
		&d.Track.PreGap, &d.Track.ChannelsPerFrame, &d.Track.DigitalCopyPermitted,
		&d.Track.HasPreEmphasis, &d.Track.IsDataTrack, &vendor, &model, &readOffset,
		&d.ErrorFlags, &sum, &sumV2, &altSum, &altOffset, &d.Confidence, &status,
		&md5h, &sha1h, &d.Destination, &extractedAt)
	if err != nil {
		return Entry{}, err
	}

	if e.ID, err = uuid.Parse(id); err != nil {
		return Entry{}, err
	}
	if vendor.Valid {
		d.Drive = &disc.DriveInformation{Vendor: vendor.String, Model: model.String, ReadOffset: int(readOffset.Int64)}
	}
	d.Checksum, d.ChecksumV2 = uint32(sum), uint32(sumV2)
	if altSum.Valid {
		v := uint32(altSum.Int64)
		d.Alternate = &v
	}
	if altOffset.Valid {
		v := int(altOffset.Int64)
		d.AltOffset = &v
	}
	var ok bool
	if d.Status, ok = accuraterip.ParseStatus(status); !ok {
		return Entry{}, fmt.Errorf("record %s: unknown status %q", id, status)
	}
	if err := decodeHex(d.MD5[:], md5h); err != nil {
		return Entry{}, fmt.Errorf("record %s md5: %w", id, err)
	}
	if err := decodeHex(d.SHA1[:], sha1h); err != nil {
		return Entry{}, fmt.Errorf("record %s sha1: %w", id, err)
	}
	d.Date = time.Unix(0, extractedAt).UTC()

	if e.Record, err = extraction.FromData(d); err != nil {
		return Entry{}, fmt.Errorf("record %s: %w", id, err)
	}
	return e, nil
}

func decodeHex(dst []byte, s string) error {
	b, err := hex.DecodeString(s)
	if err != nil {
		return err
	}
	if len(b) != len(dst) {
		return fmt.Errorf("digest is %d bytes, want %d", len(b), len(dst))
	}
	copy(dst, b)
	return nil
}
