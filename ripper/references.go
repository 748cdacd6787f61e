package ripper

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rabidaudio/ripcheck/accuraterip"
)

// ReferenceSource looks up the AccurateRip database entries of a disc.
// A disc the database does not know returns no responses and no error.
type ReferenceSource interface {
	Lookup(id accuraterip.DiscID) ([]accuraterip.Response, error)
}

// DirReferences reads dBAR files stored under Root using the database's
// own path layout.
type DirReferences struct {
	Root string
}

func (d DirReferences) Lookup(id accuraterip.DiscID) ([]accuraterip.Response, error) {
	path := filepath.Join(d.Root, filepath.FromSlash(id.Path()))
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	responses, err := accuraterip.ParseDatabase(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return responses, nil
}
