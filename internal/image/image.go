// Package image stores translated programs as msgpack files.
package image

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"llvmexec/internal/exec"
	"llvmexec/internal/version"
)

// Current schema version - increment when the Program encoding changes
const SchemaVersion uint16 = 1

const magic = "llvmexec-image"

var (
	// ErrNotImage is returned for input that does not start with an image header.
	ErrNotImage = errors.New("not a program image")
	// ErrSchema is returned for images written with another schema version.
	ErrSchema = errors.New("unsupported image schema")
)

// Header precedes the program in every image.
type Header struct {
	Magic   string
	Schema  uint16
	Tool    string
	Modules int
}

type payload struct {
	Header  Header
	Program *exec.Program
}

// Write encodes p to w.
func Write(w io.Writer, p *exec.Program) error {
	if p == nil {
		return fmt.Errorf("image: nil program")
	}
	enc := msgpack.NewEncoder(w)
	enc.UseCompactInts(true)
	return enc.Encode(&payload{
		Header:  Header{Magic: magic, Schema: SchemaVersion, Tool: version.Short(), Modules: 1},
		Program: p,
	})
}

// Read decodes one program from r and checks its header.
func Read(r io.Reader) (*exec.Program, Header, error) {
	var pl payload
	if err := msgpack.NewDecoder(r).Decode(&pl); err != nil {
		return nil, Header{}, fmt.Errorf("%w: %w", ErrNotImage, err)
	}
	h := pl.Header
	if h.Magic != magic {
		return nil, h, ErrNotImage
	}
	if h.Schema != SchemaVersion {
		return nil, h, fmt.Errorf("%w: %d (want %d)", ErrSchema, h.Schema, SchemaVersion)
	}
	if pl.Program == nil {
		return nil, h, fmt.Errorf("%w: no program", ErrNotImage)
	}
	return pl.Program, h, nil
}

// WriteFile writes the image to a temporary file beside path and renames
// it into place.
func WriteFile(path string, p *exec.Program) (err error) {
	dir := filepath.Dir(path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".image-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = f.Close()
			_ = os.Remove(f.Name())
		}
	}()
	if err = Write(f, p); err != nil {
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

// ReadFile reads the image at path.
func ReadFile(path string) (*exec.Program, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, Header{}, err
	}
	defer f.Close()
	return Read(f)
}
