// Package sheet converts spreadsheet bytes to and from table.Table.
//
// Formats are kept in a registry keyed by name. The xlsx and csv formats
// register themselves at init; Lookup picks one by file extension.
package sheet

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/JonMunkholm/sheetprep/internal/table"
)

// ErrUnsupportedFormat is returned when no registered format handles a file.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ParseError reports bytes that could not be read as a table.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Format describes one spreadsheet encoding.
type Format struct {
	Name         string
	Extensions   []string // lower-case, with leading dot
	ContentTypes []string
	Decode       func(data []byte) (table.Table, error)
	Encode       func(t table.Table) ([]byte, error)
}

var (
	formats   = make(map[string]Format)
	formatsMu sync.RWMutex
)

// Register adds a format to the registry.
// Panics if a format with the same name is already registered.
func Register(f Format) {
	formatsMu.Lock()
	defer formatsMu.Unlock()

	if _, exists := formats[f.Name]; exists {
		panic(fmt.Sprintf("sheet format already registered: %s", f.Name))
	}
	formats[f.Name] = f
}

// All returns every registered format sorted by name.
func All() []Format {
	formatsMu.RLock()
	defer formatsMu.RUnlock()

	result := make([]Format, 0, len(formats))
	for _, f := range formats {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Extensions lists every accepted file extension, sorted.
func Extensions() []string {
	var exts []string
	for _, f := range All() {
		exts = append(exts, f.Extensions...)
	}
	sort.Strings(exts)
	return exts
}

// Lookup finds the format for a file name by its extension.
func Lookup(filename string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return Format{}, fmt.Errorf("%w: %q has no extension", ErrUnsupportedFormat, filename)
	}
	for _, f := range All() {
		for _, e := range f.Extensions {
			if e == ext {
				return f, nil
			}
		}
	}
	return Format{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Decode parses data with the format selected by filename.
// Any decoding failure is returned as *ParseError.
func Decode(filename string, data []byte) (table.Table, error) {
	f, err := Lookup(filename)
	if err != nil {
		return table.Table{}, err
	}
	t, err := f.Decode(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return table.Table{}, err
		}
		return table.Table{}, &ParseError{Format: f.Name, Err: err}
	}
	return t, nil
}

// Encode serializes t with the format selected by filename.
func Encode(filename string, t table.Table) ([]byte, error) {
	f, err := Lookup(filename)
	if err != nil {
		return nil, err
	}
	if f.Encode == nil {
		return nil, fmt.Errorf("%w: %s is read-only", ErrUnsupportedFormat, f.Name)
	}
	return f.Encode(t)
}
