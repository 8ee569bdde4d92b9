package parser

import (
	"context"
	"errors"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/KaramelBytes/tabimport-cli/internal/dataset"
	"github.com/KaramelBytes/tabimport-cli/internal/dialect"
	"github.com/KaramelBytes/tabimport-cli/internal/layout"
)

// Parser defines a file format importer.
type Parser interface {
	CanParse(filename string) bool
	Parse(ctx context.Context, in Input) (*dataset.Matrix, error)
}

// Input is everything a Parser needs to read one file.
type Input struct {
	Fs      afero.Fs
	Path    string
	Dialect dialect.Dialect
	// Charset names the text encoding; empty means UTF-8.
	Charset string
	Options layout.Options
}

var registry []Parser

// Register adds a parser implementation to the registry.
func Register(p Parser) {
	registry = append(registry, p)
}

// lookup returns the first registered parser accepting filename, or nil.
func lookup(filename string) Parser {
	for _, p := range registry {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// Supported reports whether any registered parser accepts filename.
func Supported(filename string) bool { return lookup(filename) != nil }

// hasExt matches the extension exactly; "data.CSV" is not a ".csv" file.
func hasExt(filename string, exts ...string) bool {
	ext := filepath.Ext(filename)
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

func init() {
	Register(delimitedParser{})
}

var (
	// ErrUnsupportedFormat indicates no parser accepts the file's extension.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrIncorrectStructure indicates the file content matches no known layout.
	ErrIncorrectStructure = layout.ErrIncorrectStructure
)
