package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/randalmurphal/piecework/pkg/piecework/piece"
	"github.com/randalmurphal/piecework/pkg/piecework/pool"
)

// Dir discovers piece definitions from the *.yaml, *.yml and *.json files of
// one directory, in lexical file order. Every definition must be of Kind;
// an empty kind field defaults to it.
type Dir struct {
	Path      string
	Kind      piece.Kind
	Factories *Factories
	// Optional reports a missing directory as zero pieces instead of an error.
	Optional bool
}

var _ pool.Source = (*Dir)(nil)

// Discover implements pool.Source.
func (d *Dir) Discover(ctx context.Context) ([]pool.Definition, error) {
	entries, err := os.ReadDir(d.Path)
	if err != nil {
		if d.Optional && os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read piece dir: %w", err)
	}

	var defs []pool.Definition
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !isDefinition(entry.Name()) {
			continue
		}

		path := filepath.Join(d.Path, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		def := pool.Definition{Origin: entry.Name()}
		spec, err := ParseSpec(path, data)
		if err == nil {
			err = d.checkKind(spec)
		}
		if err != nil {
			parseErr := err
			def.New = func(piece.Env) (piece.Piece, error) { return nil, parseErr }
		} else {
			def.New = d.Factories.Constructor(spec)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (d *Dir) checkKind(spec Spec) error {
	if spec.Kind == "" {
		return nil
	}
	kind, err := piece.ParseKind(spec.Kind)
	if err != nil {
		return err
	}
	if kind != d.Kind {
		return fmt.Errorf("definition kind %s does not match %s directory", kind, d.Kind)
	}
	return nil
}

func isDefinition(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return true
	default:
		return false
	}
}
