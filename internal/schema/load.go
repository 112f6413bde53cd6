package schema

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/encoding/yaml"
)

// LoadFile reads a schema fixture written in CUE, JSON or YAML. CUE files
// may use definitions and references as long as the result is concrete; the
// evaluated value must have one of the shapes accepted by Decode.
func LoadFile(path string) (*Set, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return LoadBytes(path, src)
}

// LoadBytes evaluates src as if it had been read from filename; the
// extension picks the decoder.
func LoadBytes(filename string, src []byte) (*Set, error) {
	ctx := cuecontext.New()

	var val cue.Value
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		f, err := yaml.Extract(filename, src)
		if err != nil {
			return nil, fmt.Errorf("parsing YAML schema %s: %w", filename, err)
		}
		val = ctx.BuildFile(f)
	default:
		val = ctx.CompileBytes(src, cue.Filename(filename))
	}
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("evaluating schema %s: %w", filename, err)
	}
	if err := val.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("schema %s is not concrete: %w", filename, err)
	}

	data, err := val.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("exporting schema %s: %w", filename, err)
	}
	return Decode(data)
}
