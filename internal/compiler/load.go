package compiler

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/tripir/internal/ir"
	"github.com/roach88/tripir/internal/value"
)

// Supported file formats, by extension.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatCUE  = "cue"
)

// FormatOf returns the format of path from its extension, or "" when the
// extension is not recognized.
func FormatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".cue":
		return FormatCUE
	default:
		return ""
	}
}

// LoadDocument reads a trip IR document from a .json, .yaml or .cue file.
// CUE files go through CompileFile; JSON and YAML use the IR wire format.
func LoadDocument(path string) (*ir.IR, error) {
	switch FormatOf(path) {
	case FormatCUE:
		return CompileFile(path)
	case FormatJSON, FormatYAML:
		data, err := readJSON(path)
		if err != nil {
			return nil, err
		}
		doc, err := ir.Parse(data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return doc, nil
	default:
		return nil, fmt.Errorf("%s: unsupported file type (want .json, .yaml or .cue)", path)
	}
}

// LoadValue reads arbitrary data (an expression, a candidate, a context or
// a record list) from a .json, .yaml or .cue file. A CUE file must be
// concrete; it is exported as a whole.
func LoadValue(path string) (value.Value, error) {
	data, err := readJSON(path)
	if err != nil {
		return nil, err
	}
	v, err := value.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// readJSON returns the content of path as JSON.
func readJSON(path string) ([]byte, error) {
	format := FormatOf(path)
	if format == "" {
		return nil, fmt.Errorf("%s: unsupported file type (want .json, .yaml or .cue)", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	switch format {
	case FormatYAML:
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("%s: parse YAML: %w", path, err)
		}
		out, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return out, nil
	case FormatCUE:
		v := cuecontext.New().CompileBytes(data, cue.Filename(path))
		if err := v.Validate(cue.Concrete(true)); err != nil {
			return nil, cueError(err, "")
		}
		out, err := v.MarshalJSON()
		if err != nil {
			return nil, cueError(err, "")
		}
		return out, nil
	default:
		return data, nil
	}
}
