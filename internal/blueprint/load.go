package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

// FieldError reports a problem with one field of a blueprint.
type FieldError struct {
	// Field is the dotted path to the field, e.g. "module.mutations.add[0].op".
	Field   string
	Message string
	// Pos is set for errors that come from CUE evaluation.
	Pos token.Pos
}

func (e *FieldError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// LoadFile reads a blueprint, choosing the decoder by extension: .yaml and
// .yml are YAML, .cue is CUE.
func LoadFile(path string) (*Blueprint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read blueprint: %w", err)
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".cue":
		return ParseCUE(data, path)
	default:
		return nil, fmt.Errorf("unsupported blueprint extension %q (want .yaml, .yml or .cue)", ext)
	}
}

// ParseYAML decodes a YAML blueprint. Unknown fields are rejected so typos
// like "mutation:" fail loudly.
func ParseYAML(data []byte) (*Blueprint, error) {
	var bp Blueprint
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&bp); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &FieldError{Field: "module", Message: "blueprint is empty"}
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return &bp, nil
}

// ParseCUE evaluates a CUE blueprint. The document must be concrete.
// filename is used in error positions.
func ParseCUE(data []byte, filename string) (*Blueprint, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}
	if !v.LookupPath(cue.ParsePath("module")).Exists() {
		return nil, &FieldError{Field: "module", Message: "module is required", Pos: v.Pos()}
	}

	var bp Blueprint
	if err := v.Decode(&bp); err != nil {
		return nil, formatCUEError(err)
	}
	return &bp, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &FieldError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
