package config

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/seqlock/internal/ir"
	"github.com/roach88/seqlock/internal/status"
)

//go:embed schema.cue
var schemaCUE string

// CompileError is a CUE-level error with the source position of the
// offending value.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// applySchema unifies v with the embedded lock schema and checks that the
// result is concrete.
func applySchema(v cue.Value) (cue.Value, error) {
	schema := v.Context().CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile lock schema: %w", err)
	}
	unified := schema.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return unified, nil
}

// CompileLock parses a single lock struct, e.g. the value at path
// "lock.front_door". The lock name is taken from the last path selector.
func CompileLock(v cue.Value) (*Lock, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	l := &Lock{Palette: status.DefaultPalette}

	labels := v.Path().Selectors()
	if len(labels) > 0 {
		l.Name = labels[len(labels)-1].Unquoted()
	}

	if desc := v.LookupPath(cue.ParsePath("description")); desc.Exists() {
		s, err := desc.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		l.Description = s
	}

	seqVal := v.LookupPath(cue.ParsePath("sequence"))
	if !seqVal.Exists() {
		return nil, &CompileError{Field: "sequence", Message: "sequence is required", Pos: v.Pos()}
	}
	iter, err := seqVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		n, err := iter.Value().Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		if n < 0 || n > int64(ir.MaxDigit) {
			return nil, &CompileError{
				Field:   fmt.Sprintf("sequence[%d]", len(l.Sequence)),
				Message: fmt.Sprintf("digit %d outside 0..%d", n, ir.MaxDigit),
				Pos:     iter.Value().Pos(),
			}
		}
		l.Sequence = append(l.Sequence, ir.Digit(n))
	}
	if len(l.Sequence) == 0 {
		return nil, &CompileError{Field: "sequence", Message: "sequence must contain at least one digit", Pos: seqVal.Pos()}
	}

	if st := v.LookupPath(cue.ParsePath("status")); st.Exists() {
		p, err := compilePalette(st)
		if err != nil {
			return nil, err
		}
		l.Palette = p
	}

	if err := l.Palette.Validate(); err != nil {
		return nil, &CompileError{Field: "status", Message: err.Error(), Pos: v.Pos()}
	}

	return l, nil
}

func compilePalette(v cue.Value) (status.Palette, error) {
	var p status.Palette
	fields := []struct {
		name string
		dst  *status.Code
	}{
		{"idle", &p.Idle},
		{"unlocked", &p.Unlocked},
		{"alarm", &p.Alarm},
	}
	for _, f := range fields {
		fv := v.LookupPath(cue.ParsePath(f.name))
		if !fv.Exists() {
			return p, &CompileError{Field: "status." + f.name, Message: "code is required", Pos: v.Pos()}
		}
		n, err := fv.Int64()
		if err != nil {
			return p, formatCUEError(err)
		}
		if n < 0 || n > 0xFF {
			return p, &CompileError{Field: "status." + f.name, Message: fmt.Sprintf("code %d outside 0..255", n), Pos: fv.Pos()}
		}
		*f.dst = status.Code(n)
	}
	return p, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
