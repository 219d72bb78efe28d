package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"gopkg.in/yaml.v3"
)

// ShapeError reports malformed input nesting found while decoding.
type ShapeError struct {
	File    string
	Line    int
	Message string
}

func (e *ShapeError) Error() string {
	switch {
	case e.File != "" && e.Line > 0:
		return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
	case e.File != "":
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	case e.Line > 0:
		return fmt.Sprintf("line %d: %s", e.Line, e.Message)
	default:
		return e.Message
	}
}

// Input file extensions understood by LoadFile.
var inputExts = map[string]bool{
	".yaml": true,
	".yml":  true,
	".json": true,
	".cue":  true,
}

// LoadFile reads one test case. CUE files are evaluated and exported to
// JSON first, so both formats decode through the same path.
func LoadFile(path string) (*TestCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading test case: %w", err)
	}

	var tc *TestCase
	if filepath.Ext(path) == ".cue" {
		tc, err = DecodeCUE(data, path)
	} else {
		tc, err = Decode(data)
	}
	if err != nil {
		var se *ShapeError
		if errors.As(err, &se) && se.File == "" {
			se.File = path
		}
		return nil, err
	}

	tc.Source = path
	if tc.Name == "" {
		tc.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return tc, nil
}

// Decode parses a YAML (or JSON) test case and checks its nesting.
func Decode(data []byte) (*TestCase, error) {
	var tc TestCase
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tc); err != nil {
		var se *ShapeError
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, &ShapeError{Message: fmt.Sprintf("decoding test case: %v", err)}
	}
	if err := tc.checkShape(); err != nil {
		return nil, err
	}
	return &tc, nil
}

// DecodeCUE evaluates a CUE test case. The value must be concrete.
func DecodeCUE(data []byte, filename string) (*TestCase, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err, filename)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err, filename)
	}
	exported, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(err, filename)
	}
	return Decode(exported)
}

func formatCUEError(err error, filename string) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ShapeError{File: filename, Message: err.Error()}
	}
	first := errs[0]
	pos := first.Position()
	se := &ShapeError{File: filename, Message: first.Error()}
	if pos.IsValid() {
		se.Line = pos.Line()
	}
	return se
}

// checkShape validates structure that the YAML decoder cannot express.
func (tc *TestCase) checkShape() error {
	for si, sg := range tc.StepGroups {
		for pi, pg := range sg.PhaseGroups {
			for ci, core := range pg.Cores {
				where := fmt.Sprintf("step_groups[%d].phase_groups[%d].cores[%d]", si, pi, ci)
				if len(core.Chip) != 2 {
					return &ShapeError{Message: fmt.Sprintf("%s.chip: expected [x, y], got %v", where, core.Chip)}
				}
				if len(core.Core) != 2 {
					return &ShapeError{Message: fmt.Sprintf("%s.core: expected [x, y], got %v", where, core.Core)}
				}
			}
		}
	}
	return nil
}

// FindInputs walks dir and returns every test-case file, sorted.
func FindInputs(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && inputExts[filepath.Ext(path)] {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

// ExpandInputs resolves a mix of files and directories into input files.
func ExpandInputs(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("input not found: %s", p)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := FindInputs(p)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p, err)
		}
		if len(found) == 0 {
			return nil, fmt.Errorf("no test cases found in %s", p)
		}
		files = append(files, found...)
	}
	return files, nil
}
