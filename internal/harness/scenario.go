package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/neurasm/internal/ir"
)

// Scenario is one conformance check of the lowering pass.
type Scenario struct {
	// Name uniquely identifies this scenario and its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Case is the test case file to lower, relative to the scenario file.
	Case string `yaml:"case"`

	// ReceiveBase overrides the router receive bank offset. Zero keeps the
	// default.
	ReceiveBase int64 `yaml:"receive_base,omitempty"`

	Assertions []Assertion `yaml:"assertions"`
}

// Assertion checks one property of the lowering outcome.
type Assertion struct {
	// Type is one of block_count, block_exists, block_order or
	// lowering_error.
	Type string `yaml:"type"`

	// Kind restricts block_count to STATIC or DYNAMIC blocks.
	Kind ir.BlockKind `yaml:"kind,omitempty"`

	// Count is the expected number of blocks (block_count).
	Count int `yaml:"count,omitempty"`

	// ID names the block for block_exists. The remaining fields are
	// compared only when set.
	ID        string       `yaml:"id,omitempty"`
	Address   *int64       `yaml:"address,omitempty"`
	Length    *int64       `yaml:"length,omitempty"`
	Precision ir.Precision `yaml:"precision,omitempty"`
	Socket    string       `yaml:"socket,omitempty"`

	// IDs is the expected allocation order (block_order). Other blocks may
	// appear in between.
	IDs []string `yaml:"ids,omitempty"`

	// Code is the error code the lowering must fail with (lowering_error).
	Code string `yaml:"code,omitempty"`
}

// Assertion type constants.
const (
	AssertBlockCount    = "block_count"
	AssertBlockExists   = "block_exists"
	AssertBlockOrder    = "block_order"
	AssertLoweringError = "lowering_error"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected and the case path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Case != "" && !filepath.IsAbs(scenario.Case) {
		scenario.Case = filepath.Join(filepath.Dir(path), scenario.Case)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// FindScenarios returns the scenario files under dir, sorted.
func FindScenarios(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ext := filepath.Ext(path)
		if !d.IsDir() && (ext == ".yaml" || ext == ".yml") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Case == "" {
		return fmt.Errorf("case is required")
	}
	if _, err := os.Stat(s.Case); err != nil {
		return fmt.Errorf("case file not found: %s", s.Case)
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	expectsError := false
	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
		if s.Assertions[i].Type == AssertLoweringError {
			expectsError = true
		}
	}
	if expectsError && len(s.Assertions) > 1 {
		return fmt.Errorf("lowering_error cannot be combined with block assertions")
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertBlockCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for block_count", index)
		}
		if a.Kind != "" && a.Kind != ir.BlockStatic && a.Kind != ir.BlockDynamic {
			return fmt.Errorf("assertions[%d]: unknown block kind %q", index, a.Kind)
		}
	case AssertBlockExists:
		if a.ID == "" {
			return fmt.Errorf("assertions[%d]: id is required for block_exists", index)
		}
	case AssertBlockOrder:
		if len(a.IDs) == 0 {
			return fmt.Errorf("assertions[%d]: ids list is required for block_order", index)
		}
	case AssertLoweringError:
		if a.Code == "" {
			return fmt.Errorf("assertions[%d]: code is required for lowering_error", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
