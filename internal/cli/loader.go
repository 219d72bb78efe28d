package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/lower"
)

// Error code constants - unified across all CLI commands.
// Lowering failures keep the E2xx code of their lower.Error.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Input scan error
	ErrCodeNoFiles     = "E003" // No test cases found
	ErrCodeLoadFailed  = "E004" // Test case could not be decoded
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeWriteFailed = "E007" // Output write error
	ErrCodeManifest    = "E008" // Manifest open/read/write error
	ErrCodeConfig      = "E009" // Settings file error
)

// LoadError is an input that could not be turned into a test case.
type LoadError struct {
	Code    string
	File    string
	Message string
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.File, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// loadedCase is a decoded test case with its input digest.
type loadedCase struct {
	Case   *config.TestCase
	Digest string
}

// loadCases expands paths into input files and decodes all of them.
// Any failure stops loading; nothing is lowered from a partial set.
func loadCases(paths []string) ([]loadedCase, error) {
	files, err := config.ExpandInputs(paths)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: err.Error()}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no test cases given"}
	}

	cases := make([]loadedCase, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, f := range files {
		tc, err := config.LoadFile(f)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, File: f, Message: err.Error()}
		}
		if prev, ok := seen[tc.Name]; ok {
			return nil, &LoadError{Code: ErrCodeLoadFailed, File: f,
				Message: fmt.Sprintf("test case %q already defined by %s", tc.Name, prev)}
		}
		seen[tc.Name] = f

		digest, err := ir.InputDigest(tc)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeLoadFailed, File: f, Message: err.Error()}
		}
		cases = append(cases, loadedCase{Case: tc, Digest: digest})
	}
	return cases, nil
}

// errorCode picks the CLI error code for a failure.
func errorCode(err error) string {
	var le *lower.Error
	if errors.As(err, &le) {
		return le.Code
	}
	var se *config.ShapeError
	if errors.As(err, &se) {
		return lower.CodeConfigShape
	}
	var ld *LoadError
	if errors.As(err, &ld) {
		return ld.Code
	}
	return ErrCodeGeneric
}
