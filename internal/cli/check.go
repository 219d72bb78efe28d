package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/neurasm/internal/harness"
)

// ScenarioResult is the outcome of one conformance scenario.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Failed    int              `json:"failed"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <scenario>...",
		Short: "Run lowering conformance scenarios",
		Long: `Run conformance scenarios (YAML files, or directories of them). Each
scenario lowers one test case and checks the allocated data blocks or the
expected error code.

Example:
  neurasm check ./scenarios
  neurasm check --format json mlp_blocks.yaml`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runCheck(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			_ = formatter.Error(ErrCodeNotFound, fmt.Sprintf("scenario not found: %s", p), nil)
			return WrapExitError(ExitCommandError, "loading scenarios", err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		found, err := harness.FindScenarios(p)
		if err != nil {
			_ = formatter.Error(ErrCodeScanError, err.Error(), nil)
			return WrapExitError(ExitCommandError, "scanning scenarios", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		_ = formatter.Error(ErrCodeNoFiles, "no scenarios given", nil)
		return NewExitError(ExitCommandError, "no scenarios")
	}

	result := CheckResult{Scenarios: make([]ScenarioResult, 0, len(files))}
	for _, f := range files {
		sc, err := harness.LoadScenario(f)
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, fmt.Sprintf("%s: %v", f, err), nil)
			return WrapExitError(ExitCommandError, "loading scenarios", err)
		}
		res, err := harness.Run(sc, harness.WithLogger(logger))
		if err != nil {
			_ = formatter.Error(ErrCodeLoadFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "running scenario", err)
		}
		if !res.Pass {
			result.Failed++
		}
		result.Scenarios = append(result.Scenarios, ScenarioResult{
			Name:   sc.Name,
			File:   f,
			Pass:   res.Pass,
			Errors: res.Errors,
		})
		formatter.VerboseLog("%s: %d assertion(s)", sc.Name, len(sc.Assertions))
	}

	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	if formatter.JSON() {
		if err := encodeJSON(formatter, CLIResponse{Status: status(failure), Data: result}); err != nil {
			return err
		}
		return failure
	}

	for _, s := range result.Scenarios {
		if s.Pass {
			fmt.Fprintf(formatter.Writer, "✓ %s\n", s.Name)
			continue
		}
		fmt.Fprintf(formatter.Writer, "✗ %s\n", s.Name)
		for _, e := range s.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", e)
		}
	}
	fmt.Fprintf(formatter.Writer, "%d/%d scenario(s) passed\n", len(result.Scenarios)-result.Failed, len(result.Scenarios))
	return failure
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
