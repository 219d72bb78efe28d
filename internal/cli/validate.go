package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/neurasm/internal/lower"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	var receiveBase int64

	cmd := &cobra.Command{
		Use:   "validate <input>...",
		Short: "Lower test cases without writing any output",
		Long: `Run the full lowering of every test case and report failures.

Nothing is written and the manifest is not touched. Faster than lower for
checking hand-edited test cases.`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("receive-base") {
				receiveBase = rootOpts.Settings.ReceiveBase
			}
			if receiveBase == 0 {
				receiveBase = lower.DefaultReceiveBase
			}
			return runValidate(rootOpts, args, receiveBase, cmd)
		},
	}

	cmd.Flags().Int64Var(&receiveBase, "receive-base", 0, "router receive bank offset (default 0x8000)")
	return cmd
}

func runValidate(opts *RootOptions, inputs []string, receiveBase int64, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	cases, err := loadCases(inputs)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading test cases", err)
	}

	formatter.VerboseLog("known registers: %s", strings.Join(lower.RegisterNames(), ", "))

	jobs := opts.Settings.Jobs
	if jobs < 1 {
		jobs = 1
	}
	todo := make([]bool, len(cases))
	for i := range todo {
		todo[i] = true
	}
	converted := convertAll(cmd.Context(), cases, todo, jobs, receiveBase, opts.newLogger(cmd.ErrOrStderr()))

	results := make([]CaseResult, len(cases))
	failed := 0
	for i, lc := range cases {
		results[i] = CaseResult{Name: lc.Case.Name, Source: lc.Case.Source}
		if err := converted[i].err; err != nil {
			failed++
			markFailed(&results[i], err)
			continue
		}
		results[i].Status = "valid"
		results[i].Blocks = len(converted[i].res.Blocks)
		formatter.VerboseLog("%s: %d block(s)", lc.Case.Name, results[i].Blocks)
	}

	return reportCases(formatter, LowerResult{Cases: results, Failed: failed})
}
