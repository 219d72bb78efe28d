package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/neurasm/internal/emit"
	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/lower"
	"github.com/roach88/neurasm/internal/store"
)

// LowerOptions holds flags for the lower command.
type LowerOptions struct {
	*RootOptions
	OutputDir   string
	Manifest    string
	NoManifest  bool
	Jobs        int
	Force       bool
	ReceiveBase int64
}

// CaseResult is the outcome of one test case.
type CaseResult struct {
	Name           string `json:"name"`
	Source         string `json:"source"`
	Status         string `json:"status"` // "lowered", "skipped", "failed", "valid"
	Blocks         int    `json:"blocks,omitempty"`
	StaticBlocks   int    `json:"static_blocks,omitempty"`
	AssemblyDigest string `json:"assembly_digest,omitempty"`
	OutputDir      string `json:"output_dir,omitempty"`
	RunID          string `json:"run_id,omitempty"`
	ErrorCode      string `json:"error_code,omitempty"`
	Error          string `json:"error,omitempty"`
}

// LowerResult is the JSON payload of lower and validate.
type LowerResult struct {
	Cases  []CaseResult `json:"cases"`
	Failed int          `json:"failed"`
}

// NewLowerCommand creates the lower command.
func NewLowerCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LowerOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lower <input>...",
		Short: "Lower test cases into assembly and data blocks",
		Long: `Lower test cases (YAML, JSON or CUE files, or directories of them) into
<out>/<test case>/assembly.txt, assembly.json and data/<block id>.

Each run is recorded in the manifest. A test case whose input is unchanged
since its last recorded run, and whose output still exists, is skipped
unless --force is given.

Example:
  neurasm lower ./cases
  neurasm lower --out build --jobs 4 conv.yaml mlp.cue`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.applySettings(cmd)
			return runLower(cmd.Context(), opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutputDir, "out", "o", "", "output directory (default from settings, \"out\")")
	cmd.Flags().StringVar(&opts.Manifest, "manifest", "", "manifest database (default <out>/manifest.db)")
	cmd.Flags().BoolVar(&opts.NoManifest, "no-manifest", false, "do not record runs or skip unchanged inputs")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", 0, "test cases lowered concurrently (default from settings, 1)")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "lower even when the input is unchanged")
	cmd.Flags().Int64Var(&opts.ReceiveBase, "receive-base", 0, "router receive bank offset (default 0x8000)")

	return cmd
}

// applySettings fills every flag left unset from the settings file.
func (o *LowerOptions) applySettings(cmd *cobra.Command) {
	s := o.Settings
	if !cmd.Flags().Changed("out") || o.OutputDir == "" {
		o.OutputDir = s.OutputDir
	}
	if !cmd.Flags().Changed("manifest") {
		o.Manifest = s.Manifest
	}
	if !cmd.Flags().Changed("jobs") {
		o.Jobs = s.Jobs
	}
	if !cmd.Flags().Changed("receive-base") {
		o.ReceiveBase = s.ReceiveBase
	}
	if o.OutputDir == "" {
		o.OutputDir = "out"
	}
	if o.Manifest == "" {
		o.Manifest = filepath.Join(o.OutputDir, "manifest.db")
	}
	if o.Jobs < 1 {
		o.Jobs = 1
	}
	if o.ReceiveBase == 0 {
		o.ReceiveBase = lower.DefaultReceiveBase
	}
}

func runLower(ctx context.Context, opts *LowerOptions, inputs []string, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := opts.formatter(cmd)
	logger := opts.newLogger(cmd.ErrOrStderr())

	cases, err := loadCases(inputs)
	if err != nil {
		_ = formatter.Error(errorCode(err), err.Error(), nil)
		return WrapExitError(ExitCommandError, "loading test cases", err)
	}
	formatter.VerboseLog("Loaded %d test case(s)", len(cases))

	var manifest *store.Store
	if !opts.NoManifest {
		if err := os.MkdirAll(filepath.Dir(opts.Manifest), 0o755); err != nil {
			_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
			return WrapExitError(ExitCommandError, "creating manifest dir", err)
		}
		manifest, err = store.Open(opts.Manifest)
		if err != nil {
			_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
			return WrapExitError(ExitCommandError, "opening manifest", err)
		}
		defer manifest.Close()
	}

	results := make([]CaseResult, len(cases))
	todo := make([]bool, len(cases))
	for i, lc := range cases {
		results[i] = CaseResult{Name: lc.Case.Name, Source: lc.Case.Source}
		todo[i] = true
		if manifest == nil || opts.Force {
			continue
		}
		if prev, ok := unchanged(ctx, manifest, lc, opts.OutputDir); ok {
			todo[i] = false
			results[i].Status = "skipped"
			results[i].RunID = prev.ID
			results[i].Blocks = prev.BlockCount
			results[i].AssemblyDigest = prev.AssemblyDigest
			results[i].OutputDir = prev.OutputDir
			formatter.VerboseLog("Skipping %s: input unchanged since run %s", lc.Case.Name, prev.ID)
		}
	}

	converted := convertAll(ctx, cases, todo, opts.Jobs, opts.ReceiveBase, logger)

	failed := 0
	for i, lc := range cases {
		if !todo[i] {
			continue
		}
		c := converted[i]
		if c.err != nil {
			failed++
			markFailed(&results[i], c.err)
			continue
		}

		art, err := emit.Finalize(opts.OutputDir, c.res)
		if err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "writing output", err)
		}
		results[i].Status = "lowered"
		results[i].Blocks = len(c.res.Blocks)
		results[i].StaticBlocks = art.StaticBlocks
		results[i].AssemblyDigest = art.AssemblyDigest
		results[i].OutputDir = art.Dir

		if manifest != nil {
			run, err := manifest.RecordRun(ctx, store.Run{
				TestCase:        lc.Case.Name,
				Source:          lc.Case.Source,
				InputDigest:     lc.Digest,
				AssemblyDigest:  art.AssemblyDigest,
				OutputDir:       art.Dir,
				CompilerVersion: ir.CompilerVersion,
				IRVersion:       ir.IRVersion,
			}, c.res.Blocks)
			if err != nil {
				_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
				return WrapExitError(ExitCommandError, "recording run", err)
			}
			results[i].RunID = run.ID
		}
	}

	return reportCases(formatter, LowerResult{Cases: results, Failed: failed})
}

// unchanged reports whether the latest run of a case has the same input
// digest and its output directory still exists.
func unchanged(ctx context.Context, s *store.Store, lc loadedCase, outDir string) (store.Run, bool) {
	prev, err := s.LatestRun(ctx, lc.Case.Name)
	if err != nil {
		return store.Run{}, false
	}
	if prev.InputDigest != lc.Digest || prev.OutputDir != filepath.Join(outDir, lc.Case.Name) {
		return store.Run{}, false
	}
	if _, err := os.Stat(filepath.Join(prev.OutputDir, emit.TextFile)); err != nil {
		return store.Run{}, false
	}
	return prev, true
}

type conversion struct {
	res *lower.Result
	err error
}

// convertAll lowers the selected cases, at most jobs at a time, each on its
// own engine. A failing case does not stop the others.
func convertAll(ctx context.Context, cases []loadedCase, todo []bool, jobs int, receiveBase int64, logger *slog.Logger) []conversion {
	if ctx == nil {
		ctx = context.Background()
	}
	out := make([]conversion, len(cases))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	for i := range cases {
		if !todo[i] {
			continue
		}
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				out[i].err = err
				return nil
			}
			tc := cases[i].Case
			eng := lower.New(
				lower.WithReceiveBase(receiveBase),
				lower.WithLogger(logger.With("case", tc.Name)),
			)
			out[i].res, out[i].err = eng.Convert(tc)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func markFailed(r *CaseResult, err error) {
	r.Status = "failed"
	r.ErrorCode = errorCode(err)
	r.Error = err.Error()
}

// reportCases prints per-case results. Any failed case makes the command
// exit with ExitFailure.
func reportCases(formatter *OutputFormatter, result LowerResult) error {
	var failure error
	if result.Failed > 0 {
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d test case(s) failed", result.Failed))
	}

	if formatter.JSON() {
		if failure != nil {
			first := firstFailure(result.Cases)
			resp := CLIResponse{
				Status: "error",
				Data:   result,
				Error:  &CLIError{Code: first.ErrorCode, Message: first.Error},
			}
			if err := encodeJSON(formatter, resp); err != nil {
				return err
			}
			return failure
		}
		return formatter.Success(result)
	}

	for _, c := range result.Cases {
		switch c.Status {
		case "failed":
			fmt.Fprintf(formatter.Writer, "✗ %s\n  %s: %s\n", c.Name, c.ErrorCode, c.Error)
		case "skipped":
			fmt.Fprintf(formatter.Writer, "- %s unchanged (run %s)\n", c.Name, c.RunID)
		case "valid":
			fmt.Fprintf(formatter.Writer, "✓ %s valid, %d block(s)\n", c.Name, c.Blocks)
		default:
			fmt.Fprintf(formatter.Writer, "✓ %s → %s (%d block(s), %d static)\n",
				c.Name, c.OutputDir, c.Blocks, c.StaticBlocks)
		}
	}
	return failure
}

func firstFailure(cases []CaseResult) CaseResult {
	for _, c := range cases {
		if c.Status == "failed" {
			return c
		}
	}
	return CaseResult{}
}

func encodeJSON(formatter *OutputFormatter, v any) error {
	enc := json.NewEncoder(formatter.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
