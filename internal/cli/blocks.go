package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/store"
)

// BlocksResult is the JSON payload of the blocks command.
type BlocksResult struct {
	Run    store.Run           `json:"run"`
	Blocks []store.BlockRecord `json:"blocks"`
}

// NewBlocksCommand creates the blocks command.
func NewBlocksCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		manifestPath string
		kind         string
	)

	cmd := &cobra.Command{
		Use:   "blocks <test-case>",
		Short: "List the data blocks of the latest run of a test case",
		Long: `List the data blocks recorded for the most recent run of a test case.

Example:
  neurasm blocks conv_3x3
  neurasm blocks --kind static --format json conv_3x3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if manifestPath == "" {
				manifestPath = rootOpts.Settings.Manifest
			}
			if manifestPath == "" {
				out := rootOpts.Settings.OutputDir
				if out == "" {
					out = "out"
				}
				manifestPath = filepath.Join(out, "manifest.db")
			}
			return runBlocks(rootOpts, manifestPath, args[0], kind, cmd)
		},
	}

	cmd.Flags().StringVar(&manifestPath, "manifest", "", "manifest database (default <out>/manifest.db)")
	cmd.Flags().StringVar(&kind, "kind", "", "only list static or dynamic blocks")
	return cmd
}

func runBlocks(opts *RootOptions, manifestPath, testCase, kind string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	var want ir.BlockKind
	switch kind {
	case "":
	case "static", "STATIC":
		want = ir.BlockStatic
	case "dynamic", "DYNAMIC":
		want = ir.BlockDynamic
	default:
		_ = formatter.Error(ErrCodeGeneric, fmt.Sprintf("unknown block kind %q", kind), nil)
		return NewExitError(ExitCommandError, "invalid --kind")
	}

	s, err := store.Open(manifestPath)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "opening manifest", err)
	}
	defer s.Close()

	ctx := cmd.Context()
	run, err := s.LatestRun(ctx, testCase)
	if err != nil {
		code := ErrCodeManifest
		if errors.Is(err, store.ErrNotFound) {
			code = ErrCodeNotFound
		}
		_ = formatter.Error(code, err.Error(), nil)
		return WrapExitError(ExitCommandError, "looking up run", err)
	}

	recs, err := s.Blocks(ctx, run.ID)
	if err != nil {
		_ = formatter.Error(ErrCodeManifest, err.Error(), nil)
		return WrapExitError(ExitCommandError, "reading blocks", err)
	}
	if want != "" {
		recs = lo.Filter(recs, func(r store.BlockRecord, _ int) bool {
			return r.Block.Kind == want
		})
	}

	if formatter.JSON() {
		return formatter.Success(BlocksResult{Run: run, Blocks: recs})
	}

	fmt.Fprintf(formatter.Writer, "%s run %s (seq %d)\n", run.TestCase, run.ID, run.Seq)
	fmt.Fprintln(formatter.Writer, blocksTable(recs))
	return nil
}

func blocksTable(recs []store.BlockRecord) string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"ID", "Kind", "Address", "Length", "Precision", "Bytes", "Core", "Phase", "Socket"})
	for _, r := range recs {
		b := r.Block
		phase := "-"
		if b.Position.Phase != nil {
			phase = fmt.Sprintf("%d/%d/%d", *b.Position.StepGroup, *b.Position.PhaseGroup, *b.Position.Phase)
		}
		t.AppendRow(table.Row{
			b.ID,
			string(b.Kind),
			fmt.Sprintf("0x%04x", b.Address),
			b.Length,
			string(b.Precision),
			blockBytes(b),
			fmt.Sprintf("(%d,%d)/(%d,%d)", b.Position.ChipX, b.Position.ChipY, b.Position.CoreX, b.Position.CoreY),
			phase,
			b.Position.Socket,
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "Total", len(recs)})
	return t.Render()
}

// blockBytes is the memory a block occupies, rounded up to whole bytes.
func blockBytes(b ir.DataBlock) int64 {
	return (b.Length*int64(b.Precision.WordBits()) + 7) / 8
}
