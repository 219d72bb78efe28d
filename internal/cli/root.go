package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/lower"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	// Settings is filled in before any subcommand runs.
	Settings config.Settings
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the neurasm CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Settings: config.DefaultSettings()}

	cmd := &cobra.Command{
		Use:   "neurasm",
		Short: "neurasm - neuromorphic assembly lowering",
		Long: `Lowers behavioral test cases for the many-core neuromorphic chip into
assembly configs and static data block payloads.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.loadSettings()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "settings file (default ./"+config.SettingsFile+" if present)")

	cmd.AddCommand(NewLowerCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBlocksCommand(opts))
	cmd.AddCommand(NewCheckCommand(opts))

	return cmd
}

func (o *RootOptions) loadSettings() error {
	path, optional := o.ConfigPath, false
	if path == "" {
		path, optional = config.SettingsFile, true
	}
	s, err := config.LoadSettings(path, optional)
	if err != nil {
		return WrapExitError(ExitCommandError, ErrCodeConfig, err)
	}
	o.Settings = s
	return nil
}

// newLogger builds the structured logger handed to lowering engines.
// Info by default; every allocation is traced with --verbose.
func (o *RootOptions) newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = lower.LevelTrace
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.LevelKey && a.Value.Any() == lower.LevelTrace {
				a.Value = slog.StringValue("TRACE")
			}
			return a
		},
	}))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
