package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/neurasm/internal/config"
	"github.com/roach88/neurasm/internal/lower"
)

// Result is the outcome of one scenario.
type Result struct {
	// Pass is true when every assertion held.
	Pass bool `json:"pass"`

	// Errors lists the failed assertions.
	Errors []string `json:"errors,omitempty"`

	// Lowered is the conversion result, nil when lowering failed.
	Lowered *lower.Result `json:"-"`

	// LowerErr is the lowering failure, if any.
	LowerErr error `json:"-"`
}

func (r *Result) addError(err error) {
	r.Errors = append(r.Errors, err.Error())
	r.Pass = false
}

type runConfig struct {
	logger *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

// WithLogger hands a logger to the lowering engine.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = l
	}
}

// Run lowers the scenario's test case on a fresh engine and evaluates its
// assertions. The error is non-nil only when the case cannot be loaded;
// lowering failures and failed assertions are reported in the Result.
func Run(sc *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	tc, err := config.LoadFile(sc.Case)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", sc.Name, err)
	}

	engineOpts := []lower.Option{lower.WithLogger(cfg.logger.With("scenario", sc.Name))}
	if sc.ReceiveBase != 0 {
		engineOpts = append(engineOpts, lower.WithReceiveBase(sc.ReceiveBase))
	}
	lowered, lowerErr := lower.New(engineOpts...).Convert(tc)

	result := &Result{Pass: true, LowerErr: lowerErr}
	if lowerErr == nil {
		result.Lowered = lowered
	}

	for _, a := range sc.Assertions {
		if a.Type == AssertLoweringError {
			if err := assertLoweringError(lowerErr, a); err != nil {
				result.addError(err)
			}
			continue
		}
		if lowerErr != nil {
			result.addError(&AssertionError{
				Type:     a.Type,
				Expected: "successful lowering",
				Actual:   lowerErr.Error(),
			})
			break
		}
		if err := checkBlocks(lowered.Blocks, a); err != nil {
			result.addError(err)
		}
	}

	cfg.logger.Debug("scenario finished", "scenario", sc.Name, "pass", result.Pass, "failures", len(result.Errors))
	return result, nil
}
