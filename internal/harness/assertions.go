package harness

import (
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/lower"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string

	// Blocks is the full allocation list, printed for context.
	Blocks []ir.DataBlock
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)

	if len(e.Blocks) > 0 {
		fmt.Fprintf(&buf, "\n\nAllocated blocks:\n")
		for i, b := range e.Blocks {
			fmt.Fprintf(&buf, "  [%d] %s %s 0x%04x len %d %s\n", i+1, b.ID, b.Kind, b.Address, b.Length, b.Precision)
		}
	}
	return buf.String()
}

func checkBlocks(blocks []ir.DataBlock, a Assertion) error {
	switch a.Type {
	case AssertBlockCount:
		return assertBlockCount(blocks, a)
	case AssertBlockExists:
		return assertBlockExists(blocks, a)
	case AssertBlockOrder:
		return assertBlockOrder(blocks, a)
	}
	return fmt.Errorf("unknown assertion type %q", a.Type)
}

func assertBlockCount(blocks []ir.DataBlock, a Assertion) error {
	n := len(blocks)
	what := "blocks"
	if a.Kind != "" {
		n = lo.CountBy(blocks, func(b ir.DataBlock) bool { return b.Kind == a.Kind })
		what = string(a.Kind) + " blocks"
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertBlockCount,
		Expected: fmt.Sprintf("%d %s", a.Count, what),
		Actual:   fmt.Sprintf("%d %s", n, what),
		Blocks:   blocks,
	}
}

func assertBlockExists(blocks []ir.DataBlock, a Assertion) error {
	b, ok := lo.Find(blocks, func(b ir.DataBlock) bool { return b.ID == a.ID })
	if !ok {
		return &AssertionError{
			Type:     AssertBlockExists,
			Expected: fmt.Sprintf("block %s", a.ID),
			Actual:   "not allocated",
			Blocks:   blocks,
		}
	}

	var diffs []string
	if a.Address != nil && b.Address != *a.Address {
		diffs = append(diffs, fmt.Sprintf("address 0x%04x, want 0x%04x", b.Address, *a.Address))
	}
	if a.Length != nil && b.Length != *a.Length {
		diffs = append(diffs, fmt.Sprintf("length %d, want %d", b.Length, *a.Length))
	}
	if a.Precision != "" && b.Precision != a.Precision {
		diffs = append(diffs, fmt.Sprintf("precision %s, want %s", b.Precision, a.Precision))
	}
	if a.Socket != "" && b.Position.Socket != a.Socket {
		diffs = append(diffs, fmt.Sprintf("socket %q, want %q", b.Position.Socket, a.Socket))
	}
	if len(diffs) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertBlockExists,
		Expected: fmt.Sprintf("block %s as declared", a.ID),
		Actual:   strings.Join(diffs, "; "),
		Blocks:   blocks,
	}
}

// assertBlockOrder checks that the ids were allocated in the given order.
// Other blocks may be interleaved.
func assertBlockOrder(blocks []ir.DataBlock, a Assertion) error {
	next := 0
	for _, b := range blocks {
		if next < len(a.IDs) && b.ID == a.IDs[next] {
			next++
		}
	}
	if next == len(a.IDs) {
		return nil
	}
	return &AssertionError{
		Type:     AssertBlockOrder,
		Expected: strings.Join(a.IDs, " < "),
		Actual:   fmt.Sprintf("%s not allocated after %s", a.IDs[next], strings.Join(a.IDs[:next], ", ")),
		Blocks:   blocks,
	}
}

func assertLoweringError(err error, a Assertion) error {
	if err == nil {
		return &AssertionError{
			Type:     AssertLoweringError,
			Expected: "lowering fails with " + a.Code,
			Actual:   "lowering succeeded",
		}
	}
	var le *lower.Error
	if !errors.As(err, &le) {
		return &AssertionError{
			Type:     AssertLoweringError,
			Expected: "lowering fails with " + a.Code,
			Actual:   err.Error(),
		}
	}
	if le.Code != a.Code {
		return &AssertionError{
			Type:     AssertLoweringError,
			Expected: "lowering fails with " + a.Code,
			Actual:   le.Error(),
		}
	}
	return nil
}
