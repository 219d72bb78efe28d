package harness

import (
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/lower"
)

// Snapshot renders the block table of a lowering as canonical JSON,
// newline terminated. Payloads are left out; they are covered by the
// emitted data files.
func Snapshot(res *lower.Result) ([]byte, error) {
	blocks := make(ir.IRArray, len(res.Blocks))
	for i, b := range res.Blocks {
		obj := ir.IRObject{
			"id":        ir.IRString(b.ID),
			"kind":      ir.IRString(b.Kind),
			"address":   ir.IRInt(b.Address),
			"length":    ir.IRInt(b.Length),
			"precision": ir.IRString(b.Precision),
		}
		if b.Direction != "" {
			obj["direction"] = ir.IRString(b.Direction)
		}
		if b.Position.Socket != "" {
			obj["socket"] = ir.IRString(b.Position.Socket)
		}
		blocks[i] = obj
	}

	data, err := ir.MarshalCanonical(ir.IRObject{
		"test_case": ir.IRString(res.Assembly.TestCase),
		"blocks":    blocks,
	})
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// RunWithGolden runs a scenario, requires it to pass and compares its
// block table against testdata/golden/<scenario name>.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) error {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return err
	}
	if !result.Pass {
		return fmt.Errorf("scenario %s failed:\n%v", scenario.Name, result.Errors)
	}
	if result.Lowered == nil {
		return fmt.Errorf("scenario %s: nothing lowered to snapshot", scenario.Name)
	}
	return AssertGolden(t, scenario.Name, result.Lowered)
}

// AssertGolden compares an existing lowering result against a golden file.
func AssertGolden(t *testing.T, name string, res *lower.Result) error {
	t.Helper()

	snapshot, err := Snapshot(res)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
