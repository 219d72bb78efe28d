package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/neurasm/internal/ir"
	"github.com/roach88/neurasm/internal/testutil"
)

// createTestStore opens a manifest in a temp dir with sequential run ids.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	ids := testutil.NewRunIDs("run")
	s, err := Open(filepath.Join(t.TempDir(), "test.db"), WithIDGenerator(ids.Next))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func intp(v int) *int { return &v }

// testBlocks returns one static and one dynamic block.
func testBlocks() []ir.DataBlock {
	return []ir.DataBlock{
		{
			ID:        "axon_x1_1",
			Kind:      ir.BlockStatic,
			Address:   0x0000,
			Length:    2,
			Precision: ir.PrecisionInt8,
			Payload:   []int32{1, -1},
			Position:  ir.BlockPosition{ChipX: 0, ChipY: 0, CoreX: 1, CoreY: 2},
		},
		{
			ID:        "axon_o_2",
			Kind:      ir.BlockDynamic,
			Address:   0x2000,
			Length:    256,
			Precision: ir.PrecisionInt32,
			Direction: ir.DirectionOut,
			Position: ir.BlockPosition{
				ChipX: 0, ChipY: 0, CoreX: 1, CoreY: 2,
				StepGroup: intp(0), PhaseGroup: intp(3), Phase: intp(1),
				Socket: "axon.o",
			},
		},
	}
}

func testRun(name, inputDigest string) Run {
	return Run{
		TestCase:        name,
		Source:          name + ".yaml",
		InputDigest:     inputDigest,
		AssemblyDigest:  "asm-" + inputDigest,
		OutputDir:       "/out/" + name,
		CompilerVersion: ir.CompilerVersion,
		IRVersion:       ir.IRVersion,
	}
}
