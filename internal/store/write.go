package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/neurasm/internal/ir"
)

// Run is one finalized conversion of a test case.
type Run struct {
	ID              string `json:"id"`
	Seq             int64  `json:"seq"`
	TestCase        string `json:"test_case"`
	Source          string `json:"source,omitempty"`
	InputDigest     string `json:"input_digest"`
	AssemblyDigest  string `json:"assembly_digest"`
	OutputDir       string `json:"output_dir"`
	BlockCount      int    `json:"block_count"`
	CompilerVersion string `json:"compiler_version"`
	IRVersion       string `json:"ir_version"`
}

// RecordRun stores a run and its blocks in one transaction. The id and seq
// are assigned here and returned in the stored run.
func (s *Store) RecordRun(ctx context.Context, run Run, blocks []ir.DataBlock) (Run, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM runs`).Scan(&seq); err != nil {
		return Run{}, fmt.Errorf("record run: next seq: %w", err)
	}

	run.ID = s.newID()
	run.Seq = seq
	run.BlockCount = len(blocks)

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs
		(id, seq, test_case, source, input_digest, assembly_digest, output_dir, block_count, compiler_version, ir_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Seq,
		run.TestCase,
		run.Source,
		run.InputDigest,
		run.AssemblyDigest,
		run.OutputDir,
		run.BlockCount,
		run.CompilerVersion,
		run.IRVersion,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO blocks
		(run_id, ord, id, kind, address, length, precision, direction,
		 chip_x, chip_y, core_x, core_y, step_group, phase_group, phase, socket, payload_digest)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`)
	if err != nil {
		return Run{}, fmt.Errorf("record run: prepare blocks: %w", err)
	}
	defer stmt.Close()

	for i, b := range blocks {
		var digest string
		if b.Kind == ir.BlockStatic {
			digest = ir.PayloadDigest(b.Payload)
		}
		p := b.Position
		_, err := stmt.ExecContext(ctx,
			run.ID, i, b.ID, string(b.Kind), b.Address, b.Length, string(b.Precision), string(b.Direction),
			p.ChipX, p.ChipY, p.CoreX, p.CoreY,
			nullInt(p.StepGroup), nullInt(p.PhaseGroup), nullInt(p.Phase),
			p.Socket, digest,
		)
		if err != nil {
			return Run{}, fmt.Errorf("record run: block %s: %w", b.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: commit: %w", err)
	}
	return run, nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
