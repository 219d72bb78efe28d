package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/neurasm/internal/ir"
)

// ErrNotFound is returned when a lookup matches no run.
var ErrNotFound = errors.New("not found")

// BlockRecord is a stored data block. Payloads are not stored; the digest
// identifies the bytes written to the block file.
type BlockRecord struct {
	RunID         string       `json:"run_id"`
	Ord           int          `json:"ord"`
	Block         ir.DataBlock `json:"block"`
	PayloadDigest string       `json:"payload_digest,omitempty"`
}

const runColumns = `id, seq, test_case, source, input_digest, assembly_digest, output_dir, block_count, compiler_version, ir_version`

// LatestRun returns the most recent run of a test case, or ErrNotFound.
func (s *Store) LatestRun(ctx context.Context, testCase string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE test_case = ?
		ORDER BY seq DESC
		LIMIT 1
	`, testCase)

	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("run for %q: %w", testCase, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("latest run: %w", err)
	}
	return run, nil
}

// Runs returns every run ordered by seq.
// Returns an empty slice (not nil) for an empty manifest.
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// Blocks returns the blocks of a run in allocation order.
func (s *Store) Blocks(ctx context.Context, runID string) ([]BlockRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, ord, id, kind, address, length, precision, direction,
		       chip_x, chip_y, core_x, core_y, step_group, phase_group, phase, socket, payload_digest
		FROM blocks
		WHERE run_id = ?
		ORDER BY ord ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query blocks: %w", err)
	}
	defer rows.Close()

	records := []BlockRecord{}
	for rows.Next() {
		var (
			rec                BlockRecord
			kind, prec, dir    string
			step, group, phase sql.NullInt64
		)
		b := &rec.Block
		err := rows.Scan(&rec.RunID, &rec.Ord, &b.ID, &kind, &b.Address, &b.Length, &prec, &dir,
			&b.Position.ChipX, &b.Position.ChipY, &b.Position.CoreX, &b.Position.CoreY,
			&step, &group, &phase, &b.Position.Socket, &rec.PayloadDigest)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		b.Kind = ir.BlockKind(kind)
		b.Precision = ir.Precision(prec)
		b.Direction = ir.Direction(dir)
		b.Position.StepGroup = intPtr(step)
		b.Position.PhaseGroup = intPtr(group)
		b.Position.Phase = intPtr(phase)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var r Run
	err := row.Scan(&r.ID, &r.Seq, &r.TestCase, &r.Source, &r.InputDigest, &r.AssemblyDigest,
		&r.OutputDir, &r.BlockCount, &r.CompilerVersion, &r.IRVersion)
	return r, err
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}
