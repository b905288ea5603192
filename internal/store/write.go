package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// Run is one interpreter run recorded in the oracle log.
//
// Outputs is nil when the run failed; ErrorCode and ErrorMessage then carry
// the simulation error. ID, Seq and InputsDigest are assigned by RecordRun.
type Run struct {
	ID            string
	Seq           int64
	ProgramDigest string
	Function      string
	Inputs        [][]string
	InputsDigest  string
	Outputs       [][]string
	ErrorCode     string
	ErrorMessage  string
	Steps         int64
	CoreVersion   string
}

// Failed reports whether the run ended in a simulation error.
func (r *Run) Failed() bool {
	return r.ErrorCode != ""
}

// WriteProgram stores the program text under its content digest.
// Writing the same program twice is a no-op.
func (s *Store) WriteProgram(ctx context.Context, p *ir.Program) (string, error) {
	digest, err := ir.ProgramDigest(p)
	if err != nil {
		return "", fmt.Errorf("compute program digest: %w", err)
	}

	query := `
		INSERT INTO programs (digest, ir_version, text)
		VALUES (?, ?, ?)
		ON CONFLICT(digest) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, digest, ir.IRVersion, p.String()); err != nil {
		return "", fmt.Errorf("insert program %s: %w", digest, err)
	}
	return digest, nil
}

// RecordRun appends a run to the log. The run's program must already be
// stored with WriteProgram.
//
// seq is assigned inside the insert transaction so concurrent writers on
// the same database still get a gap-free order.
func (s *Store) RecordRun(ctx context.Context, r *Run) error {
	if r.ProgramDigest == "" {
		return fmt.Errorf("record run: program digest is required")
	}
	if r.Function == "" {
		return fmt.Errorf("record run: function is required")
	}

	inputs, err := marshalValues(r.Inputs)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	inputsDigest, err := ir.InputsDigest(r.Inputs)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	outputs, err := marshalOutputs(r.Outputs)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	if r.CoreVersion == "" {
		r.CoreVersion = ir.CoreVersion
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var seq sql.NullInt64
	if err := tx.QueryRowContext(ctx, "SELECT MAX(seq) FROM runs").Scan(&seq); err != nil {
		return fmt.Errorf("read max seq: %w", err)
	}
	next := seq.Int64 + 1

	id := s.newID()
	query := `
		INSERT INTO runs (
			id, seq, program_digest, function, inputs, inputs_digest,
			outputs, error_code, error_message, steps, core_version
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.ExecContext(ctx, query,
		id, next, r.ProgramDigest, r.Function, inputs, inputsDigest,
		outputs, r.ErrorCode, r.ErrorMessage, r.Steps, r.CoreVersion,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}

	r.ID = id
	r.Seq = next
	r.InputsDigest = inputsDigest
	return nil
}
