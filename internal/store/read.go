package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when a run or program does not exist.
var ErrNotFound = errors.New("not found")

const runColumns = `
	id, seq, program_digest, function, inputs, inputs_digest,
	outputs, error_code, error_message, steps, core_version
`

// RunFilter narrows ListRuns. Zero fields match everything.
type RunFilter struct {
	ProgramDigest string
	Function      string
	Limit         int
}

// ReadRun retrieves a run by id.
func (s *Store) ReadRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ?`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read run %s: %w", id, err)
	}
	return run, nil
}

// ReadProgramText returns the stored text of a program.
func (s *Store) ReadProgramText(ctx context.Context, digest string) (string, error) {
	var text string
	err := s.db.QueryRowContext(ctx, "SELECT text FROM programs WHERE digest = ?", digest).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("program %s: %w", digest, ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("read program %s: %w", digest, err)
	}
	return text, nil
}

// FindRun returns the most recent run of fn on the given inputs.
// The interpreter is deterministic, so any matching run is a valid oracle
// result; the latest is preferred in case the core version changed.
func (s *Store) FindRun(ctx context.Context, programDigest, fn, inputsDigest string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs
		WHERE program_digest = ? AND function = ? AND inputs_digest = ?
		ORDER BY seq DESC, id COLLATE BINARY DESC
		LIMIT 1`
	run, err := scanRun(s.db.QueryRowContext(ctx, query, programDigest, fn, inputsDigest))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run of %s: %w", fn, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find run of %s: %w", fn, err)
	}
	return run, nil
}

// ListRuns returns runs newest first.
func (s *Store) ListRuns(ctx context.Context, filter RunFilter) ([]*Run, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProgramDigest != "" {
		where = append(where, "program_digest = ?")
		args = append(args, filter.ProgramDigest)
	}
	if filter.Function != "" {
		where = append(where, "function = ?")
		args = append(args, filter.Function)
	}

	query := `SELECT ` + runColumns + ` FROM runs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY seq DESC, id COLLATE BINARY DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var (
		run     Run
		inputs  string
		outputs sql.NullString
	)
	err := row.Scan(
		&run.ID, &run.Seq, &run.ProgramDigest, &run.Function, &inputs, &run.InputsDigest,
		&outputs, &run.ErrorCode, &run.ErrorMessage, &run.Steps, &run.CoreVersion,
	)
	if err != nil {
		return nil, err
	}

	if run.Inputs, err = unmarshalValues(inputs); err != nil {
		return nil, err
	}
	if outputs.Valid {
		if run.Outputs, err = unmarshalValues(outputs.String); err != nil {
			return nil, err
		}
	}
	return &run, nil
}
