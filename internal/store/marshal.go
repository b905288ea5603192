package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/roach88/sierra/internal/ir"
)

// marshalValues converts a list of values (each a list of decimal cells)
// to canonical JSON TEXT for storage.
func marshalValues(values [][]string) (string, error) {
	list := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			v = []string{}
		}
		list[i] = v
	}
	data, err := ir.MarshalCanonical(list)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// marshalOutputs is marshalValues with NULL for a failed run.
func marshalOutputs(values [][]string) (sql.NullString, error) {
	if values == nil {
		return sql.NullString{}, nil
	}
	s, err := marshalValues(values)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: s, Valid: true}, nil
}

func unmarshalValues(data string) ([][]string, error) {
	var values [][]string
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	if values == nil {
		values = [][]string{}
	}
	return values, nil
}
