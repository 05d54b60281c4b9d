package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// decidedAtLayout is fixed-width so lexical ORDER BY matches time order.
const decidedAtLayout = "2006-01-02T15:04:05.000000000Z"

// Store is the SQLite-backed approval log.
type Store struct {
	db *sql.DB
}

// NewStore wraps a database bootstrapped by storage.OpenSQLite.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Record inserts one decision.
func (s *Store) Record(ctx context.Context, resp Response, input map[string]any) error {
	var inputJSON any
	if len(input) > 0 {
		b, err := json.Marshal(input)
		if err != nil {
			return fmt.Errorf("marshal input: %w", err)
		}
		inputJSON = string(b)
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO approval_log (id, process_id, tool, input, decision, reason, decided_at)
VALUES (?, ?, ?, ?, ?, ?, ?);`,
		resp.ID,
		resp.ProcessID,
		resp.Tool,
		inputJSON,
		string(resp.Decision),
		resp.Reason,
		resp.DecidedAt.UTC().Format(decidedAtLayout),
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	return nil
}

// Recent returns up to limit decisions, newest first. An empty processID
// returns decisions for every process.
func (s *Store) Recent(ctx context.Context, processID string, limit int) ([]Response, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, process_id, tool, decision, reason, decided_at FROM approval_log`
	args := []any{}
	if processID != "" {
		query += ` WHERE process_id = ?`
		args = append(args, processID)
	}
	query += ` ORDER BY decided_at DESC LIMIT ?;`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query approvals: %w", err)
	}
	defer rows.Close()

	var out []Response
	for rows.Next() {
		var (
			r         Response
			decision  string
			reason    sql.NullString
			decidedAt string
		)
		if err := rows.Scan(&r.ID, &r.ProcessID, &r.Tool, &decision, &reason, &decidedAt); err != nil {
			return nil, fmt.Errorf("scan approval: %w", err)
		}
		r.Decision = Decision(decision)
		r.Reason = reason.String
		if t, err := time.Parse(decidedAtLayout, decidedAt); err == nil {
			r.DecidedAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate approvals: %w", err)
	}
	return out, nil
}
