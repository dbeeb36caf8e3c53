package audit

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-decision
// LogDecision writes an audit entry to the decision_log table.
func LogDecision(db *sql.DB, entry Entry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	_, err := db.Exec(
		`INSERT INTO decision_log (request_id, user_id, trigger_type, record_json, verdict, reason, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.RequestID,
		entry.UserID,
		entry.TriggerType,
		nullIfEmpty(entry.RecordJSON),
		entry.Verdict,
		nullIfEmpty(entry.Reason),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log decision: %w", err)
	}
	return nil
}

// #endregion log-decision

// #region recent
// Recent returns the newest audit entries, newest first.
func Recent(db *sql.DB, limit int) ([]Entry, error) {
	rows, err := db.Query(
		`SELECT request_id, user_id, trigger_type, record_json, verdict, reason, created_at
		 FROM decision_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var record, reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RequestID, &e.UserID, &e.TriggerType, &record, &e.Verdict, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		if record.Valid {
			e.RecordJSON = record.String
		}
		if reason.Valid {
			e.Reason = reason.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion recent

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
