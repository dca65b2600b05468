package index

import (
	"fmt"

	"github.com/starford/sovra/internal/models"
)

// AppendAudit persists one policy denial event.
func (db *DB) AppendAudit(e *models.PolicyAuditEvent) error {
	_, err := db.conn.Exec(`
		INSERT INTO policy_audit (id, data_id, policy, action, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.DataID, e.Policy, e.Action, e.Message, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: append audit: %w", err)
	}
	return nil
}

// ListAudit returns all audit events, newest first.
func (db *DB) ListAudit() ([]models.PolicyAuditEvent, error) {
	rows, err := db.conn.Query(`
		SELECT id, data_id, policy, action, message, created_at
		FROM policy_audit ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list audit: %w", err)
	}
	defer rows.Close()

	out := []models.PolicyAuditEvent{}
	for rows.Next() {
		var e models.PolicyAuditEvent
		if err := rows.Scan(&e.ID, &e.DataID, &e.Policy, &e.Action, &e.Message, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
