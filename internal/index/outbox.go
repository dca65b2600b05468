package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

// PutJob inserts or replaces one outbox job.
func (db *DB) PutJob(j *models.OutboxJob) error {
	raw, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("index: encode job: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO outbox (id, status, job, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			job    = excluded.job
	`, j.ID, j.Status, string(raw), j.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: put job: %w", err)
	}
	return nil
}

// GetJob loads one job by id.
func (db *DB) GetJob(id string) (*models.OutboxJob, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT job FROM outbox WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: job %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get job: %w", err)
	}
	var j models.OutboxJob
	if err := json.Unmarshal([]byte(raw), &j); err != nil {
		return nil, fmt.Errorf("index: decode job: %w", err)
	}
	return &j, nil
}

// ListJobs returns every job in enqueue order. Jobs are never deleted;
// terminal jobs remain as an audit trail.
func (db *DB) ListJobs() ([]models.OutboxJob, error) {
	rows, err := db.conn.Query(`SELECT job FROM outbox ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("index: list jobs: %w", err)
	}
	defer rows.Close()

	out := []models.OutboxJob{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var j models.OutboxJob
		if err := json.Unmarshal([]byte(raw), &j); err != nil {
			return nil, fmt.Errorf("index: decode job: %w", err)
		}
		out = append(out, j)
	}
	return out, rows.Err()
}
