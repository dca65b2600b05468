package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

// DataFilter narrows ListData results. Zero values match everything.
// Network filtering happens in memory over the decoded records.
type DataFilter struct {
	DataType   string
	Visibility string
	Network    string
}

// PutData inserts or replaces one data record.
func (db *DB) PutData(d *models.SovereignData) error {
	raw, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("index: encode record: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO data_records (id, data_type, visibility, record, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			data_type  = excluded.data_type,
			visibility = excluded.visibility,
			record     = excluded.record,
			updated_at = excluded.updated_at
	`, d.ID, d.DataType, d.Visibility, string(raw), d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("index: put record: %w", err)
	}
	return nil
}

// GetData loads one record by id.
func (db *DB) GetData(id string) (*models.SovereignData, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT record FROM data_records WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: record %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get record: %w", err)
	}
	var d models.SovereignData
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("index: decode record: %w", err)
	}
	return &d, nil
}

// DeleteData removes one record. Deleting a missing id is a no-op.
func (db *DB) DeleteData(id string) error {
	if _, err := db.conn.Exec(`DELETE FROM data_records WHERE id = ?`, id); err != nil {
		return fmt.Errorf("index: delete record: %w", err)
	}
	return nil
}

// ListData returns all records matching the filter, most recent first.
func (db *DB) ListData(f DataFilter) ([]models.SovereignData, error) {
	query := `SELECT record FROM data_records WHERE 1=1`
	var args []any
	if f.DataType != "" {
		query += ` AND data_type = ?`
		args = append(args, f.DataType)
	}
	if f.Visibility != "" {
		query += ` AND visibility = ?`
		args = append(args, f.Visibility)
	}
	query += ` ORDER BY updated_at DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("index: list records: %w", err)
	}
	defer rows.Close()

	out := []models.SovereignData{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var d models.SovereignData
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			return nil, fmt.Errorf("index: decode record: %w", err)
		}
		if f.Network != "" && !d.HasNetwork(f.Network) {
			continue
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
