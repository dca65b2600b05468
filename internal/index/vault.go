package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

// GetVault loads the singleton vault record. Returns apperr.ErrNotFound
// when no vault has been created yet.
func (db *DB) GetVault() (*models.Vault, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT record FROM vault WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: vault: %w", apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get vault: %w", err)
	}
	var v models.Vault
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("index: decode vault: %w", err)
	}
	return &v, nil
}

// PutVault inserts or replaces the singleton vault record.
func (db *DB) PutVault(v *models.Vault) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("index: encode vault: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO vault (id, record) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET record = excluded.record
	`, string(raw))
	if err != nil {
		return fmt.Errorf("index: put vault: %w", err)
	}
	return nil
}
