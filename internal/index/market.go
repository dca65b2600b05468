package index

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/starford/sovra/internal/apperr"
	"github.com/starford/sovra/internal/models"
)

// PutListing appends one marketplace listing.
func (db *DB) PutListing(l *models.DataListing) error {
	raw, err := json.Marshal(l)
	if err != nil {
		return fmt.Errorf("index: encode listing: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO listings (id, data_id, listing, created_at) VALUES (?, ?, ?, ?)
	`, l.ID, l.DataID, string(raw), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: put listing: %w", err)
	}
	return nil
}

// GetListing loads one listing by id.
func (db *DB) GetListing(id string) (*models.DataListing, error) {
	var raw string
	err := db.conn.QueryRow(`SELECT listing FROM listings WHERE id = ?`, id).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("index: listing %s: %w", id, apperr.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("index: get listing: %w", err)
	}
	var l models.DataListing
	if err := json.Unmarshal([]byte(raw), &l); err != nil {
		return nil, fmt.Errorf("index: decode listing: %w", err)
	}
	return &l, nil
}

// ListListings returns all listings, newest first.
func (db *DB) ListListings() ([]models.DataListing, error) {
	return scanMarket[models.DataListing](db, `SELECT listing FROM listings ORDER BY created_at DESC, id DESC`)
}

// PutPurchase appends one purchase record.
func (db *DB) PutPurchase(p *models.DataPurchase) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("index: encode purchase: %w", err)
	}
	_, err = db.conn.Exec(`
		INSERT INTO purchases (id, listing_id, purchase, created_at) VALUES (?, ?, ?, ?)
	`, p.ID, p.ListingID, string(raw), p.CreatedAt)
	if err != nil {
		return fmt.Errorf("index: put purchase: %w", err)
	}
	return nil
}

// ListPurchases returns all purchases, newest first.
func (db *DB) ListPurchases() ([]models.DataPurchase, error) {
	return scanMarket[models.DataPurchase](db, `SELECT purchase FROM purchases ORDER BY created_at DESC, id DESC`)
}

func scanMarket[T any](db *DB, query string) ([]T, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	out := []T{}
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("index: decode: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
