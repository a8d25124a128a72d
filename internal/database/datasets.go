package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Dataset represents an uploaded training dataset.
type Dataset struct {
	ID         uuid.UUID
	Name       string
	Images     int
	Bytes      int64
	UploadedBy string
	UploadedAt time.Time
}

// CreateDataset records a dataset upload.
func (db *DB) CreateDataset(ctx context.Context, name string, images int, size int64, uploadedBy string) (*Dataset, error) {
	var d Dataset
	err := db.pool.QueryRow(ctx,
		`INSERT INTO datasets (name, images, bytes, uploaded_by)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, images, bytes, uploaded_by, uploaded_at`,
		name, images, size, uploadedBy,
	).Scan(&d.ID, &d.Name, &d.Images, &d.Bytes, &d.UploadedBy, &d.UploadedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ListDatasets returns all datasets, newest first.
func (db *DB) ListDatasets(ctx context.Context) ([]Dataset, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, images, bytes, uploaded_by, uploaded_at
		 FROM datasets ORDER BY uploaded_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var datasets []Dataset
	for rows.Next() {
		var d Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Images, &d.Bytes, &d.UploadedBy, &d.UploadedAt); err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}

// DeleteDataset deletes a dataset by ID.
func (db *DB) DeleteDataset(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM datasets WHERE id = $1`,
		id,
	)
	return err
}
