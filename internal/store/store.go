// Package store defines persistence for analyses, admin accounts and
// uploaded datasets, with in-memory implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/agroscan/agroscan/pkg/models"
	"github.com/google/uuid"
)

// ErrUsernameTaken is returned when creating an account whose username exists.
var ErrUsernameTaken = errors.New("username is already taken")

// AnalysisRecord is one completed analysis in the log.
type AnalysisRecord struct {
	ID          uuid.UUID
	Entry       models.HistoryEntry
	Result      string
	Fingerprint fingerprint.Vector
}

// Match is a logged analysis together with its distance to a query.
type Match struct {
	Record   AnalysisRecord
	Distance float64
}

// AnalysisLog records completed analyses.
type AnalysisLog interface {
	// Record stores rec, assigning an ID when it has none.
	Record(ctx context.Context, rec *AnalysisRecord) error
	// List returns up to limit records, newest first. A limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]AnalysisRecord, error)
	// Similar returns the k records whose fingerprints are closest to fp.
	Similar(ctx context.Context, fp fingerprint.Vector, k int) ([]Match, error)
	// Prune deletes records timestamped before cutoff and reports how many
	// were removed.
	Prune(ctx context.Context, cutoff time.Time) (int64, error)
}

// Account is an admin panel user.
type Account struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	Username     string
	PasswordHash []byte
	CreatedAt    time.Time
}

// Accounts stores admin accounts.
type Accounts interface {
	// Create stores a, returning ErrUsernameTaken for duplicate usernames.
	Create(ctx context.Context, a *Account) error
	// GetByUsername returns nil, nil when no account matches.
	GetByUsername(ctx context.Context, username string) (*Account, error)
}

// Dataset is a batch of training images uploaded from the admin panel.
type Dataset struct {
	ID         uuid.UUID
	Name       string
	Images     int
	Bytes      int64
	UploadedBy string
	UploadedAt time.Time
}

// Datasets stores dataset upload metadata.
type Datasets interface {
	Add(ctx context.Context, d *Dataset) error
	// List returns datasets newest first.
	List(ctx context.Context) ([]Dataset, error)
}
