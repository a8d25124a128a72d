package database

import (
	"context"
	"time"

	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
)

// AnalysisLog adapts DB to store.AnalysisLog.
type AnalysisLog struct{ db *DB }

// AccountStore adapts DB to store.Accounts.
type AccountStore struct{ db *DB }

// DatasetStore adapts DB to store.Datasets.
type DatasetStore struct{ db *DB }

// AnalysisLog returns the analysis log backed by this database.
func (db *DB) AnalysisLog() *AnalysisLog { return &AnalysisLog{db: db} }

// Accounts returns the account store backed by this database.
func (db *DB) Accounts() *AccountStore { return &AccountStore{db: db} }

// Datasets returns the dataset store backed by this database.
func (db *DB) Datasets() *DatasetStore { return &DatasetStore{db: db} }

func (a *Analysis) record() store.AnalysisRecord {
	return store.AnalysisRecord{
		ID: a.ID,
		Entry: models.HistoryEntry{
			ImageID:          a.ImageID,
			Class:            models.SeverityClass(a.Class),
			InfectionPercent: a.InfectionPercent,
			Timestamp:        a.CreatedAt,
		},
		Result:      a.Result,
		Fingerprint: a.Fingerprint,
	}
}

func (l *AnalysisLog) Record(ctx context.Context, rec *store.AnalysisRecord) error {
	a, err := l.db.CreateAnalysis(ctx, CreateAnalysisParams{
		ImageID:          rec.Entry.ImageID,
		Class:            string(rec.Entry.Class),
		InfectionPercent: rec.Entry.InfectionPercent,
		Result:           rec.Result,
		Fingerprint:      rec.Fingerprint,
		CreatedAt:        rec.Entry.Timestamp,
	})
	if err != nil {
		return err
	}
	rec.ID = a.ID
	rec.Entry.Timestamp = a.CreatedAt
	return nil
}

func (l *AnalysisLog) List(ctx context.Context, limit int) ([]store.AnalysisRecord, error) {
	analyses, err := l.db.ListAnalyses(ctx, limit)
	if err != nil {
		return nil, err
	}
	out := make([]store.AnalysisRecord, len(analyses))
	for i := range analyses {
		out[i] = analyses[i].record()
	}
	return out, nil
}

func (l *AnalysisLog) Similar(ctx context.Context, fp fingerprint.Vector, k int) ([]store.Match, error) {
	similar, err := l.db.SimilarAnalyses(ctx, fp, k)
	if err != nil {
		return nil, err
	}
	out := make([]store.Match, len(similar))
	for i := range similar {
		out[i] = store.Match{Record: similar[i].record(), Distance: similar[i].Distance}
	}
	return out, nil
}

func (l *AnalysisLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	return l.db.DeleteOldAnalyses(ctx, cutoff)
}

func (s *AccountStore) Create(ctx context.Context, a *store.Account) error {
	created, err := s.db.CreateAccount(ctx, CreateAccountParams{
		FullName:     a.FullName,
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
	})
	if err != nil {
		return err
	}
	a.ID = created.ID
	a.CreatedAt = created.CreatedAt
	return nil
}

func (s *AccountStore) GetByUsername(ctx context.Context, username string) (*store.Account, error) {
	a, err := s.db.GetAccountByUsername(ctx, username)
	if err != nil || a == nil {
		return nil, err
	}
	return &store.Account{
		ID:           a.ID,
		FullName:     a.FullName,
		Email:        a.Email,
		Username:     a.Username,
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt,
	}, nil
}

func (s *DatasetStore) Add(ctx context.Context, d *store.Dataset) error {
	created, err := s.db.CreateDataset(ctx, d.Name, d.Images, d.Bytes, d.UploadedBy)
	if err != nil {
		return err
	}
	d.ID = created.ID
	d.UploadedAt = created.UploadedAt
	return nil
}

func (s *DatasetStore) List(ctx context.Context) ([]store.Dataset, error) {
	datasets, err := s.db.ListDatasets(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]store.Dataset, len(datasets))
	for i, d := range datasets {
		out[i] = store.Dataset(d)
	}
	return out, nil
}

var (
	_ store.AnalysisLog = (*AnalysisLog)(nil)
	_ store.Accounts    = (*AccountStore)(nil)
	_ store.Datasets    = (*DatasetStore)(nil)
)
