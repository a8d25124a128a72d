package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/google/uuid"
)

// MemoryAnalysisLog keeps analyses in process memory.
type MemoryAnalysisLog struct {
	mu       sync.RWMutex
	records  []AnalysisRecord
	capacity int
}

// NewMemoryAnalysisLog creates a log holding at most capacity records. Older
// records are dropped first. A capacity <= 0 means unbounded.
func NewMemoryAnalysisLog(capacity int) *MemoryAnalysisLog {
	return &MemoryAnalysisLog{capacity: capacity}
}

func (l *MemoryAnalysisLog) Record(ctx context.Context, rec *AnalysisRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	if rec.Entry.Timestamp.IsZero() {
		rec.Entry.Timestamp = time.Now()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *rec)
	if l.capacity > 0 && len(l.records) > l.capacity {
		l.records = l.records[len(l.records)-l.capacity:]
	}
	return nil
}

func (l *MemoryAnalysisLog) List(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := len(l.records)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]AnalysisRecord, 0, n)
	for i := len(l.records) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, l.records[i])
	}
	return out, nil
}

func (l *MemoryAnalysisLog) Similar(ctx context.Context, fp fingerprint.Vector, k int) ([]Match, error) {
	if k <= 0 {
		return nil, nil
	}

	l.mu.RLock()
	matches := make([]Match, 0, len(l.records))
	for _, r := range l.records {
		if len(r.Fingerprint) == 0 {
			continue
		}
		matches = append(matches, Match{Record: r, Distance: fingerprint.Distance(fp, r.Fingerprint)})
	}
	l.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches, nil
}

func (l *MemoryAnalysisLog) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.records[:0]
	for _, r := range l.records {
		if !r.Entry.Timestamp.Before(cutoff) {
			kept = append(kept, r)
		}
	}
	removed := int64(len(l.records) - len(kept))
	clear(l.records[len(kept):])
	l.records = kept
	return removed, nil
}

// MemoryAccounts keeps admin accounts in process memory.
type MemoryAccounts struct {
	mu       sync.RWMutex
	accounts map[string]*Account
}

// NewMemoryAccounts creates an empty account store.
func NewMemoryAccounts() *MemoryAccounts {
	return &MemoryAccounts{accounts: make(map[string]*Account)}
}

func (s *MemoryAccounts) Create(ctx context.Context, a *Account) error {
	key := strings.ToLower(a.Username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[key]; exists {
		return ErrUsernameTaken
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	stored := *a
	s.accounts[key] = &stored
	return nil
}

func (s *MemoryAccounts) GetByUsername(ctx context.Context, username string) (*Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[strings.ToLower(username)]
	if !ok {
		return nil, nil
	}
	found := *a
	return &found, nil
}

// MemoryDatasets keeps dataset metadata in process memory.
type MemoryDatasets struct {
	mu       sync.RWMutex
	datasets []Dataset
}

// NewMemoryDatasets creates an empty dataset store.
func NewMemoryDatasets() *MemoryDatasets {
	return &MemoryDatasets{}
}

func (s *MemoryDatasets) Add(ctx context.Context, d *Dataset) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now()
	}
	s.mu.Lock()
	s.datasets = append(s.datasets, *d)
	s.mu.Unlock()
	return nil
}

func (s *MemoryDatasets) List(ctx context.Context) ([]Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Dataset, 0, len(s.datasets))
	for i := len(s.datasets) - 1; i >= 0; i-- {
		out = append(out, s.datasets[i])
	}
	return out, nil
}

var (
	_ AnalysisLog = (*MemoryAnalysisLog)(nil)
	_ Accounts    = (*MemoryAccounts)(nil)
	_ Datasets    = (*MemoryDatasets)(nil)
)
