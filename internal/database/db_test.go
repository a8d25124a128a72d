package database

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/agroscan/agroscan/internal/fingerprint"
	"github.com/agroscan/agroscan/internal/store"
	"github.com/agroscan/agroscan/pkg/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// databaseURL is DATABASE_URL, or a throwaway pgvector container when unset
// and Docker is reachable. Empty means database tests are skipped.
var databaseURL string

func TestMain(m *testing.M) {
	flag.Parse()

	databaseURL = os.Getenv("DATABASE_URL")
	var ctr *postgres.PostgresContainer
	if databaseURL == "" && !testing.Short() {
		var err error
		ctr, databaseURL, err = startPostgres(context.Background())
		if err != nil {
			log.Printf("postgres container unavailable: %v", err)
		}
	}

	if databaseURL != "" {
		if err := Migrate(databaseURL); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	code := m.Run()

	if ctr != nil {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			log.Printf("failed to terminate container: %v", err)
		}
	}
	os.Exit(code)
}

func startPostgres(ctx context.Context) (ctr *postgres.PostgresContainer, url string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("docker unavailable: %v", r)
		}
	}()

	ctr, err = postgres.Run(ctx, "pgvector/pgvector:pg16",
		postgres.WithDatabase("agroscan"),
		postgres.WithUsername("agroscan"),
		postgres.WithPassword("agroscan"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, "", err
	}
	url, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(ctr)
		return nil, "", err
	}
	return ctr, url, nil
}

// testDB returns a connected DB or skips if no database is available.
func testDB(t *testing.T) *DB {
	t.Helper()
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set and no container runtime available")
	}

	ctx := context.Background()
	db, err := New(ctx, databaseURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrations(t *testing.T) {
	if databaseURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Migrations are idempotent
	require.NoError(t, Migrate(databaseURL))
}

func TestAccountCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	username := "admin_" + uuid.New().String()[:8]
	account, err := db.CreateAccount(ctx, CreateAccountParams{
		FullName:     "Test Admin",
		Email:        "admin@example.com",
		Username:     username,
		PasswordHash: []byte("$2a$10$hash"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteAccount(ctx, account.ID) })
	assert.NotEqual(t, uuid.Nil, account.ID)
	assert.Equal(t, username, account.Username)

	// Usernames are unique ignoring case
	_, err = db.CreateAccount(ctx, CreateAccountParams{
		FullName:     "Other",
		Email:        "other@example.com",
		Username:     "ADMIN_" + username[6:],
		PasswordHash: []byte("x"),
	})
	assert.ErrorIs(t, err, store.ErrUsernameTaken)

	found, err := db.GetAccountByUsername(ctx, username)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, account.ID, found.ID)
	assert.Equal(t, []byte("$2a$10$hash"), found.PasswordHash)

	missing, err := db.GetAccountByUsername(ctx, "nobody_"+uuid.New().String()[:8])
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAnalysisCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	fp := make(fingerprint.Vector, fingerprint.Bins)
	fp[5] = 1

	created := time.Date(2025, 5, 1, 14, 32, 0, 0, time.UTC)
	a, err := db.CreateAnalysis(ctx, CreateAnalysisParams{
		ImageID:          "WR001",
		Class:            "MRMS",
		InfectionPercent: 22.5,
		Result:           "22MRMS",
		Fingerprint:      fp,
		CreatedAt:        created,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteAnalysis(ctx, a.ID) })
	assert.Equal(t, "WR001", a.ImageID)
	assert.Equal(t, fp, a.Fingerprint)
	assert.True(t, created.Equal(a.CreatedAt))

	noFP, err := db.CreateAnalysis(ctx, CreateAnalysisParams{ImageID: "WR002", Class: "S", InfectionPercent: 48})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteAnalysis(ctx, noFP.ID) })
	assert.Nil(t, noFP.Fingerprint)

	found, err := db.GetAnalysisByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 22.5, found.InfectionPercent)

	missing, err := db.GetAnalysisByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)

	list, err := db.ListAnalyses(ctx, 0)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(list), 2)

	_, err = db.CreateAnalysis(ctx, CreateAnalysisParams{ImageID: "bad", Class: "S", InfectionPercent: 101})
	assert.Error(t, err)
}

func TestPruneAnalyses(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	analysisLog := db.AnalysisLog()

	cutoff := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	old := &store.AnalysisRecord{
		Entry: models.HistoryEntry{ImageID: "old", Class: models.ClassS, InfectionPercent: 40, Timestamp: cutoff.Add(-time.Hour)},
	}
	kept := &store.AnalysisRecord{
		Entry: models.HistoryEntry{ImageID: "kept", Class: models.ClassS, InfectionPercent: 40, Timestamp: cutoff.Add(time.Hour)},
	}
	require.NoError(t, analysisLog.Record(ctx, old))
	require.NoError(t, analysisLog.Record(ctx, kept))
	t.Cleanup(func() {
		_ = db.DeleteAnalysis(ctx, old.ID)
		_ = db.DeleteAnalysis(ctx, kept.ID)
	})

	n, err := analysisLog.Prune(ctx, cutoff)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(1))

	gone, err := db.GetAnalysisByID(ctx, old.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	found, err := db.GetAnalysisByID(ctx, kept.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "kept", found.ImageID)
}

func TestSimilarAnalyses(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	analysisLog := db.AnalysisLog()

	tag := uuid.New().String()[:8]
	vec := func(bin int) fingerprint.Vector {
		v := make(fingerprint.Vector, fingerprint.Bins)
		v[bin] = 1
		return v
	}

	for i, bin := range []int{5, 6, 0} {
		rec := &store.AnalysisRecord{
			Entry:       models.HistoryEntry{ImageID: fmt.Sprintf("%s-%d", tag, i), Class: models.ClassMS, InfectionPercent: 30},
			Fingerprint: vec(bin),
		}
		require.NoError(t, analysisLog.Record(ctx, rec))
		id := rec.ID
		t.Cleanup(func() { _ = db.DeleteAnalysis(ctx, id) })
	}

	matches, err := analysisLog.Similar(ctx, vec(5), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.InDelta(t, 0, matches[0].Distance, 1e-6)
	assert.Equal(t, fingerprint.Bins, len(matches[0].Record.Fingerprint))
}

func TestDatasets(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	datasets := db.Datasets()

	d := &store.Dataset{Name: "rust-" + uuid.New().String()[:8] + ".zip", Images: 12, Bytes: 4096, UploadedBy: "admin"}
	require.NoError(t, datasets.Add(ctx, d))
	t.Cleanup(func() { _ = db.DeleteDataset(ctx, d.ID) })
	assert.NotEqual(t, uuid.Nil, d.ID)

	list, err := datasets.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, x := range list {
		names = append(names, x.Name)
	}
	assert.Contains(t, names, d.Name)
}

func TestAccountStore(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	accounts := db.Accounts()

	a := &store.Account{FullName: "Field Admin", Email: "f@example.com", Username: "field_" + uuid.New().String()[:8], PasswordHash: []byte("h")}
	require.NoError(t, accounts.Create(ctx, a))
	t.Cleanup(func() { _ = db.DeleteAccount(ctx, a.ID) })

	got, err := accounts.GetByUsername(ctx, a.Username)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, got.ID)
}
