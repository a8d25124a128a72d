package admin

import (
	"archive/zip"
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/agroscan/agroscan/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func zipOf(t *testing.T, names ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, n := range names {
		f, err := w.Create(n)
		require.NoError(t, err)
		_, err = f.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestCountImages(t *testing.T) {
	tests := []struct {
		name  string
		files []File
		want  int
	}{
		{"single png", []File{{Name: "leaf.png"}}, 1},
		{"mixed files", []File{{Name: "a.JPG"}, {Name: "b.jpeg"}, {Name: "notes.txt"}}, 2},
		{"zip", []File{{Name: "set.zip", Data: zipOf(t, "rust/a.png", "rust/b.jpg", "rust/readme.md", "__MACOSX/._a.png", "rust/.hidden.png")}}, 3},
		{"zip and image", []File{{Name: "set.ZIP", Data: zipOf(t, "x.png")}, {Name: "y.png"}}, 2},
		{"nothing", []File{{Name: "doc.pdf"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CountImages(tt.files)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCountImages_BadZip(t *testing.T) {
	_, err := CountImages([]File{{Name: "broken.zip", Data: []byte("not a zip")}})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broken.zip")
}

func TestAddDataset(t *testing.T) {
	ctx := context.Background()
	s := NewService(store.NewMemoryDatasets(), time.Hour)

	_, err := s.AddDataset(ctx, nil, "admin")
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = s.AddDataset(ctx, []File{{Name: "notes.txt", Data: []byte("x")}}, "admin")
	assert.ErrorIs(t, err, ErrNoImages)

	d, err := s.AddDataset(ctx, []File{
		{Name: "batch.zip", Data: zipOf(t, "a.png", "b.png")},
		{Name: "c.jpg", Data: []byte("jpeg")},
	}, "admin")
	require.NoError(t, err)
	assert.Equal(t, 3, d.Images)
	assert.Equal(t, "batch.zip (+1 files)", d.Name)
	assert.Equal(t, "admin", d.UploadedBy)

	list, err := s.Datasets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	status := s.Status()
	assert.Equal(t, StateStale, status[2].State)
	assert.Equal(t, "Needs update", status[2].Label())
	assert.Equal(t, "Ready", status[0].Label())
}

func TestRetrain(t *testing.T) {
	s := NewService(store.NewMemoryDatasets(), 20*time.Millisecond)
	defer s.Close()

	for _, c := range s.Status() {
		assert.Equal(t, StateReady, c.State)
	}
	assert.Equal(t, "Up to date", s.Status()[2].Label())

	require.NoError(t, s.Retrain("admin"))
	assert.True(t, s.Retraining())
	for _, c := range s.Status() {
		assert.Equal(t, StateRetraining, c.State)
		assert.Equal(t, "Retraining", c.Label())
	}

	assert.ErrorIs(t, s.Retrain("admin"), ErrRetrainInProgress)

	require.Eventually(t, func() bool { return !s.Retraining() }, 2*time.Second, 5*time.Millisecond)
	for _, c := range s.Status() {
		assert.Equal(t, StateReady, c.State)
	}
}

func TestClose_StopsRetrain(t *testing.T) {
	s := NewService(store.NewMemoryDatasets(), time.Hour)
	require.NoError(t, s.Retrain("admin"))
	s.Close()
	assert.False(t, s.Retraining())
	require.NoError(t, s.Retrain("admin"))
	s.Close()
}
