// Package admin implements the admin panel tooling: dataset intake and
// model retraining status.
package admin

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/agroscan/agroscan/internal/store"
)

var (
	ErrNoFiles  = errors.New("please select a dataset to upload")
	ErrNoImages = errors.New("dataset contains no PNG or JPEG images")
)

// File is one uploaded file of a dataset.
type File struct {
	Name string
	Data []byte
}

// CountImages returns how many images the files contain. ZIP archives are
// inspected entry by entry without extracting them.
func CountImages(files []File) (int, error) {
	n := 0
	for _, f := range files {
		switch {
		case strings.EqualFold(path.Ext(f.Name), ".zip"):
			c, err := countZip(f.Data)
			if err != nil {
				return 0, fmt.Errorf("%s: %w", f.Name, err)
			}
			n += c
		case isImageName(f.Name):
			n++
		}
	}
	return n, nil
}

func countZip(data []byte) (int, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid zip archive: %w", err)
	}

	n := 0
	for _, f := range reader.File {
		if f.FileInfo().IsDir() || strings.HasPrefix(path.Base(f.Name), ".") {
			continue
		}
		if isImageName(f.Name) {
			n++
		}
	}
	return n, nil
}

func isImageName(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".png", ".jpg", ".jpeg":
		return true
	}
	return false
}

// datasetName labels an upload by its first file.
func datasetName(files []File) string {
	name := path.Base(files[0].Name)
	if len(files) > 1 {
		name = fmt.Sprintf("%s (+%d files)", name, len(files)-1)
	}
	return name
}

// AddDataset records an upload and marks the feature database stale.
func (s *Service) AddDataset(ctx context.Context, files []File, uploadedBy string) (*store.Dataset, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	images, err := CountImages(files)
	if err != nil {
		return nil, err
	}
	if images == 0 {
		return nil, ErrNoImages
	}

	var size int64
	for _, f := range files {
		size += int64(len(f.Data))
	}

	d := &store.Dataset{
		Name:       datasetName(files),
		Images:     images,
		Bytes:      size,
		UploadedBy: uploadedBy,
	}
	if err := s.datasets.Add(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to record dataset: %w", err)
	}

	s.mu.Lock()
	if s.features.State != StateRetraining {
		s.features.State = StateStale
		s.features.UpdatedAt = s.now()
	}
	s.mu.Unlock()

	return d, nil
}

// Datasets lists recorded uploads, newest first.
func (s *Service) Datasets(ctx context.Context) ([]store.Dataset, error) {
	return s.datasets.List(ctx)
}
