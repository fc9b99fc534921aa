package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"fitstream/internal/models"
	"fitstream/internal/observability"
	"fitstream/internal/repository"
	"fitstream/internal/validation"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yml
var defaultCatalog []byte

type catalogFile struct {
	Videos []*models.Video `yaml:"videos"`
}

// LoadCatalog decodes a workout catalog document. Unknown keys are rejected.
func LoadCatalog(r io.Reader) ([]*models.Video, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc catalogFile
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	for i, v := range doc.Videos {
		v.Title = strings.TrimSpace(v.Title)
		v.Category = strings.TrimSpace(v.Category)
		if v.Title == "" {
			return nil, fmt.Errorf("catalog entry %d: title is required", i)
		}
		if err := validation.ValidateMediaRef(v.VideoURL); err != nil || v.VideoURL == "" {
			return nil, fmt.Errorf("catalog entry %q: video_url must be an http(s) URL", v.Title)
		}
		if v.DurationMinutes < 0 {
			return nil, fmt.Errorf("catalog entry %q: duration_minutes must not be negative", v.Title)
		}
	}
	return doc.Videos, nil
}

// LoadCatalogFile reads the catalog at path, or the built-in catalog when path is empty.
func LoadCatalogFile(path string) ([]*models.Video, error) {
	if path == "" {
		return LoadCatalog(bytes.NewReader(defaultCatalog))
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer func() { _ = f.Close() }()
	return LoadCatalog(f)
}

// ImportCatalog creates the videos whose title is not in the catalog yet and
// returns how many were added.
func ImportCatalog(ctx context.Context, repo repository.VideoRepository, videos []*models.Video) (int, error) {
	added := 0
	for _, v := range videos {
		_, err := repo.GetByTitle(ctx, v.Title)
		switch {
		case err == nil:
			continue
		case !models.IsCode(err, models.CodeNotFound):
			return added, fmt.Errorf("lookup %q: %w", v.Title, err)
		}
		if err := repo.Create(ctx, v); err != nil {
			return added, fmt.Errorf("create %q: %w", v.Title, err)
		}
		added++
	}
	observability.Logger.InfoContext(ctx, "catalog imported",
		slog.Int("added", added),
		slog.Int("total", len(videos)),
	)
	return added, nil
}
