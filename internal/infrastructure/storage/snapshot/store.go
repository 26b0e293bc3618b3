package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yhchiang/medrag/internal/core/domain"
	"github.com/yhchiang/medrag/internal/infrastructure/storage/localfs"
)

const (
	vectorsFile  = "embeddings.bin"
	idsFile      = "article_ids.json"
	articlesFile = "articles.json"
	manifestFile = "manifest.yaml"
)

// manifest describes a snapshot on disk. It is written last, so its presence
// marks the artifact set as complete.
type manifest struct {
	Model    string `yaml:"model"`
	Dim      int    `yaml:"dim"`
	Articles int    `yaml:"articles"`
	BuiltAt  string `yaml:"built_at"`
}

// Store persists and loads serving snapshots as a four-file artifact set in
// a local directory. Each file is written atomically; the manifest goes last.
type Store struct {
	fs *localfs.Storage
}

func NewStore(fs *localfs.Storage) *Store {
	return &Store{fs: fs}
}

// Write persists snap. A reader that loads mid-write sees either the previous
// complete snapshot or the new one, never a mix of a data file and a stale
// manifest count for the same run.
func (s *Store) Write(ctx context.Context, snap *domain.Snapshot) error {
	if len(snap.Vectors) != len(snap.ArticleIDs) || len(snap.ArticleIDs) != len(snap.Articles) {
		return fmt.Errorf("write snapshot: vectors/ids/articles lengths differ (%d/%d/%d)",
			len(snap.Vectors), len(snap.ArticleIDs), len(snap.Articles))
	}

	vectors, err := encodeVectors(snap.Dim, snap.Vectors)
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	ids, err := json.Marshal(snap.ArticleIDs)
	if err != nil {
		return fmt.Errorf("write snapshot: marshal ids: %w", err)
	}
	articles, err := json.Marshal(snap.Articles)
	if err != nil {
		return fmt.Errorf("write snapshot: marshal articles: %w", err)
	}
	man, err := yaml.Marshal(manifest{
		Model:    snap.Model,
		Dim:      snap.Dim,
		Articles: len(snap.Articles),
		BuiltAt:  snap.BuiltAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		return fmt.Errorf("write snapshot: marshal manifest: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{vectorsFile, vectors},
		{idsFile, ids},
		{articlesFile, articles},
		{manifestFile, man},
	}
	for _, f := range files {
		if err := s.fs.Save(ctx, f.name, f.data); err != nil {
			return fmt.Errorf("write snapshot %s: %w", f.name, err)
		}
	}
	return nil
}

// Load reads the snapshot back and cross-checks the manifest against the
// data files. A missing manifest means no complete snapshot exists yet.
func (s *Store) Load(ctx context.Context) (*domain.Snapshot, error) {
	man, err := s.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	rawVectors, err := s.fs.Load(ctx, vectorsFile)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	dim, vectors, err := decodeVectors(rawVectors)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	rawIDs, err := s.fs.Load(ctx, idsFile)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(rawIDs, &ids); err != nil {
		return nil, fmt.Errorf("load snapshot: unmarshal ids: %w", err)
	}

	rawArticles, err := s.fs.Load(ctx, articlesFile)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var articles []domain.Article
	if err := json.Unmarshal(rawArticles, &articles); err != nil {
		return nil, fmt.Errorf("load snapshot: unmarshal articles: %w", err)
	}

	if dim != man.Dim {
		return nil, fmt.Errorf("load snapshot: vector dim %d does not match manifest dim %d", dim, man.Dim)
	}
	if len(vectors) != man.Articles || len(ids) != man.Articles || len(articles) != man.Articles {
		return nil, fmt.Errorf("load snapshot: manifest says %d articles, files hold %d vectors, %d ids, %d records",
			man.Articles, len(vectors), len(ids), len(articles))
	}

	builtAt, _ := parseBuiltAt(man.BuiltAt)
	return &domain.Snapshot{
		Model:      man.Model,
		Dim:        dim,
		Vectors:    vectors,
		ArticleIDs: ids,
		Articles:   articles,
		BuiltAt:    builtAt,
	}, nil
}

func parseBuiltAt(raw string) (time.Time, error) {
	return time.Parse("2006-01-02T15:04:05Z", raw)
}

func (s *Store) loadManifest(ctx context.Context) (manifest, error) {
	raw, err := s.fs.Load(ctx, manifestFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return manifest{}, domain.WrapError(domain.ErrNotReady, "load snapshot", errors.New("no manifest in snapshot dir"))
		}
		return manifest{}, fmt.Errorf("load snapshot: %w", err)
	}
	var man manifest
	if err := yaml.Unmarshal(raw, &man); err != nil {
		return manifest{}, fmt.Errorf("load snapshot: unmarshal manifest: %w", err)
	}
	if man.Dim <= 0 || man.Articles < 0 {
		return manifest{}, fmt.Errorf("load snapshot: manifest dim %d, articles %d out of range", man.Dim, man.Articles)
	}
	return man, nil
}
