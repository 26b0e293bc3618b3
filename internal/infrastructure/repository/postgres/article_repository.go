package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/yhchiang/medrag/internal/core/domain"
)

type ArticleRepository struct {
	db *sql.DB
}

func NewArticleRepository(db *sql.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *ArticleRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across crawler/worker/indexer startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082501)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS articles (
	pmid TEXT PRIMARY KEY,
	title TEXT NOT NULL DEFAULT '',
	abstract TEXT NOT NULL DEFAULT '',
	authors JSONB NOT NULL DEFAULT '[]'::jsonb,
	journal TEXT NOT NULL DEFAULT '',
	pub_date TEXT NOT NULL DEFAULT '',
	mesh_terms JSONB NOT NULL DEFAULT '[]'::jsonb,
	pub_types JSONB NOT NULL DEFAULT '[]'::jsonb,
	doi TEXT NOT NULL DEFAULT '',
	volume TEXT NOT NULL DEFAULT '',
	issue TEXT NOT NULL DEFAULT '',
	pages TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_pub_date ON articles(pub_date DESC);

CREATE TABLE IF NOT EXISTS crawl_jobs (
	id TEXT PRIMARY KEY,
	term TEXT NOT NULL,
	year INT NOT NULL,
	status TEXT NOT NULL,
	searched INT NOT NULL DEFAULT 0,
	published INT NOT NULL DEFAULT 0,
	stored INT NOT NULL DEFAULT 0,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_crawl_jobs_status ON crawl_jobs(status);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// UpsertArticles writes the batch in one transaction, keyed by PMID with
// later writes winning. Records without a PMID are skipped; the returned
// count is what actually landed.
func (r *ArticleRepository) UpsertArticles(ctx context.Context, articles []domain.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC()
	stored := 0
	for _, article := range articles {
		if article.PMID == "" {
			continue
		}
		authorsJSON, err := json.Marshal(article.Authors)
		if err != nil {
			return 0, fmt.Errorf("marshal authors: %w", err)
		}
		meshJSON, err := json.Marshal(article.MeshTerms)
		if err != nil {
			return 0, fmt.Errorf("marshal mesh terms: %w", err)
		}
		typesJSON, err := json.Marshal(article.PubTypes)
		if err != nil {
			return 0, fmt.Errorf("marshal pub types: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
INSERT INTO articles (
	pmid, title, abstract, authors, journal, pub_date, mesh_terms, pub_types, doi, volume, issue, pages, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$13)
ON CONFLICT (pmid) DO UPDATE SET
	title = EXCLUDED.title,
	abstract = EXCLUDED.abstract,
	authors = EXCLUDED.authors,
	journal = EXCLUDED.journal,
	pub_date = EXCLUDED.pub_date,
	mesh_terms = EXCLUDED.mesh_terms,
	pub_types = EXCLUDED.pub_types,
	doi = EXCLUDED.doi,
	volume = EXCLUDED.volume,
	issue = EXCLUDED.issue,
	pages = EXCLUDED.pages,
	updated_at = EXCLUDED.updated_at
`,
			article.PMID, article.Title, article.Abstract, authorsJSON, article.Journal, article.PubDate,
			meshJSON, typesJSON, article.DOI, article.Volume, article.Issue, article.Pages, now,
		)
		if err != nil {
			return 0, fmt.Errorf("upsert article %s: %w", article.PMID, err)
		}
		stored++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit upsert tx: %w", err)
	}
	return stored, nil
}

// ListClean returns articles that pass a coarse SQL cut of the cleanliness
// rules, ordered by PMID so repeated snapshot builds see the corpus in the
// same order. Callers still apply the authoritative domain filter.
func (r *ArticleRepository) ListClean(ctx context.Context, minAbstractChars int) ([]domain.Article, error) {
	if minAbstractChars < 0 {
		minAbstractChars = 0
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT pmid, title, abstract, authors, journal, pub_date, mesh_terms, pub_types, doi, volume, issue, pages
FROM articles
WHERE btrim(title) <> '' AND btrim(abstract) <> '' AND length(btrim(abstract)) >= $1
ORDER BY pmid
`, minAbstractChars)
	if err != nil {
		return nil, fmt.Errorf("list clean articles: %w", err)
	}
	defer rows.Close()

	out := make([]domain.Article, 0)
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, article)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate articles: %w", err)
	}
	return out, nil
}

func (r *ArticleRepository) CountArticles(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM articles`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count articles: %w", err)
	}
	return count, nil
}

type articleScanner interface {
	Scan(dest ...interface{}) error
}

func scanArticle(row articleScanner) (domain.Article, error) {
	var article domain.Article
	var authorsRaw, meshRaw, typesRaw []byte
	err := row.Scan(
		&article.PMID,
		&article.Title,
		&article.Abstract,
		&authorsRaw,
		&article.Journal,
		&article.PubDate,
		&meshRaw,
		&typesRaw,
		&article.DOI,
		&article.Volume,
		&article.Issue,
		&article.Pages,
	)
	if err != nil {
		return domain.Article{}, fmt.Errorf("scan article: %w", err)
	}
	if err := json.Unmarshal(authorsRaw, &article.Authors); err != nil {
		return domain.Article{}, fmt.Errorf("unmarshal authors: %w", err)
	}
	if err := json.Unmarshal(meshRaw, &article.MeshTerms); err != nil {
		return domain.Article{}, fmt.Errorf("unmarshal mesh terms: %w", err)
	}
	if err := json.Unmarshal(typesRaw, &article.PubTypes); err != nil {
		return domain.Article{}, fmt.Errorf("unmarshal pub types: %w", err)
	}
	return article, nil
}
