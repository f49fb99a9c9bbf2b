// Package postgres is the reference Store implementation: one jsonb
// document table under compare-and-set revisions, plus persisted
// owner-scoped index rows. Schema management goes through embedded goose
// migrations.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/avoskresensky/docvault/document"
	"github.com/avoskresensky/docvault/internal/dbx"
	"github.com/avoskresensky/docvault/logging"
	"github.com/avoskresensky/docvault/store"
	"github.com/avoskresensky/docvault/store/postgres/migrations"
	"github.com/avoskresensky/docvault/view"
)

// Store implements store.Store over postgres. Construct with New; Open
// also connects and migrates.
type Store struct {
	db *sql.DB
}

// New wraps an existing connection pool. The schema is assumed to be
// current; tests inject sqlmock handles here.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open connects to dsn with the pgx stdlib driver, verifies the
// connection, and brings the schema up to date.
func Open(ctx context.Context, dsn string, log logging.Logger) (*Store, error) {
	if log == nil {
		log = logging.Nop{}
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}
	log.Info(ctx, "document store ready")
	return New(db), nil
}

// RunMigrations applies the embedded goose migrations.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) GetDocument(ctx context.Context, key string) (document.Document, int64, error) {
	var (
		rev  int64
		body []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT revision, body FROM documents WHERE key = $1`, key,
	).Scan(&rev, &body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, store.ErrNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get document %s: %w", key, err)
	}
	var doc document.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, 0, fmt.Errorf("decode document %s: %w", key, err)
	}
	return doc, rev, nil
}

// PutDocument inserts (expectedRev 0) or replaces the revision the caller
// read. Zero rows affected means another writer got there first and the
// caller must re-read and retry.
func (s *Store) PutDocument(ctx context.Context, key string, doc document.Document, expectedRev int64) (int64, error) {
	body, err := json.Marshal(doc)
	if err != nil {
		return 0, fmt.Errorf("encode document %s: %w", key, err)
	}

	var res sql.Result
	if expectedRev == 0 {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO documents (key, revision, body) VALUES ($1, 1, $2)
			 ON CONFLICT (key) DO NOTHING`, key, body)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE documents SET revision = revision + 1, body = $3
			 WHERE key = $1 AND revision = $2`, key, expectedRev, body)
	}
	if err != nil {
		return 0, fmt.Errorf("put document %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return expectedRev + 1, nil
	case 0:
		return 0, store.ErrWriteConflict
	default:
		return 0, fmt.Errorf("unexpected rows affected: %d", n)
	}
}

func (s *Store) DeleteDocument(ctx context.Context, key string, expectedRev int64) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM documents WHERE key = $1 AND revision = $2`, key, expectedRev)
	if err != nil {
		return fmt.Errorf("delete document %s: %w", key, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return store.ErrWriteConflict
	}
	return nil
}

func (s *Store) QueryGroupsByUser(ctx context.Context, email string) ([]document.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM documents
		 WHERE body->>'$type' = 'group' AND body->'users' @> jsonb_build_array($1::text)
		 ORDER BY body->>'name'`, email)
	if err != nil {
		return nil, fmt.Errorf("query groups for %s: %w", email, err)
	}
	defer rows.Close()

	var result []document.Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		var doc document.Document
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode group document: %w", err)
		}
		result = append(result, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) QueryGroupsByUserAndRight(ctx context.Context, email, right string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body->>'name' FROM documents
		 WHERE body->>'$type' = 'group'
		   AND body->'users' @> jsonb_build_array($1::text)
		   AND body->'rights' @> jsonb_build_array($2::text)
		 ORDER BY body->>'name'`, email, right)
	if err != nil {
		return nil, fmt.Errorf("query groups for %s by right %s: %w", email, right, err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}

func (s *Store) GetGlobalRights(ctx context.Context) (map[string][]string, error) {
	doc, _, err := s.GetDocument(ctx, "db/"+document.RightsDocID)
	if errors.Is(err, store.ErrNotFound) {
		return map[string][]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	return store.ParseGlobalRights(doc)
}

func (s *Store) GetDefaultGroups(ctx context.Context) (document.DefaultGroups, error) {
	doc, _, err := s.GetDocument(ctx, "db/"+document.DefaultGroupsDocID)
	if errors.Is(err, store.ErrNotFound) {
		return document.DefaultGroups{}, nil
	}
	if err != nil {
		return document.DefaultGroups{}, err
	}
	return store.ParseDefaultGroups(doc)
}

// SaveRows replaces the persisted index rows a document contributed to a
// view. Callers pass the output of the registered (usually owner-scoped)
// IndexFn after each accepted write.
func (s *Store) SaveRows(ctx context.Context, viewName, docKey string, rows []view.Row) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM view_rows WHERE view = $1 AND doc_key = $2`, viewName, docKey); err != nil {
			return fmt.Errorf("clear view rows: %w", err)
		}
		for i, r := range rows {
			key, err := json.Marshal(r.Key)
			if err != nil {
				return fmt.Errorf("encode view key: %w", err)
			}
			value, err := json.Marshal(r.Value)
			if err != nil {
				return fmt.Errorf("encode view value: %w", err)
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO view_rows (view, doc_key, ord, key, value) VALUES ($1, $2, $3, $4, $5)`,
				viewName, docKey, i, key, value); err != nil {
				return fmt.Errorf("insert view row: %w", err)
			}
		}
		return nil
	})
}

// OwnerRange scans every persisted row of a view whose key is prefixed by
// the given owner identity, in key order.
func (s *Store) OwnerRange(ctx context.Context, viewName, owner string) ([]view.Row, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM view_rows
		 WHERE view = $1 AND key->>0 = $2
		 ORDER BY key`, viewName, owner)
	if err != nil {
		return nil, fmt.Errorf("owner range scan: %w", err)
	}
	defer rows.Close()

	var result []view.Row
	for rows.Next() {
		var key, value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		var r view.Row
		if err := json.Unmarshal(key, &r.Key); err != nil {
			return nil, fmt.Errorf("decode view key: %w", err)
		}
		if value != nil {
			if err := json.Unmarshal(value, &r.Value); err != nil {
				return nil, fmt.Errorf("decode view value: %w", err)
			}
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
