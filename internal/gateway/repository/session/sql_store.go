package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Dialect selects placeholder syntax for the SQL store.
type Dialect int

const (
	Postgres Dialect = iota
	SQLite
)

// SQLStore keeps documents in a single table. The same statements run on
// Postgres (pgx stdlib driver) and SQLite (modernc driver).
type SQLStore struct {
	db      *sql.DB
	dialect Dialect

	schemaMu    sync.Mutex
	schemaReady bool
}

// schemaTimeout bounds the schema setup done while opening a store.
const schemaTimeout = 10 * time.Second

func NewSQLStore(db *sql.DB, d Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: d}
}

// OpenPostgres connects through the pgx stdlib driver.
func OpenPostgres(dsn string) (*SQLStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return openedStore(db, Postgres)
}

// OpenSQLite opens (or creates) a database file with WAL journaling.
// ":memory:" opens a private in-memory database.
func OpenSQLite(path string) (*SQLStore, error) {
	path = strings.TrimSpace(path)
	dsn := "file::memory:?_pragma=busy_timeout(5000)"
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		dsn = fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	return openedStore(db, SQLite)
}

func openedStore(db *sql.DB, d Dialect) (*SQLStore, error) {
	s := NewSQLStore(db, d)
	ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
	defer cancel()
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS session_documents (
    user_id TEXT NOT NULL,
    collection TEXT NOT NULL,
    id TEXT NOT NULL,
    name TEXT NOT NULL DEFAULT '',
    data TEXT NOT NULL,
    created_at BIGINT NOT NULL,
    updated_at BIGINT NOT NULL,
    PRIMARY KEY (user_id, collection, id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_session_documents_recent ON session_documents (user_id, collection, updated_at)`,
}

// ensureSchema creates the table on first use. A failed attempt is not
// remembered, so a cancelled caller does not break later ones.
func (s *SQLStore) ensureSchema(ctx context.Context) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("db is nil")
	}
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaReady {
		return nil
	}
	for _, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create session schema: %w", err)
		}
	}
	s.schemaReady = true
	return nil
}

// bind rewrites ? placeholders to $n for Postgres.
func (s *SQLStore) bind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (s *SQLStore) Save(ctx context.Context, doc Document) (Document, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return Document{}, err
	}
	doc, err := prepare(doc, nil)
	if err != nil {
		return Document{}, err
	}
	var created int64
	err = s.db.QueryRowContext(ctx, s.bind(`
INSERT INTO session_documents (user_id, collection, id, name, data, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, collection, id)
DO UPDATE SET name=excluded.name, data=excluded.data, updated_at=excluded.updated_at
RETURNING created_at`),
		doc.UserID, string(doc.Collection), doc.ID, doc.Name, string(doc.Data),
		doc.CreatedAt.UnixNano(), doc.UpdatedAt.UnixNano(),
	).Scan(&created)
	if err != nil {
		return Document{}, fmt.Errorf("save session: %w", err)
	}
	doc.CreatedAt = time.Unix(0, created).UTC()
	return doc, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var (
		doc              Document
		coll, data       string
		created, updated int64
	)
	if err := row.Scan(&doc.UserID, &coll, &doc.ID, &doc.Name, &data, &created, &updated); err != nil {
		return Document{}, err
	}
	doc.Collection = Collection(coll)
	doc.Data = []byte(data)
	doc.CreatedAt = time.Unix(0, created).UTC()
	doc.UpdatedAt = time.Unix(0, updated).UTC()
	return doc, nil
}

const selectColumns = `SELECT user_id, collection, id, name, data, created_at, updated_at FROM session_documents`

func (s *SQLStore) Get(ctx context.Context, userID string, c Collection, id string) (Document, error) {
	if err := checkID(userID, c, id); err != nil {
		return Document{}, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return Document{}, err
	}
	row := s.db.QueryRowContext(ctx, s.bind(selectColumns+` WHERE user_id=? AND collection=? AND id=?`),
		strings.TrimSpace(userID), string(c), strings.TrimSpace(id))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get session: %w", err)
	}
	return doc, nil
}

func (s *SQLStore) List(ctx context.Context, userID string, c Collection) ([]Document, error) {
	if err := checkKey(userID, c); err != nil {
		return nil, err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, s.bind(selectColumns+` WHERE user_id=? AND collection=? ORDER BY updated_at DESC, id ASC`),
		strings.TrimSpace(userID), string(c))
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Document, 0, 16)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) Delete(ctx context.Context, userID string, c Collection, id string) error {
	if err := checkID(userID, c, id); err != nil {
		return err
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, s.bind(`DELETE FROM session_documents WHERE user_id=? AND collection=? AND id=?`),
		strings.TrimSpace(userID), string(c), strings.TrimSpace(id))
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
