// Package pgstore implements store.Store backed by a single PostgreSQL
// table of path-keyed JSON documents, using a raw jackc/pgx/v5 pool
// instead of the teacher's sqlc-generated relational queries. The
// document-store port this spec requires has no fixed schema to generate
// code against; what survives from the teacher is the pgxpool handle
// shape and its transaction-retry idiom, not the SQL relational model.
package pgstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandyland/sams-core/internal/apperr"
	"github.com/sandyland/sams-core/internal/store"
)

// schema is the documents table EnsureSchema creates when it is missing.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	path TEXT PRIMARY KEY,
	data JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// maxTxRetries bounds how many times RunTransaction retries fn after a
// serialization conflict before surfacing it to the caller.
const maxTxRetries = 5

// Store persists documents as JSONB rows keyed by their full path.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store. EnsureSchema must be called once per database, or
// the table must already exist.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema creates the documents table if it does not already exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, schema)
	return err
}

func resolveTimestamps(data map[string]interface{}, at time.Time) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if store.IsServerTimestamp(v) {
			out[k] = at.UTC().Format(time.RFC3339Nano)
		} else {
			out[k] = v
		}
	}
	return out
}

func (s *Store) Get(ctx context.Context, path string) (map[string]interface{}, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM documents WHERE path = $1`, path).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *Store) Set(ctx context.Context, path string, data map[string]interface{}) error {
	resolved := resolveTimestamps(data, time.Now())
	raw, err := json.Marshal(resolved)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO documents (path, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, path, raw)
	return err
}

func (s *Store) Update(ctx context.Context, path string, partial map[string]interface{}) error {
	existing, err := s.Get(ctx, path)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if existing == nil {
		existing = make(map[string]interface{})
	}
	resolved := resolveTimestamps(partial, time.Now())
	for k, v := range resolved {
		existing[k] = v
	}
	return s.Set(ctx, path, existing)
}

func (s *Store) Delete(ctx context.Context, path string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE path = $1`, path)
	return err
}

func segments(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func (s *Store) ListDocs(ctx context.Context, collectionPath string) ([]store.Doc, error) {
	prefix := strings.Trim(collectionPath, "/") + "/"
	wantLen := len(segments(collectionPath)) + 1

	rows, err := s.pool.Query(ctx, `SELECT path, data FROM documents WHERE path LIKE $1 ORDER BY path`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Doc
	for rows.Next() {
		var path string
		var raw []byte
		if err := rows.Scan(&path, &raw); err != nil {
			return nil, err
		}
		if len(segments(path)) != wantLen {
			continue
		}
		var data map[string]interface{}
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, err
		}
		out = append(out, store.Doc{Path: path, Data: data})
	}
	return out, rows.Err()
}

func (s *Store) ListCollections(ctx context.Context, docPath string) ([]string, error) {
	base := segments(docPath)
	prefix := strings.Trim(docPath, "/") + "/"

	rows, err := s.pool.Query(ctx, `SELECT path FROM documents WHERE path LIKE $1`, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seen := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		segs := segments(path)
		if len(segs) <= len(base)+1 {
			continue
		}
		seen[segs[len(base)]] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []string
	for name := range seen {
		out = append(out, name)
	}
	return out, nil
}

// ListDescendants returns every document path at or below rootPath.
func (s *Store) ListDescendants(ctx context.Context, rootPath string) ([]string, error) {
	trimmed := strings.Trim(rootPath, "/")
	prefix := trimmed + "/"

	rows, err := s.pool.Query(ctx, `SELECT path FROM documents WHERE path = $1 OR path LIKE $2 ORDER BY path`, trimmed, prefix+"%")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, err
		}
		out = append(out, path)
	}
	return out, rows.Err()
}

// Query loads every document in collectionPath and filters/sorts/limits
// in Go. The documents table carries no predicate-specific indexes, so
// this mirrors memstore's approach rather than pushing filters into SQL
// against an unstructured JSONB column.
func (s *Store) Query(ctx context.Context, collectionPath string, predicates []store.Predicate, orderBy *store.OrderBy, limit int) ([]store.Doc, error) {
	docs, err := s.ListDocs(ctx, collectionPath)
	if err != nil {
		return nil, err
	}
	return applyPredicates(docs, predicates, orderBy, limit), nil
}

func applyPredicates(docs []store.Doc, predicates []store.Predicate, orderBy *store.OrderBy, limit int) []store.Doc {
	var out []store.Doc
	for _, d := range docs {
		ok := true
		for _, p := range predicates {
			if !matchesPredicate(d.Data, p) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, d)
		}
	}
	if orderBy != nil {
		sortDocs(out, *orderBy)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesPredicate(data map[string]interface{}, p store.Predicate) bool {
	v, ok := data[p.Field]
	if !ok {
		return false
	}
	switch p.Op {
	case store.OpEqual:
		return fmt.Sprint(v) == fmt.Sprint(p.Value)
	case store.OpIn:
		values, ok := p.Value.([]interface{})
		if !ok {
			return false
		}
		for _, candidate := range values {
			if fmt.Sprint(v) == fmt.Sprint(candidate) {
				return true
			}
		}
		return false
	default:
		return compareStrings(fmt.Sprint(v), fmt.Sprint(p.Value), p.Op)
	}
}

func compareStrings(a, b string, op store.Op) bool {
	switch op {
	case store.OpLessThan:
		return a < b
	case store.OpLessThanEq:
		return a <= b
	case store.OpGreaterThan:
		return a > b
	case store.OpGreaterThanEq:
		return a >= b
	}
	return false
}

func sortDocs(docs []store.Doc, orderBy store.OrderBy) {
	for i := 1; i < len(docs); i++ {
		for j := i; j > 0; j-- {
			vi := fmt.Sprint(docs[j].Data[orderBy.Field])
			vj := fmt.Sprint(docs[j-1].Data[orderBy.Field])
			less := vi < vj
			if orderBy.Descending {
				less = vi > vj
			}
			if !less {
				break
			}
			docs[j], docs[j-1] = docs[j-1], docs[j]
		}
	}
}

// pgTx adapts a pgx.Tx to the store.Tx interface.
type pgTx struct {
	ctx context.Context
	tx  pgx.Tx
}

func (t *pgTx) Get(path string) (map[string]interface{}, error) {
	var raw []byte
	err := t.tx.QueryRow(t.ctx, `SELECT data FROM documents WHERE path = $1 FOR UPDATE`, path).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var data map[string]interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (t *pgTx) Set(path string, data map[string]interface{}) error {
	resolved := resolveTimestamps(data, time.Now())
	raw, err := json.Marshal(resolved)
	if err != nil {
		return err
	}
	_, err = t.tx.Exec(t.ctx, `
		INSERT INTO documents (path, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, path, raw)
	return err
}

func (t *pgTx) Update(path string, partial map[string]interface{}) error {
	existing, err := t.Get(path)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if existing == nil {
		existing = make(map[string]interface{})
	}
	resolved := resolveTimestamps(partial, time.Now())
	for k, v := range resolved {
		existing[k] = v
	}
	return t.Set(path, existing)
}

func (t *pgTx) Delete(path string) error {
	_, err := t.tx.Exec(t.ctx, `DELETE FROM documents WHERE path = $1`, path)
	return err
}

// RunTransaction runs fn inside a serializable pgx transaction, retrying
// on serialization failures up to maxTxRetries times.
func (s *Store) RunTransaction(ctx context.Context, fn func(store.Tx) error) error {
	var lastErr error
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isSerializationFailure(err) {
			return err
		}
		lastErr = err
	}
	return apperr.Wrap(apperr.Conflict, fmt.Errorf("transaction aborted after %d retries: %w", maxTxRetries, lastErr), "transaction serialization retries exhausted")
}

func (s *Store) runOnce(ctx context.Context, fn func(store.Tx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(&pgTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isSerializationFailure(err error) bool {
	var pgErr interface{ SQLState() string }
	if errors.As(err, &pgErr) {
		return pgErr.SQLState() == "40001"
	}
	return false
}
