// Package sqlstore implements storage.Driver over database/sql. The sqlite
// and postgres drivers embed a Store configured with their Dialect.
package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/synergyreader/synergy/pkg/answer"
	"github.com/synergyreader/synergy/pkg/storage"
)

// Dialect holds the SQL differences between databases.
type Dialect struct {
	Name string

	// Schema is run statement by statement when a Store is created.
	Schema []string

	// Numbered placeholders ($1, $2, ...) instead of "?".
	NumberedPlaceholders bool

	// Like is the case-insensitive LIKE operator.
	Like string
}

const columns = `id, backend_id, question, selected_text, answer, model,
	context_json, errors_json, rating, comment, created_at`

// Store implements storage.Driver for a Dialect.
type Store struct {
	DB      *sql.DB
	dialect Dialect
}

var _ storage.Driver = (*Store)(nil)

// New creates the schema if needed and returns a Store over db.
func New(ctx context.Context, db *sql.DB, dialect Dialect) (*Store, error) {
	for _, stmt := range dialect.Schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{DB: db, dialect: dialect}, nil
}

// rebind rewrites "?" placeholders for dialects with numbered placeholders.
func (s *Store) rebind(query string) string {
	if !s.dialect.NumberedPlaceholders {
		return query
	}

	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Put inserts entry and returns its id.
func (s *Store) Put(ctx context.Context, entry *storage.Entry) (int64, error) {
	if entry == nil {
		return 0, errors.New("cannot store nil entry")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	contextJSON, err := marshalNullable(entry.Context, entry.Context == nil)
	if err != nil {
		return 0, fmt.Errorf("encoding context: %w", err)
	}
	errorsJSON, err := marshalNullable(entry.Errors, len(entry.Errors) == 0)
	if err != nil {
		return 0, fmt.Errorf("encoding errors: %w", err)
	}

	query := s.rebind(`INSERT INTO entries
		(backend_id, question, selected_text, answer, model, context_json, errors_json, rating, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	var id int64
	err = s.DB.QueryRowContext(ctx, query,
		nullInt64(entry.BackendID),
		entry.Question,
		entry.SelectedText,
		entry.Answer,
		entry.Model,
		contextJSON,
		errorsJSON,
		nullInt(entry.Rating),
		entry.Comment,
		entry.CreatedAt.UTC(),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting entry: %w", err)
	}

	entry.ID = id
	return id, nil
}

// Get retrieves an entry by id.
func (s *Store) Get(ctx context.Context, id int64) (*storage.Entry, error) {
	row := s.DB.QueryRowContext(ctx, s.rebind(`SELECT `+columns+` FROM entries WHERE id = ?`), id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("reading entry %d: %w", id, err)
	}
	return e, nil
}

// List returns the newest entries first.
func (s *Store) List(ctx context.Context, limit int) ([]*storage.Entry, error) {
	return s.query(ctx, `SELECT `+columns+` FROM entries`, limit)
}

// Search returns entries containing query, newest first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]*storage.Entry, error) {
	pattern := "%" + escapeLike(query) + "%"
	like := s.dialect.Like
	where := fmt.Sprintf(` WHERE question %[1]s ? ESCAPE '\' OR selected_text %[1]s ? ESCAPE '\' OR answer %[1]s ? ESCAPE '\'`, like)

	return s.query(ctx, `SELECT `+columns+` FROM entries`+where, limit, pattern, pattern, pattern)
}

// Rate sets the rating and comment of an entry.
func (s *Store) Rate(ctx context.Context, id int64, rating int, comment string) error {
	if !storage.ValidRating(rating) {
		return storage.ErrInvalidRating
	}

	res, err := s.DB.ExecContext(ctx, s.rebind(`UPDATE entries SET rating = ?, comment = ? WHERE id = ?`), rating, comment, id)
	if err != nil {
		return fmt.Errorf("rating entry %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rating entry %d: %w", id, err)
	}
	if n == 0 {
		return storage.NotFoundError{ID: id}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func (s *Store) query(ctx context.Context, base string, limit int, args ...any) ([]*storage.Entry, error) {
	q := base + ` ORDER BY id DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.DB.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []*storage.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("reading entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}

	return entries, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*storage.Entry, error) {
	var (
		e           storage.Entry
		backendID   sql.NullInt64
		contextJSON sql.NullString
		errorsJSON  sql.NullString
		rating      sql.NullInt64
	)

	err := row.Scan(
		&e.ID,
		&backendID,
		&e.Question,
		&e.SelectedText,
		&e.Answer,
		&e.Model,
		&contextJSON,
		&errorsJSON,
		&rating,
		&e.Comment,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if backendID.Valid {
		id := backendID.Int64
		e.BackendID = &id
	}
	if rating.Valid {
		r := int(rating.Int64)
		e.Rating = &r
	}
	if contextJSON.Valid {
		var c answer.Context
		if err := json.Unmarshal([]byte(contextJSON.String), &c); err != nil {
			return nil, fmt.Errorf("decoding context of entry %d: %w", e.ID, err)
		}
		e.Context = &c
	}
	if errorsJSON.Valid {
		if err := json.Unmarshal([]byte(errorsJSON.String), &e.Errors); err != nil {
			return nil, fmt.Errorf("decoding errors of entry %d: %w", e.ID, err)
		}
	}
	e.CreatedAt = e.CreatedAt.UTC()

	return &e, nil
}

func marshalNullable(v any, null bool) (sql.NullString, error) {
	if null {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
