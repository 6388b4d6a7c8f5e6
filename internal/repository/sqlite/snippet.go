package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippet-vault/internal/apperror"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/repository"
)

// COMPILE-TIME INTERFACE CHECK:
// If *DB stops implementing repository.SnippetRepository the build fails here
// instead of at the (possibly distant) call site.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, title, language, code, usecase, tags, user_id, created_at`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSnippet reads one row selected with snippetColumns.
// Tags are stored as a JSON array in a TEXT column; SQLite has no array type.
func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s        model.Snippet
		language string
		tagsJSON string
	)
	if err := row.Scan(&s.ID, &s.Title, &language, &s.Code, &s.Usecase, &tagsJSON, &s.CreatedBy, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.Language = model.Language(language)
	if err := json.Unmarshal([]byte(tagsJSON), &s.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of snippet %s: %w", s.ID, err)
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	return &s, nil
}

func encodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Create inserts a new snippet, assigning its ID (xid: 20 chars, URL-safe,
// sortable by creation time) and creation timestamp.
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = xid.New().String()
	if snippet.CreatedAt.IsZero() {
		snippet.CreatedAt = time.Now()
	}

	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		string(snippet.Language),
		snippet.Code,
		snippet.Usecase,
		tags,
		snippet.CreatedBy,
		snippet.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet by its ID.
// sql.ErrNoRows is translated to the domain NotFound error.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	)

	snippet, err := scanSnippet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperror.NotFound("Snippet not found.")
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	return snippet, nil
}

// ListByOwner returns every snippet created by ownerID, newest first.
//
// No pagination: the client filters the full collection in memory.
func (db *DB) ListByOwner(ctx context.Context, ownerID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
	// CRITICAL: always close rows, or the connection never returns to the pool.
	defer rows.Close()

	snippets := make([]model.Snippet, 0)
	for rows.Next() {
		s, err := scanSnippet(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, *s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	return snippets, nil
}

// Update overwrites the editable fields of an existing snippet.
// id, user_id and created_at are immutable and are never written here.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	tags, err := encodeTags(snippet.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, language = ?, code = ?, usecase = ?, tags = ?
		 WHERE id = ?`,
		snippet.Title,
		string(snippet.Language),
		snippet.Code,
		snippet.Usecase,
		tags,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Snippet not found.")
	}

	return nil
}

// Delete removes a snippet by its ID. Same RowsAffected pattern as Update.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM snippets WHERE id = ?`,
		id,
	)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("Snippet not found.")
	}

	return nil
}
