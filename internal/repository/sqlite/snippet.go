package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/snippet-desk/internal/apperror"
	"github.com/sakif/snippet-desk/internal/model"
	"github.com/sakif/snippet-desk/internal/repository"
)

// Compile-time check that *DB implements repository.SnippetRepository.
var _ repository.SnippetRepository = (*DB)(nil)

const snippetColumns = `id, description, full_description, code_content, media_paths,
	categories, creation_date, last_modification_date, device_source`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnippet(row rowScanner) (*model.Snippet, error) {
	var (
		s          model.Snippet
		id         string
		media      string
		categories string
	)
	if err := row.Scan(
		&id,
		&s.Description,
		&s.FullDescription,
		&s.CodeContent,
		&media,
		&categories,
		&s.CreationDate,
		&s.LastModificationDate,
		&s.DeviceSource,
	); err != nil {
		return nil, err
	}
	s.ID = model.ID(id)
	s.Categories = model.SplitCategories(categories)
	s.CreationDate = s.CreationDate.UTC()
	s.LastModificationDate = s.LastModificationDate.UTC()
	if err := json.Unmarshal([]byte(media), &s.MediaPaths); err != nil {
		return nil, fmt.Errorf("decoding media_paths of %s: %w", id, err)
	}
	if s.MediaPaths == nil {
		s.MediaPaths = []string{}
	}
	return &s, nil
}

func encodeMedia(paths []string) (string, error) {
	if paths == nil {
		paths = []string{}
	}
	b, err := json.Marshal(paths)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Create inserts a new snippet and assigns its id.
//
// xid ids are 20 URL-safe characters and sort by creation time. The client
// treats ids as opaque strings, so nothing else needs to know the format.
//
// Dates the client already stamped are kept; zero dates become "now".
func (db *DB) Create(ctx context.Context, snippet *model.Snippet) error {
	snippet.ID = model.ID(xid.New().String())

	now := time.Now().UTC()
	if snippet.CreationDate.IsZero() {
		snippet.CreationDate = now
	}
	if snippet.LastModificationDate.IsZero() {
		snippet.LastModificationDate = snippet.CreationDate
	}
	if snippet.MediaPaths == nil {
		snippet.MediaPaths = []string{}
	}

	media, err := encodeMedia(snippet.MediaPaths)
	if err != nil {
		return fmt.Errorf("sqlite: encoding media paths: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO snippets (`+snippetColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID.String(),
		snippet.Description,
		snippet.FullDescription,
		snippet.CodeContent,
		media,
		model.JoinCategories(snippet.Categories),
		snippet.CreationDate.UTC(),
		snippet.LastModificationDate.UTC(),
		snippet.DeviceSource,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	return nil
}

// GetByID retrieves a single snippet. sql.ErrNoRows becomes apperror.NotFound
// so the handler can answer 404.
func (db *DB) GetByID(ctx context.Context, id string) (*model.Snippet, error) {
	snippet, err := scanSnippet(db.conn.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`,
		id,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}
	return snippet, nil
}

// List returns every snippet, most recently modified first.
//
// There is no pagination: the client keeps the whole collection in memory and
// the contract has no paging parameters.
func (db *DB) List(ctx context.Context) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+snippetColumns+`
		 FROM snippets
		 ORDER BY last_modification_date DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets: %w", err)
	}
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
//
// id and creation_date are immutable. media_paths is owned by AddMedia: an
// autosave that raced an upload must not drop the new attachment.
func (db *DB) Update(ctx context.Context, snippet *model.Snippet) error {
	if snippet.LastModificationDate.IsZero() {
		snippet.LastModificationDate = time.Now().UTC()
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE snippets
		 SET description = ?, full_description = ?, code_content = ?,
		     categories = ?, last_modification_date = ?, device_source = ?
		 WHERE id = ?`,
		snippet.Description,
		snippet.FullDescription,
		snippet.CodeContent,
		model.JoinCategories(snippet.Categories),
		snippet.LastModificationDate.UTC(),
		snippet.DeviceSource,
		snippet.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	// Zero rows affected means the WHERE clause matched nothing.
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID.String())
	}

	return nil
}

// Delete removes a snippet by its ID.
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
		return apperror.NotFound("snippet", id)
	}

	return nil
}

// AddMedia appends path to the snippet's media list inside a transaction and
// returns the updated record. Two uploads to the same snippet both land.
func (db *DB) AddMedia(ctx context.Context, id, path string) (*model.Snippet, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: beginning media transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer tx.Rollback()

	var raw string
	err = tx.QueryRowContext(ctx, `SELECT media_paths FROM snippets WHERE id = ?`, id).Scan(&raw)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: reading media of %s: %w", id, err)
	}

	var paths []string
	if err := json.Unmarshal([]byte(raw), &paths); err != nil {
		return nil, fmt.Errorf("sqlite: decoding media of %s: %w", id, err)
	}
	media, err := encodeMedia(append(paths, path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: encoding media paths: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE snippets SET media_paths = ? WHERE id = ?`,
		media, id,
	); err != nil {
		return nil, fmt.Errorf("sqlite: adding media to %s: %w", id, err)
	}

	snippet, err := scanSnippet(tx.QueryRowContext(ctx,
		`SELECT `+snippetColumns+` FROM snippets WHERE id = ?`, id,
	))
	if err != nil {
		return nil, fmt.Errorf("sqlite: reloading snippet %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: committing media of %s: %w", id, err)
	}
	return snippet, nil
}
