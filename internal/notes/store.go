// Package notes is the durable server-side store for user notes — the
// delivery target of the offline sync queue. Notes are scoped per owner
// identity (a login email, "guest" by default).
package notes

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultOwner is the identity used when a client never logged in.
const DefaultOwner = "guest"

type Note struct {
	ID        uuid.UUID `json:"id"`
	Owner     string    `json:"owner"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	s.pool.Close()
}

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id         UUID PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT 'guest',
	title      TEXT NOT NULL,
	content    TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS notes_owner_idx ON notes (owner, updated_at DESC);
`

// EnsureSchema creates the notes table when it does not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Upsert writes a note by id, overwriting any previous version. Sync
// deliveries retry, so the write must be idempotent.
func (s *Store) Upsert(ctx context.Context, note Note) error {
	owner := note.Owner
	if owner == "" {
		owner = DefaultOwner
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notes (id, owner, title, content, created_at, updated_at)
		VALUES ($1, $2, $3, $4, now(), now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			updated_at = now()`,
		note.ID, owner, note.Title, note.Content,
	)
	if err != nil {
		return fmt.Errorf("upsert note: %w", err)
	}
	return nil
}

// Delete removes a note. Deleting a missing note is not an error — a retried
// sync delete must succeed.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// List returns the owner's notes, most recently updated first.
func (s *Store) List(ctx context.Context, owner string) ([]Note, error) {
	if owner == "" {
		owner = DefaultOwner
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM notes WHERE owner = $1
		ORDER BY updated_at DESC`,
		owner,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return out, nil
}

// Get fetches a single note by id.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Note, error) {
	var n Note
	err := s.pool.QueryRow(ctx, `
		SELECT id, owner, title, content, created_at, updated_at
		FROM notes WHERE id = $1`,
		id,
	).Scan(&n.ID, &n.Owner, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt)
	if err == pgx.ErrNoRows {
		return Note{}, fmt.Errorf("note %s: %w", id, err)
	}
	if err != nil {
		return Note{}, fmt.Errorf("get note: %w", err)
	}
	return n, nil
}
