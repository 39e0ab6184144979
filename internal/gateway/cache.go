package gateway

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	_ "modernc.org/sqlite"
)

// ErrCacheMiss is returned when a bucket holds no entry for a key.
var ErrCacheMiss = errors.New("gateway: cache miss")

// CachedResponse is a stored copy of an upstream response.
type CachedResponse struct {
	Status int
	Header http.Header
	Body   []byte
}

// Cache is the durable response store backing the gateway's buckets. Like
// the browser Cache API it is keyed by (bucket, request key) and survives
// restarts, which is what lets a new gateway version sweep its predecessor's
// buckets on activation.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping cache: %w", err)
	}
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			bucket    TEXT NOT NULL,
			key       TEXT NOT NULL,
			status    INTEGER NOT NULL,
			headers   TEXT NOT NULL,
			body      BLOB NOT NULL,
			stored_at TIMESTAMP NOT NULL,
			PRIMARY KEY (bucket, key)
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error {
	return c.db.Close()
}

// Put stores a response, overwriting any previous entry for the key.
// Overwrite-by-key makes concurrent writers racing on the same key safe by
// last-write-wins.
func (c *Cache) Put(bucket, key string, resp CachedResponse) error {
	headers, err := json.Marshal(resp.Header)
	if err != nil {
		return fmt.Errorf("marshal headers: %w", err)
	}
	_, err = c.db.Exec(`
		INSERT INTO responses (bucket, key, status, headers, body, stored_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (bucket, key) DO UPDATE SET
			status = excluded.status,
			headers = excluded.headers,
			body = excluded.body,
			stored_at = excluded.stored_at`,
		bucket, key, resp.Status, string(headers), resp.Body, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("store response: %w", err)
	}
	return nil
}

// Get returns the cached response for a key, or ErrCacheMiss.
func (c *Cache) Get(bucket, key string) (CachedResponse, error) {
	var (
		resp    CachedResponse
		headers string
	)
	err := c.db.QueryRow(`
		SELECT status, headers, body FROM responses
		WHERE bucket = ? AND key = ?`,
		bucket, key,
	).Scan(&resp.Status, &headers, &resp.Body)
	if err == sql.ErrNoRows {
		return CachedResponse{}, ErrCacheMiss
	}
	if err != nil {
		return CachedResponse{}, fmt.Errorf("load response: %w", err)
	}
	if err := json.Unmarshal([]byte(headers), &resp.Header); err != nil {
		return CachedResponse{}, fmt.Errorf("parse headers: %w", err)
	}
	return resp, nil
}

// Buckets lists the distinct bucket names currently holding entries.
func (c *Cache) Buckets() ([]string, error) {
	rows, err := c.db.Query(`SELECT DISTINCT bucket FROM responses`)
	if err != nil {
		return nil, fmt.Errorf("list buckets: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate buckets: %w", err)
	}
	return out, nil
}

// DeleteBucket drops every entry in a bucket.
func (c *Cache) DeleteBucket(bucket string) error {
	if _, err := c.db.Exec(`DELETE FROM responses WHERE bucket = ?`, bucket); err != nil {
		return fmt.Errorf("delete bucket %s: %w", bucket, err)
	}
	return nil
}
