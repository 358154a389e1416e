package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/gregjones/httpcache"
)

// Compile-time interface satisfaction check.
var _ httpcache.Cache = (*HTTPCacheRepo)(nil)

// DefaultHTTPCacheEntries bounds the number of cached responses kept in the
// state file; the oldest entries are evicted first.
const DefaultHTTPCacheEntries = 256

// httpCacheTimeout bounds each cache statement; httpcache.Cache carries no context.
const httpCacheTimeout = 2 * time.Second

// HTTPCacheRepo stores httpcache responses in the state file so conditional
// requests survive across invocations. Failures are logged and treated as a
// cache miss.
type HTTPCacheRepo struct {
	db         *DB
	maxEntries int
	logger     *slog.Logger
}

// NewHTTPCacheRepo creates a cache holding at most maxEntries responses.
// maxEntries <= 0 uses DefaultHTTPCacheEntries.
func NewHTTPCacheRepo(db *DB, maxEntries int, logger *slog.Logger) *HTTPCacheRepo {
	if maxEntries <= 0 {
		maxEntries = DefaultHTTPCacheEntries
	}
	return &HTTPCacheRepo{db: db, maxEntries: maxEntries, logger: logger}
}

// Get returns the serialized response stored under key.
func (r *HTTPCacheRepo) Get(key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), httpCacheTimeout)
	defer cancel()

	var response []byte
	err := r.db.Reader.QueryRowContext(ctx,
		`SELECT response FROM http_cache WHERE cache_key = ?`, key,
	).Scan(&response)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("http cache read failed", "key", key, "error", err)
		return nil, false
	}
	return response, true
}

// Set stores response under key and evicts the oldest entries beyond the limit.
func (r *HTTPCacheRepo) Set(key string, response []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), httpCacheTimeout)
	defer cancel()

	const upsert = `INSERT OR REPLACE INTO http_cache (cache_key, response, stored_at) VALUES (?, ?, ?)`
	if _, err := r.db.Writer.ExecContext(ctx, upsert, key, response, time.Now().UnixNano()); err != nil {
		r.logger.Warn("http cache write failed", "key", key, "error", err)
		return
	}

	const evict = `DELETE FROM http_cache WHERE cache_key NOT IN (
		SELECT cache_key FROM http_cache ORDER BY stored_at DESC, rowid DESC LIMIT ?
	)`
	if _, err := r.db.Writer.ExecContext(ctx, evict, r.maxEntries); err != nil {
		r.logger.Warn("http cache eviction failed", "error", err)
	}
}

// Delete removes the response stored under key.
func (r *HTTPCacheRepo) Delete(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), httpCacheTimeout)
	defer cancel()

	if _, err := r.db.Writer.ExecContext(ctx, `DELETE FROM http_cache WHERE cache_key = ?`, key); err != nil {
		r.logger.Warn("http cache delete failed", "key", key, "error", err)
	}
}
