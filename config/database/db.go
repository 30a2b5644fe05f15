package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/singleflight"
	_ "modernc.org/sqlite"

	"naskahlokal/config"
	"naskahlokal/pkg/logger"
)

var ErrClosed = errors.New("database handle closed")

// OpenFunc opens a *sql.DB for a driver and data source.
type OpenFunc func(driver, dsn string) (*sql.DB, error)

// Handle is a lazily opened, shared database connection pool.
// The first Open connects and migrates; later calls return the same pool.
// Concurrent first calls share a single connect attempt.
type Handle struct {
	driver     string
	dsn        string
	attempts   int
	retryDelay time.Duration
	open       OpenFunc

	mu     sync.Mutex
	db     *sql.DB
	closed bool
	group  singleflight.Group
}

type Option func(*Handle)

// WithOpener replaces sql.Open, mainly for tests.
func WithOpener(fn OpenFunc) Option {
	return func(h *Handle) { h.open = fn }
}

// WithRetry sets the number of ping attempts and the delay between them.
func WithRetry(attempts int, delay time.Duration) Option {
	return func(h *Handle) {
		if attempts > 0 {
			h.attempts = attempts
		}
		h.retryDelay = delay
	}
}

func NewHandle(driver, dsn string, opts ...Option) *Handle {
	h := &Handle{
		driver:     driver,
		dsn:        dsn,
		attempts:   5,
		retryDelay: 2 * time.Second,
		open:       sql.Open,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// FromConfig builds a Handle for the configured driver.
func FromConfig(cfg *config.Config) *Handle {
	return NewHandle(cfg.DBDriver, cfg.DataSource(), WithRetry(cfg.DBConnectAttempts, 2*time.Second))
}

func (h *Handle) Driver() string {
	return h.driver
}

// Open returns the shared pool, connecting on first use.
// A failed connect is not remembered; the next call tries again.
func (h *Handle) Open(ctx context.Context) (*sql.DB, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, ErrClosed
	}
	if h.db != nil {
		db := h.db
		h.mu.Unlock()
		return db, nil
	}
	h.mu.Unlock()

	v, err, _ := h.group.Do("open", func() (interface{}, error) {
		h.mu.Lock()
		if h.db != nil {
			db := h.db
			h.mu.Unlock()
			return db, nil
		}
		h.mu.Unlock()

		db, err := h.connect(ctx)
		if err != nil {
			return nil, err
		}

		h.mu.Lock()
		defer h.mu.Unlock()
		if h.closed {
			db.Close()
			return nil, ErrClosed
		}
		h.db = db
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sql.DB), nil
}

// Close closes the pool if it was ever opened. Later Opens fail with ErrClosed.
func (h *Handle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	if h.db == nil {
		return nil
	}
	err := h.db.Close()
	h.db = nil
	return err
}

func (h *Handle) connect(ctx context.Context) (*sql.DB, error) {
	db, err := h.open(h.driver, h.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", h.driver, err)
	}

	if h.driver == config.DriverSQLite {
		// SQLite allows a single writer and ":memory:" is per connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}

	for i := 0; i < h.attempts; i++ {
		if err = db.PingContext(ctx); err == nil {
			break
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", h.retryDelay, err)
		if i == h.attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(h.retryDelay):
		}
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database after %d attempts: %w", h.attempts, err)
	}

	if err := Migrate(ctx, db, h.driver); err != nil {
		db.Close()
		return nil, err
	}

	logger.Sugar.Infof("Successfully connected to the %s database", h.driver)
	return db, nil
}
