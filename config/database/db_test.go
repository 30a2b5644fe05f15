package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func expectSchema(mock sqlmock.Sqlmock) {
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS documents").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS settings").WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestOpenIsLazyAndShared(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	var opens int32
	h := NewHandle("postgres", "ignored", WithOpener(func(driver, dsn string) (*sql.DB, error) {
		atomic.AddInt32(&opens, 1)
		return db, nil
	}))
	defer h.Close()

	assert.Equal(t, int32(0), atomic.LoadInt32(&opens), "nothing should connect before first use")

	first, err := h.Open(context.Background())
	require.NoError(t, err)
	second, err := h.Open(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConcurrentOpensCoalesce(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	var opens int32
	release := make(chan struct{})
	h := NewHandle("postgres", "ignored", WithOpener(func(driver, dsn string) (*sql.DB, error) {
		atomic.AddInt32(&opens, 1)
		<-release
		return db, nil
	}))
	defer h.Close()

	const callers = 8
	var wg sync.WaitGroup
	results := make([]*sql.DB, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			got, err := h.Open(context.Background())
			assert.NoError(t, err)
			results[i] = got
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))
	for _, got := range results {
		assert.Same(t, db, got)
	}
}

func TestOpenFailureIsNotCached(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	expectSchema(mock)

	calls := 0
	h := NewHandle("postgres", "ignored", WithOpener(func(driver, dsn string) (*sql.DB, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("disk on fire")
		}
		return db, nil
	}))
	defer h.Close()

	_, err = h.Open(context.Background())
	require.Error(t, err)

	got, err := h.Open(context.Background())
	require.NoError(t, err)
	assert.Same(t, db, got)
	assert.Equal(t, 2, calls)
}

func TestPingRetriesThenFails(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	h := NewHandle("postgres", "ignored",
		WithOpener(func(driver, dsn string) (*sql.DB, error) { return db, nil }),
		WithRetry(2, time.Millisecond),
	)

	_, err = h.Open(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenAfterCloseFails(t *testing.T) {
	h := NewHandle("postgres", "ignored", WithOpener(func(driver, dsn string) (*sql.DB, error) {
		t.Fatal("opener must not run after Close")
		return nil, nil
	}))
	require.NoError(t, h.Close())

	_, err := h.Open(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
}

func TestSQLiteInMemoryMigrates(t *testing.T) {
	h := NewHandle("sqlite", ":memory:")
	defer h.Close()

	db, err := h.Open(context.Background())
	require.NoError(t, err)

	for _, table := range []string{"documents", "settings"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, "table %q should exist", table)
	}
}
