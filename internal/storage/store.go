// Package storage provides the preference persistence port used by the stores, with
// in-memory, SQLite and PostgreSQL backends.
package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/lanalbum/albumclient/internal/metrics"
)

// ErrNotFound is returned by Get when no value is stored under the key.
var ErrNotFound = errors.New("not found")

// Store is a small key/value store for UI preferences. Values are opaque bytes; the
// stores write JSON.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Close() error
}

// Open selects a backend from dsn: empty means in-memory, a postgres:// or postgresql://
// URL means PostgreSQL, and anything else is taken as a SQLite file path.
func Open(dsn string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch {
	case dsn == "":
		s = NewMemory()
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		s, err = NewPostgres(dsn)
	default:
		s, err = OpenSQLite(dsn)
	}
	if err != nil {
		return nil, err
	}
	return &instrumented{next: s, metrics: metrics.NewMetrics()}, nil
}

// instrumented records operation counts and latency for any Store.
type instrumented struct {
	next    Store
	metrics *metrics.Metrics
}

func (s *instrumented) observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case err != nil:
		status = "error"
	}
	s.metrics.StorageOperationTotal.WithLabelValues(op, status).Inc()
	s.metrics.StorageOperationDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}

func (s *instrumented) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	v, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return v, err
}

func (s *instrumented) Put(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, key, value)
	s.observe("put", start, err)
	return err
}

func (s *instrumented) Close() error {
	return s.next.Close()
}
