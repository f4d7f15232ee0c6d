package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func exercise(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	if _, err := s.Get(ctx, "feed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.Put(ctx, "feed", []byte(`{"sortingMode":"recent"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := s.Put(ctx, "feed", []byte(`{"sortingMode":"popular"}`)); err != nil {
		t.Fatalf("Put(overwrite) error = %v", err)
	}
	got, err := s.Get(ctx, "feed")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got) != `{"sortingMode":"popular"}` {
		t.Errorf("Get() = %s, want the overwritten value", got)
	}
}

func TestMemory(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exercise(t, s)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs", "album.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite() error = %v", err)
	}
	exercise(t, s)
	s.Close()

	// values survive a reopen
	s, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer s.Close()
	got, err := s.Get(context.Background(), "feed")
	if err != nil || string(got) != `{"sortingMode":"popular"}` {
		t.Errorf("Get() after reopen = %s, %v", got, err)
	}
}

func TestPostgres(t *testing.T) {
	dsn := os.Getenv("ALBUM_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ALBUM_TEST_POSTGRES_DSN not set")
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		t.Fatalf("NewPostgres() error = %v", err)
	}
	defer s.Close()
	ctx := context.Background()
	if err := s.Put(ctx, "feed", []byte(`{"sortingMode":"popular"}`)); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	got, err := s.Get(ctx, "feed")
	if err != nil || string(got) != `{"sortingMode":"popular"}` {
		t.Errorf("Get() = %s, %v", got, err)
	}
}

func TestOpenSelectsBackend(t *testing.T) {
	s, err := Open("")
	if err != nil {
		t.Fatalf("Open(empty) error = %v", err)
	}
	if _, ok := s.(*instrumented).next.(*memory); !ok {
		t.Errorf("Open(empty) backend = %T, want memory", s.(*instrumented).next)
	}
	exercise(t, s)

	s, err = Open(filepath.Join(t.TempDir(), "album.db"))
	if err != nil {
		t.Fatalf("Open(path) error = %v", err)
	}
	defer s.Close()
	if _, ok := s.(*instrumented).next.(*sqliteStore); !ok {
		t.Errorf("Open(path) backend = %T, want sqlite", s.(*instrumented).next)
	}
}
