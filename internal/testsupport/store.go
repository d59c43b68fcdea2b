package testsupport

import (
	"context"
	"testing"

	"framewise/internal/config"
	"framewise/internal/frames"
)

// MustOpenStore opens a frames.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *frames.Store {
	t.Helper()

	store, err := frames.Open(cfg)
	if err != nil {
		t.Fatalf("frames.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustSave persists a record and fails the test on error.
func MustSave(t testing.TB, store *frames.Store, record *frames.Record) {
	t.Helper()

	if err := store.Save(context.Background(), record); err != nil {
		t.Fatalf("store.Save: %v", err)
	}
}
