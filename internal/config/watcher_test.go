package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

type reloaded struct {
	value string
	err   error
}

func loadTrimmed(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", os.ErrInvalid
	}
	return value, nil
}

func startWatcher(t *testing.T, path string) <-chan reloaded {
	t.Helper()
	received := make(chan reloaded, 8)
	w := NewWatcher(path, loadTrimmed, WithDebounce[string](30*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := w.Run(ctx, func(v string, err error) { received <- reloaded{v, err} }); err != nil {
			t.Errorf("Run() unexpected error: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	// Wait for the watch to be installed
	time.Sleep(100 * time.Millisecond)
	return received
}

func TestWatcherReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte("initial\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	received := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("updated\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if got.err != nil || got.value != "updated" {
			t.Errorf("got %+v, want value=updated", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.toml")
	if err := os.WriteFile(path, []byte("initial\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	received := startWatcher(t, path)

	if err := os.WriteFile(filepath.Join(dir, "other.toml"), []byte("noise\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		t.Errorf("unexpected reload %+v for a sibling file", got)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherReportsLoadErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.toml")
	if err := os.WriteFile(path, []byte("initial\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	received := startWatcher(t, path)

	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-received:
		if got.err == nil {
			t.Errorf("got %+v, want a load error", got)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for reload")
	}
}

func TestWatcherMissingDirectory(t *testing.T) {
	w := NewWatcher(filepath.Join(t.TempDir(), "missing", "profile.toml"), loadTrimmed)
	if err := w.Run(context.Background(), func(string, error) {}); err == nil {
		t.Error("Run() on a missing directory expected error but got none")
	}
}
