package livereload

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func startWatcher(t *testing.T, dir string, calls *atomic.Int32) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	w := &Watcher{Dir: dir, Debounce: 100 * time.Millisecond, OnChange: func() { calls.Add(1) }}
	go func() { done <- w.Run(ctx) }()
	// Give the watcher a moment to register the tree.
	time.Sleep(100 * time.Millisecond)
	return func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run returned %v", err)
		}
	}
}

func TestWatcher_DebouncesBurst(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	stop := startWatcher(t, dir, &calls)
	defer stop()

	for _, name := range []string{"a.css", "b.css", "c.js"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}
	}
	waitFor(t, "change signal", func() bool { return calls.Load() > 0 })
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 1 {
		t.Errorf("OnChange called %d times for one burst, want 1", n)
	}
}

func TestWatcher_IgnoresDotFilesAndWatchesNewDirs(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	stop := startWatcher(t, dir, &calls)
	defer stop()

	if err := os.WriteFile(filepath.Join(dir, ".swp"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	time.Sleep(300 * time.Millisecond)
	if n := calls.Load(); n != 0 {
		t.Fatalf("dot file triggered %d reloads", n)
	}

	sub := filepath.Join(dir, "css")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	waitFor(t, "mkdir signal", func() bool { return calls.Load() == 1 })
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(sub, "site.css"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	waitFor(t, "nested write signal", func() bool { return calls.Load() >= 2 })
}

func TestWatcher_MissingDir(t *testing.T) {
	w := &Watcher{Dir: filepath.Join(t.TempDir(), "nope")}
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run on a missing dir should fail")
	}
}

func TestBroker_StreamsReload(t *testing.T) {
	b := NewBroker(nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest("GET", "/livereload", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		b.ServeHTTP(rec, req)
		close(done)
	}()

	waitFor(t, "client registration", func() bool { return b.Clients() == 1 })
	b.Notify()
	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	if b.Clients() != 0 {
		t.Errorf("client not removed after disconnect")
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "data: reload") {
		t.Errorf("body = %q, want a reload event", rec.Body.String())
	}
}
