package reload

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func TestWatcherNotifiesOnSourceChange(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "pages"), 0o755); err != nil {
		t.Fatal(err)
	}

	hub := NewHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	w, err := Watch(root, hub, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	// Two rapid writes land inside one debounce window.
	if err := os.WriteFile(filepath.Join(root, "pages", "home.tsx"), []byte("a"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "pages", "about.tsx"), []byte("b"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("no reload notification after source change")
	}

	select {
	case <-ch:
		t.Error("rapid writes must coalesce into one notification")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherSkipsDotDirectories(t *testing.T) {
	root := t.TempDir()
	hidden := filepath.Join(root, ".heimdall")
	if err := os.MkdirAll(hidden, 0o755); err != nil {
		t.Fatal(err)
	}

	hub := NewHub()
	ch := hub.subscribe()
	defer hub.unsubscribe(ch)

	w, err := Watch(root, hub, log.New(io.Discard))
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(hidden, "home.abcdefgh.js"), []byte("out"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-ch:
		t.Error("writes under a generated dot directory must not notify")
	case <-time.After(300 * time.Millisecond):
	}
}
