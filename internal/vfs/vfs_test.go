package vfs

import (
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	contents := []string{
		"",
		"console.log(1)",
		"ünïcode ✓ 日本語",
		"line1\nline2\r\n\ttabbed",
		"\x00\x01\x02 control bytes",
	}

	fs := New()
	for i, c := range contents {
		path := "mod-" + strings.Repeat("x", i) + ".tsx"
		uri := fs.Set(path, c)

		if uri != Protocol+path {
			t.Errorf("Set returned %q, want %q", uri, Protocol+path)
		}

		got, ok := fs.Get(path)
		if !ok {
			t.Fatalf("Get(%q) missing after Set", path)
		}
		if got != c {
			t.Errorf("round trip of %q: got %q", c, got)
		}
	}
}

func TestHasCaseSensitive(t *testing.T) {
	fs := New()
	fs.Set("App.tsx", "x")

	if !fs.Has("App.tsx") {
		t.Error("Has returned false immediately after Set")
	}
	if fs.Has("app.tsx") {
		t.Error("Has must be case-sensitive")
	}
	if fs.Has("never-set.tsx") {
		t.Error("Has returned true for a never-set path")
	}
}

func TestOverwriteReplacesContent(t *testing.T) {
	fs := New()
	fs.Set("a.tsx", "first")
	fs.Set("a.tsx", "second")

	got, ok := fs.Get("a.tsx")
	if !ok || got != "second" {
		t.Errorf("Get after overwrite = %q, %v; want \"second\", true", got, ok)
	}
}

func TestGetMissing(t *testing.T) {
	fs := New()
	if _, ok := fs.Get("nope"); ok {
		t.Error("Get returned ok for a never-set path")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	fs := New()
	fs.Set("a.tsx", "one")

	snap := fs.Snapshot()
	if len(snap) != 1 {
		t.Fatalf("Snapshot has %d entries, want 1", len(snap))
	}

	snap["a.tsx"] = "tampered"
	got, ok := fs.Get("a.tsx")
	if !ok || got != "one" {
		t.Error("mutating a snapshot must not affect the store")
	}
}

func TestTrimURI(t *testing.T) {
	if got := TrimURI(Protocol + "/a/b.tsx"); got != "/a/b.tsx" {
		t.Errorf("TrimURI = %q", got)
	}
	if got := TrimURI("/plain/path.tsx"); got != "/plain/path.tsx" {
		t.Errorf("TrimURI of non-virtual path = %q", got)
	}
}
