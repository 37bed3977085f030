// Package vfs is an in-memory store for generated modules the bundler must
// treat as real files. Contents are kept base64-encoded so any protocol
// tunnel between the core and the bundler sees opaque text-safe payloads.
package vfs

import (
	"encoding/base64"
	"sync"
)

// Protocol is the URI prefix under which virtual modules are exposed to the
// bundler's resolution pipeline.
const Protocol = "virtual:heimdall:"

// URI returns the canonical virtual URI for a stored path.
func URI(path string) string {
	return Protocol + path
}

// TrimURI strips the virtual protocol prefix, returning the bare path.
func TrimURI(uri string) string {
	if len(uri) >= len(Protocol) && uri[:len(Protocol)] == Protocol {
		return uri[len(Protocol):]
	}
	return uri
}

// FS maps virtual paths to base64-encoded source text. Paths are opaque,
// case-sensitive keys with no directory semantics. Entries correspond 1:1
// with active documents, so the store is unbounded.
type FS struct {
	mu    sync.RWMutex
	files map[string]string
}

func New() *FS {
	return &FS{files: make(map[string]string)}
}

// Set stores contents under path, replacing any previous value, and returns
// the virtual URI for the path.
func (f *FS) Set(path, contents string) string {
	encoded := base64.StdEncoding.EncodeToString([]byte(contents))
	f.mu.Lock()
	f.files[path] = encoded
	f.mu.Unlock()
	return URI(path)
}

// Get returns the decoded contents stored under path. Missing paths and
// undecodable values report ok=false.
func (f *FS) Get(path string) (string, bool) {
	f.mu.RLock()
	encoded, ok := f.files[path]
	f.mu.RUnlock()
	if !ok {
		return "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", false
	}
	return string(decoded), true
}

// Has reports whether path has ever been set.
func (f *FS) Has(path string) bool {
	f.mu.RLock()
	_, ok := f.files[path]
	f.mu.RUnlock()
	return ok
}

// Snapshot copies the raw base64-encoded map, suitable for tunneling to the
// bundler sidecar in a build request.
func (f *FS) Snapshot() map[string]string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make(map[string]string, len(f.files))
	for k, v := range f.files {
		out[k] = v
	}
	return out
}
