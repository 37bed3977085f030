// Package manifest is the in-memory registry of active documents, keyed by
// identity.
package manifest

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/3-lines-studio/heimdall/internal/document"
)

// Normalize canonicalizes an entry so spelling variants of the same path
// map to one document.
func Normalize(entry string) string {
	entry = filepath.ToSlash(entry)
	entry = strings.TrimPrefix(entry, "./")
	return entry
}

// Manifest enforces at-most-one document per entry and supports lookup by
// id for hot-reload and client-script requests.
type Manifest struct {
	mu      sync.RWMutex
	byEntry map[string]*document.Document
	byID    map[string]*document.Document
}

func New() *Manifest {
	return &Manifest{
		byEntry: make(map[string]*document.Document),
		byID:    make(map[string]*document.Document),
	}
}

// Add returns the document registered for entry, invoking create at most
// once per entry for the life of the manifest.
func (m *Manifest) Add(entry string, create func(entry string) *document.Document) *document.Document {
	key := Normalize(entry)

	m.mu.RLock()
	doc, ok := m.byEntry[key]
	m.mu.RUnlock()
	if ok {
		return doc
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if doc, ok := m.byEntry[key]; ok {
		return doc
	}

	doc = create(key)
	m.byEntry[key] = doc
	m.byID[doc.ID] = doc
	return doc
}

// FindByID looks a document up by its derived identity.
func (m *Manifest) FindByID(id string) (*document.Document, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.byID[id]
	return doc, ok
}

// All snapshots the registered documents, for bulk builds.
func (m *Manifest) All() []*document.Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*document.Document, 0, len(m.byEntry))
	for _, d := range m.byEntry {
		docs = append(docs, d)
	}
	return docs
}
