package core

import (
	"path"
	"path/filepath"
	"strings"
)

// IDHashLength is the truncated hash width appended to document ids.
const IDHashLength = 8

// DocumentID derives the stable identity for a page entry: the entry's base
// filename (without extension) plus a truncated hash of the full entry
// string. The same entry always yields the same id, so build artifacts and
// client routes keyed by it never collide across documents.
func DocumentID(entry string) string {
	name := strings.TrimPrefix(entry, "./")
	name = strings.TrimPrefix(name, "/")
	name = path.Base(filepath.ToSlash(name))
	name = strings.TrimSuffix(name, path.Ext(name))
	if name == "" {
		name = "page"
	}
	return name + "." + Hash(entry, IDHashLength)
}

// EntryExt returns the entry's extension, defaulting to fallback when the
// entry has none.
func EntryExt(entry, fallback string) string {
	if ext := path.Ext(filepath.ToSlash(entry)); ext != "" {
		return ext
	}
	return fallback
}
