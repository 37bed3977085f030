package plugin

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/3-lines-studio/heimdall/internal/vfs"
)

const resolverCacheSize = 2048

type resolveKey struct {
	specifier string
	importer  string
}

type resolveResult struct {
	id string
	ok bool
}

// RootResolver resolves non-absolute specifiers against the project root
// (honoring the root alias) or the importing file's directory. Importers
// may be virtual URIs; the protocol segment is stripped to recover the real
// directory. Results are cached per (specifier, importer) pair for the life
// of the bridge instance.
type RootResolver struct {
	Root    string
	Alias   string
	PageExt string

	cache *lru.Cache[resolveKey, resolveResult]
}

func NewRootResolver(root, alias, pageExt string) *RootResolver {
	// lru.New only fails for non-positive sizes; a resolver without a
	// cache still works, it just probes on every call.
	cache, _ := lru.New[resolveKey, resolveResult](resolverCacheSize)
	return &RootResolver{Root: root, Alias: alias, PageExt: pageExt, cache: cache}
}

func (r *RootResolver) ResolveID(specifier, importer string) (string, bool) {
	if specifier == "" || filepath.IsAbs(specifier) {
		return "", false
	}
	if strings.Contains(specifier, vfs.Protocol) {
		return "", false
	}

	if r.cache == nil {
		return r.resolve(specifier, importer)
	}

	key := resolveKey{specifier: specifier, importer: importer}
	if cached, ok := r.cache.Get(key); ok {
		return cached.id, cached.ok
	}

	id, ok := r.resolve(specifier, importer)
	r.cache.Add(key, resolveResult{id: id, ok: ok})
	return id, ok
}

func (r *RootResolver) resolve(specifier, importer string) (string, bool) {
	realImporter := vfs.TrimURI(importer)

	var resolved string
	switch {
	case r.Alias != "" && strings.HasPrefix(specifier, r.Alias):
		resolved = filepath.Join(r.Root, strings.TrimPrefix(specifier, r.Alias))
	case strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../"):
		if realImporter == "" {
			resolved = filepath.Join(r.Root, specifier)
		} else {
			resolved = filepath.Join(filepath.Dir(realImporter), specifier)
		}
	default:
		resolved = filepath.Join(r.Root, specifier)
	}

	if filepath.Ext(resolved) != "" {
		return resolved, true
	}

	// Extensionless specifiers inherit the importer's extension; failing
	// that, probe the filesystem once and rely on the cache afterwards.
	if ext := path.Ext(filepath.ToSlash(realImporter)); ext != "" {
		return resolved + ext, true
	}
	for _, ext := range []string{r.PageExt, ".ts", ".jsx", ".js", ".css"} {
		candidate := resolved + ext
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}
