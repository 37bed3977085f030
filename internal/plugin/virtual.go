package plugin

import (
	"path"
	"strings"

	"github.com/3-lines-studio/heimdall/internal/vfs"
)

// VirtualLoader exposes the in-memory module store to the resolution
// pipeline. The virtual protocol prefix is recognized anywhere inside an
// incoming specifier, since other resolution mechanisms may wrap it.
type VirtualLoader struct {
	FS *vfs.FS
}

func (v *VirtualLoader) ResolveID(specifier, importer string) (string, bool) {
	if i := strings.Index(specifier, vfs.Protocol); i >= 0 {
		return specifier[i:], true
	}

	// Relative imports from inside a virtual module rewrite the path
	// segment and keep the importer's extension. The rewrite only holds
	// when the target is actually stored; otherwise the specifier falls
	// through so the root resolver can recover the on-disk path.
	if strings.HasPrefix(importer, vfs.Protocol) && isRelative(specifier) {
		base := vfs.TrimURI(importer)
		resolved := path.Join(path.Dir(base), specifier)
		if path.Ext(resolved) == "" {
			resolved += path.Ext(base)
		}
		if v.FS.Has(resolved) {
			return vfs.URI(resolved), true
		}
	}

	return "", false
}

func (v *VirtualLoader) Load(id string) (string, bool) {
	if !strings.HasPrefix(id, vfs.Protocol) {
		return "", false
	}
	return v.FS.Get(vfs.TrimURI(id))
}

func isRelative(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}
