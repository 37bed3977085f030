package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/3-lines-studio/heimdall/internal/core"
)

// ServerModule describes a compiled server module's location and exports.
type ServerModule struct {
	Path    string
	HasHead bool
	Styles  []string
}

// Loader resolves what a render needs: in production the compiled server
// module, in development the original entry file.
type Loader struct {
	doc *Document
}

// ServerModulePath is the id-keyed location of the compiled server module.
func (l *Loader) ServerModulePath() string {
	return filepath.Join(l.doc.opts.Config.ServerPath, l.doc.ID+".js")
}

// Load resolves and imports the compiled server module. A missing file is a
// deployment error, surfaced as an ImportError and never retried.
func (l *Loader) Load(ctx context.Context) (ServerModule, error) {
	p := l.ServerModulePath()
	if _, err := os.Stat(p); err != nil {
		return ServerModule{}, &core.ImportError{Path: p, Err: err}
	}

	br, err := l.doc.opts.Bridge(ctx)
	if err != nil {
		return ServerModule{}, err
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return ServerModule{}, &core.ImportError{Path: p, Err: err}
	}

	info, err := br.Import(ctx, abs)
	if err != nil {
		return ServerModule{}, &core.ImportError{Path: p, Err: err}
	}

	return ServerModule{Path: abs, HasHead: info.HasHead, Styles: info.Styles}, nil
}

// ResolveEntry resolves the original entry file's absolute path against the
// project root, honoring the root alias.
func (l *Loader) ResolveEntry() (string, error) {
	cfg := l.doc.opts.Config

	entry := l.doc.Entry
	if cfg.RootAlias != "" && strings.HasPrefix(entry, cfg.RootAlias) {
		entry = strings.TrimPrefix(entry, cfg.RootAlias)
	}

	p := entry
	if !filepath.IsAbs(p) {
		p = filepath.Join(cfg.Root, strings.TrimPrefix(filepath.FromSlash(entry), "./"))
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", &core.ResolutionError{Specifier: l.doc.Entry, Err: err}
	}
	if _, err := os.Stat(abs); err != nil {
		return "", &core.ResolutionError{Specifier: l.doc.Entry, Err: err}
	}
	return abs, nil
}
