// Package document coordinates compilation, loading and rendering for one
// page entry. A Document is a thin identity holder; the actual work lives
// in its three role objects, which have different failure domains and are
// invoked from different call sites (a build command, a module importer, an
// HTTP handler).
package document

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/3-lines-studio/heimdall/internal/bridge"
	"github.com/3-lines-studio/heimdall/internal/config"
	"github.com/3-lines-studio/heimdall/internal/core"
	"github.com/3-lines-studio/heimdall/internal/plugin"
	"github.com/3-lines-studio/heimdall/internal/vfs"
)

// Bridge is the bundler capability surface documents consume.
type Bridge interface {
	Render(ctx context.Context, path string, props map[string]any) (bridge.Rendered, error)
	Import(ctx context.Context, path string) (bridge.ModuleInfo, error)
	TransformHTML(ctx context.Context, html string) (string, error)
	Build(ctx context.Context, req bridge.BuildRequest) ([]bridge.BuildOutput, error)
}

// BridgeFunc hands out the process-wide bridge instance, constructing it on
// first use.
type BridgeFunc func(ctx context.Context) (Bridge, error)

// Options are the shared collaborators every document role needs.
type Options struct {
	Config   config.Config
	Bridge   BridgeFunc
	VFS      *vfs.FS
	Pipeline *plugin.Pipeline
	Logger   *log.Logger
}

// State tracks a document's compiled-artifact lifecycle.
type State int

const (
	StateUnbuilt State = iota
	StateBuilding
	StateBuilt
	// StateFailed documents stay usable; the next Build retries from
	// scratch.
	StateFailed
)

// Document is the per-entry unit. Entry and ID never change after
// construction; only the build state transitions.
type Document struct {
	Entry string
	ID    string

	ext  string
	opts Options

	mu    sync.Mutex
	state State

	Build  *Builder
	Load   *Loader
	Render *Render
}

// New derives the document's identity from its entry and wires up the three
// roles. The render and build strategies are chosen here, once, from the
// configured mode.
func New(entry string, opts Options) *Document {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	d := &Document{
		Entry: entry,
		ID:    core.DocumentID(entry),
		ext:   core.EntryExt(entry, opts.Config.PageExt),
		opts:  opts,
	}

	d.Load = &Loader{doc: d}

	if opts.Config.IsDev() {
		d.Build = &Builder{doc: d, strategy: &devBuild{doc: d}}
		d.Render = &Render{doc: d, strategy: &devRender{doc: d}}
	} else {
		d.Build = &Builder{doc: d, strategy: &prodBuild{doc: d}}
		d.Render = &Render{doc: d, strategy: &prodRender{doc: d}}
	}

	return d
}

// Ext is the entry's original extension.
func (d *Document) Ext() string { return d.ext }

func (d *Document) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Document) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}
