// Package heimdall turns page-component source files into servable HTML
// across three operating modes: interactive development (on-demand
// transform and hot reload), static build (artifacts written to disk), and
// production serving (precompiled artifacts loaded for fast render). One
// content-addressed identity scheme names every artifact, virtual module
// and client route in all three modes.
package heimdall

import (
	"context"
	"net/http"
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/3-lines-studio/heimdall/internal/bridge"
	"github.com/3-lines-studio/heimdall/internal/config"
	"github.com/3-lines-studio/heimdall/internal/core"
	"github.com/3-lines-studio/heimdall/internal/document"
	"github.com/3-lines-studio/heimdall/internal/manifest"
	"github.com/3-lines-studio/heimdall/internal/plugin"
	"github.com/3-lines-studio/heimdall/internal/reload"
	"github.com/3-lines-studio/heimdall/internal/vfs"
)

// Mode re-exports the closed operating-mode variant.
type Mode = config.Mode

const (
	ModeDevelopment = config.ModeDevelopment
	ModeBuild       = config.ModeBuild
	ModeProduction  = config.ModeProduction
)

// Option adjusts the server configuration before construction.
type Option func(*config.Config)

// WithMode overrides the mode detected from the environment.
func WithMode(m Mode) Option {
	return func(c *config.Config) { c.Mode = m }
}

// WithRoot sets the project root entries resolve against.
func WithRoot(root string) Option {
	return func(c *config.Config) { c.Root = root }
}

// WithTemplate replaces the default document shell. The template should
// contain the <!--app-head-->, <!--app-html-->, <!--app-props--> and
// <!--app-scripts--> markers; missing markers silently omit that section.
func WithTemplate(tpl string) Option {
	return func(c *config.Config) { c.Template = tpl }
}

// WithGlobalCSS injects the given stylesheets into every page entry.
func WithGlobalCSS(paths ...string) Option {
	return func(c *config.Config) { c.CSSGlobals = append(c.CSSGlobals, paths...) }
}

// WithRoutes sets the client-script and stylesheet route prefixes.
func WithRoutes(clientRoute, cssRoute string) Option {
	return func(c *config.Config) {
		c.ClientRoute = clientRoute
		c.CSSRoute = cssRoute
	}
}

// WithOutput sets the asset, client and server-module output directories.
func WithOutput(assetPath, clientPath, serverPath string) Option {
	return func(c *config.Config) {
		c.AssetPath = assetPath
		c.ClientPath = clientPath
		c.ServerPath = serverPath
	}
}

// WithBunPath points at the bundler runtime executable.
func WithBunPath(path string) Option {
	return func(c *config.Config) { c.BunPath = path }
}

// Server owns the engine configuration, the virtual module store, the
// document manifest and the shared bundler-bridge lifecycle.
type Server struct {
	cfg      config.Config
	logger   *log.Logger
	vfs      *vfs.FS
	man      *manifest.Manifest
	pipeline *plugin.Pipeline

	hub     *reload.Hub
	watcher *reload.Watcher

	bridgeFlight singleflight.Group
	bridgeMu     sync.Mutex
	bridgeClient *bridge.Client
}

// New builds a server for the mode detected from the environment (overridable
// with WithMode). The bundler bridge is not started here; the first operation
// that needs it pays the construction cost.
func New(opts ...Option) *Server {
	cfg := config.Default()
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "heimdall"})

	s := &Server{
		cfg:    cfg,
		logger: logger,
		vfs:    vfs.New(),
		man:    manifest.New(),
	}

	s.pipeline = plugin.NewPipeline(&lazyCompiler{server: s}).Use(
		&plugin.VirtualLoader{FS: s.vfs},
		plugin.NewRootResolver(cfg.Root, cfg.RootAlias, cfg.PageExt),
		&plugin.StyleInject{Ext: cfg.PageExt, Globals: cfg.CSSGlobals},
	)

	if cfg.IsDev() {
		s.hub = reload.NewHub()
	}

	return s
}

// Mode is the resolved operating mode.
func (s *Server) Mode() Mode { return s.cfg.Mode }

// Document registers entry (idempotently) and returns its document.
func (s *Server) Document(entry string) *document.Document {
	return s.man.Add(entry, func(normalized string) *document.Document {
		return document.New(normalized, document.Options{
			Config:   s.cfg,
			Bridge:   s.documentBridge,
			VFS:      s.vfs,
			Pipeline: s.pipeline,
			Logger:   s.logger,
		})
	})
}

// RenderMarkup renders the entry's page against props.
func (s *Server) RenderMarkup(ctx context.Context, entry string, props map[string]any) (string, error) {
	return s.Document(entry).Render.RenderMarkup(ctx, props)
}

// BuildAll compiles every registered document. Builds across documents run
// concurrently; id-keyed output paths keep them collision-free.
func (s *Server) BuildAll(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, doc := range s.man.All() {
		g.Go(func() error {
			return doc.Build.Build(gctx)
		})
	}
	return g.Wait()
}

// HotReload returns the development hot-reload middleware. Outside
// development it returns an identity middleware.
func (s *Server) HotReload() func(http.Handler) http.Handler {
	if !s.cfg.IsDev() {
		return func(next http.Handler) http.Handler { return next }
	}
	return plugin.HMRMiddleware(s.cfg.ClientRoute, s.cfg.PageExt, docSource{man: s.man})
}

// StaticRoutes maps each artifact route prefix to a handler serving the
// matching output directory. Rendered pages reference their client bundle
// and extracted stylesheets under these prefixes, so a serving process
// mounts all of them.
func (s *Server) StaticRoutes() map[string]http.Handler {
	return map[string]http.Handler{
		s.cfg.ClientRoute: http.StripPrefix(s.cfg.ClientRoute+"/", http.FileServer(http.Dir(s.cfg.ClientPath))),
		s.cfg.CSSRoute:    http.StripPrefix(s.cfg.CSSRoute+"/", http.FileServer(http.Dir(s.cfg.AssetPath))),
	}
}

// ReloadEvents is the SSE endpoint development pages subscribe to.
func (s *Server) ReloadEvents() http.Handler {
	if s.hub == nil {
		return http.NotFoundHandler()
	}
	return s.hub
}

// Watch starts the development source watcher feeding the reload hub.
func (s *Server) Watch() error {
	if s.hub == nil || s.watcher != nil {
		return nil
	}
	w, err := reload.Watch(s.cfg.Root, s.hub, s.logger)
	if err != nil {
		return err
	}
	s.watcher = w
	return nil
}

// Close stops the watcher and the bundler bridge, if they were started.
func (s *Server) Close() error {
	if s.watcher != nil {
		_ = s.watcher.Close()
		s.watcher = nil
	}
	s.bridgeMu.Lock()
	client := s.bridgeClient
	s.bridgeClient = nil
	s.bridgeMu.Unlock()
	if client != nil {
		return client.Stop()
	}
	return nil
}

// bridge hands out the process-wide bundler bridge, constructing it exactly
// once. Concurrent first callers share a single in-flight construction;
// creating two bridges would fork the bundler's watch and module-graph
// state.
func (s *Server) bridge(ctx context.Context) (*bridge.Client, error) {
	v, err, _ := s.bridgeFlight.Do("bridge", func() (any, error) {
		s.bridgeMu.Lock()
		client := s.bridgeClient
		s.bridgeMu.Unlock()
		if client != nil {
			return client, nil
		}

		client, err := bridge.NewClient(s.cfg.BunPath, s.logger)
		if err != nil {
			return nil, &core.BridgeError{Err: err}
		}

		s.bridgeMu.Lock()
		s.bridgeClient = client
		s.bridgeMu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*bridge.Client), nil
}

func (s *Server) documentBridge(ctx context.Context) (document.Bridge, error) {
	return s.bridge(ctx)
}

// lazyCompiler defers bridge construction until the pipeline first compiles
// something.
type lazyCompiler struct {
	server *Server
}

func (c *lazyCompiler) Compile(ctx context.Context, code, path string) (string, error) {
	br, err := c.server.bridge(ctx)
	if err != nil {
		return "", err
	}
	return br.Transform(ctx, code, vfs.TrimURI(path))
}

// docSource adapts the manifest to the hot-reload middleware's lookup
// contract.
type docSource struct {
	man *manifest.Manifest
}

func (d docSource) FindHMR(id string) (plugin.HMRBundler, bool) {
	doc, ok := d.man.FindByID(id)
	if !ok {
		return nil, false
	}
	return func(r *http.Request) (string, error) {
		return doc.Render.RenderHMRClient(r.Context())
	}, true
}
