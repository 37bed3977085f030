package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/3-lines-studio/heimdall/internal/bridge"
	"github.com/3-lines-studio/heimdall/internal/config"
	"github.com/3-lines-studio/heimdall/internal/core"
	"github.com/3-lines-studio/heimdall/internal/plugin"
	"github.com/3-lines-studio/heimdall/internal/vfs"
)

type fakeBridge struct {
	mu sync.Mutex

	rendered  bridge.Rendered
	renderErr error

	info      bridge.ModuleInfo
	importErr error

	outputs  []bridge.BuildOutput
	buildErr error
	builds   []bridge.BuildRequest
}

func (f *fakeBridge) Render(ctx context.Context, path string, props map[string]any) (bridge.Rendered, error) {
	return f.rendered, f.renderErr
}

func (f *fakeBridge) Import(ctx context.Context, path string) (bridge.ModuleInfo, error) {
	return f.info, f.importErr
}

func (f *fakeBridge) TransformHTML(ctx context.Context, html string) (string, error) {
	return strings.Replace(html, "</head>", `<script type="module" src="/@heimdall/dev"></script></head>`, 1), nil
}

func (f *fakeBridge) Build(ctx context.Context, req bridge.BuildRequest) ([]bridge.BuildOutput, error) {
	f.mu.Lock()
	f.builds = append(f.builds, req)
	f.mu.Unlock()
	if f.buildErr != nil {
		return nil, f.buildErr
	}
	// Mimic the runtime writing the server module so style recording has a
	// file to append to.
	if req.Target == "bun" {
		_ = os.WriteFile(filepath.Join(req.Outdir, req.Naming+".js"), []byte("export default function(){}"), 0o644)
	}
	return f.outputs, nil
}

func bridgeFn(b *fakeBridge) BridgeFunc {
	return func(context.Context) (Bridge, error) { return b, nil }
}

func prodConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Mode = config.ModeProduction
	cfg.Root = t.TempDir()
	cfg.ServerPath = t.TempDir()
	cfg.ClientPath = t.TempDir()
	cfg.AssetPath = t.TempDir()
	return cfg
}

func writeServerModule(t *testing.T, cfg config.Config, id string) {
	t.Helper()
	path := filepath.Join(cfg.ServerPath, id+".js")
	if err := os.WriteFile(path, []byte("export default function(){}"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestProductionRenderMarkup(t *testing.T) {
	cfg := prodConfig(t)
	br := &fakeBridge{
		rendered: bridge.Rendered{Body: "<h1>Hello</h1>", Head: "<title>Hi</title>"},
		info:     bridge.ModuleInfo{HasHead: true, Styles: []string{"a.css", "b.css"}},
	}

	doc := New("./pages/home.tsx", Options{Config: cfg, Bridge: bridgeFn(br)})
	writeServerModule(t, cfg, doc.ID)

	html, err := doc.Render.RenderMarkup(context.Background(), map[string]any{"name": "World"})
	if err != nil {
		t.Fatalf("RenderMarkup: %v", err)
	}

	wantFragments := []string{
		`<script type="module" src="/client/` + doc.ID + `.js"></script>`,
		`<link rel="stylesheet" href="/assets/a.css" />`,
		`<link rel="stylesheet" href="/assets/b.css" />`,
		`<title>Hi</title>`,
		`<h1>Hello</h1>`,
		`"name":"World"`,
	}
	for _, frag := range wantFragments {
		if !strings.Contains(html, frag) {
			t.Errorf("rendered document missing %q", frag)
		}
	}
}

func TestProductionRenderOmitsMissingSections(t *testing.T) {
	cfg := prodConfig(t)
	br := &fakeBridge{
		rendered: bridge.Rendered{Body: "<p>body</p>"},
		info:     bridge.ModuleInfo{},
	}

	doc := New("./pages/about.tsx", Options{Config: cfg, Bridge: bridgeFn(br)})
	writeServerModule(t, cfg, doc.ID)

	html, err := doc.Render.RenderMarkup(context.Background(), nil)
	if err != nil {
		t.Fatalf("RenderMarkup: %v", err)
	}

	if strings.Contains(html, "<link rel=\"stylesheet\"") {
		t.Error("document with no styles emitted link tags")
	}
	if !strings.Contains(html, `id="__HEIMDALL_PROPS__">{}</script>`) {
		t.Error("nil props must serialize as an empty object")
	}
}

func TestProductionRenderMissingModuleFailsFast(t *testing.T) {
	cfg := prodConfig(t)
	doc := New("./pages/never-built.tsx", Options{Config: cfg, Bridge: bridgeFn(&fakeBridge{})})

	_, err := doc.Render.RenderMarkup(context.Background(), nil)
	var importErr *core.ImportError
	if !errors.As(err, &importErr) {
		t.Fatalf("RenderMarkup error = %v, want *core.ImportError", err)
	}
}

func TestLoaderResolveEntry(t *testing.T) {
	cfg := prodConfig(t)
	cfg.Mode = config.ModeDevelopment

	pagesDir := filepath.Join(cfg.Root, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pagesDir, "home.tsx"), []byte("export default () => null"), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := New("./pages/home.tsx", Options{Config: cfg})

	abs, err := doc.Load.ResolveEntry()
	if err != nil {
		t.Fatalf("ResolveEntry: %v", err)
	}
	if !filepath.IsAbs(abs) || !strings.HasSuffix(abs, filepath.Join("pages", "home.tsx")) {
		t.Errorf("ResolveEntry = %q", abs)
	}
}

func TestLoaderResolveEntryMissing(t *testing.T) {
	cfg := prodConfig(t)
	doc := New("./pages/ghost.tsx", Options{Config: cfg})

	_, err := doc.Load.ResolveEntry()
	var resErr *core.ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("ResolveEntry error = %v, want *core.ResolutionError", err)
	}
}

type passCompiler struct{}

func (passCompiler) Compile(ctx context.Context, code, path string) (string, error) {
	return code, nil
}

type emptyCompiler struct{}

func (emptyCompiler) Compile(ctx context.Context, code, path string) (string, error) {
	return "", nil
}

func devOptions(t *testing.T, compiler plugin.Compiler) Options {
	t.Helper()

	cfg := prodConfig(t)
	cfg.Mode = config.ModeDevelopment

	pagesDir := filepath.Join(cfg.Root, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pagesDir, "home.tsx"), []byte("export default () => null"), 0o644); err != nil {
		t.Fatal(err)
	}

	store := vfs.New()
	pipeline := plugin.NewPipeline(compiler).Use(&plugin.VirtualLoader{FS: store})

	return Options{Config: cfg, VFS: store, Pipeline: pipeline, Bridge: bridgeFn(&fakeBridge{})}
}

func TestRenderHMRClient(t *testing.T) {
	opts := devOptions(t, passCompiler{})
	doc := New("./pages/home.tsx", opts)

	code, err := doc.Render.RenderHMRClient(context.Background())
	if err != nil {
		t.Fatalf("RenderHMRClient: %v", err)
	}
	if !strings.Contains(code, "import") || !strings.Contains(code, "home.tsx") {
		t.Errorf("hot-reload client = %q, want an import of the entry", code)
	}

	if !opts.VFS.Has(doc.ID + ".hmr" + doc.Ext()) {
		t.Error("wrapper module was not stored in the virtual store")
	}
}

func TestRenderHMRClientNoOutput(t *testing.T) {
	opts := devOptions(t, emptyCompiler{})
	doc := New("./pages/home.tsx", opts)

	_, err := doc.Render.RenderHMRClient(context.Background())
	var transformErr *core.TransformError
	if !errors.As(err, &transformErr) {
		t.Fatalf("RenderHMRClient error = %v, want *core.TransformError", err)
	}
	if !errors.Is(err, core.ErrNoTransformOutput) {
		t.Error("error must wrap ErrNoTransformOutput")
	}
}

func TestRenderHMRClientProductionRefused(t *testing.T) {
	cfg := prodConfig(t)
	doc := New("./pages/home.tsx", Options{Config: cfg})

	if _, err := doc.Render.RenderHMRClient(context.Background()); err == nil {
		t.Error("RenderHMRClient must fail outside development mode")
	}
}

func TestBuilderStateTransitions(t *testing.T) {
	cfg := prodConfig(t)

	pagesDir := filepath.Join(cfg.Root, "pages")
	if err := os.MkdirAll(pagesDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(pagesDir, "home.tsx"), []byte("export default () => null"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Run("successful build", func(t *testing.T) {
		br := &fakeBridge{outputs: []bridge.BuildOutput{
			{Path: "x.css", Kind: "css", Hash: "abc123.css"},
		}}
		doc := New("./pages/home.tsx", Options{Config: cfg, Bridge: bridgeFn(br), VFS: vfs.New()})

		if doc.State() != StateUnbuilt {
			t.Errorf("fresh document state = %d", doc.State())
		}
		if err := doc.Build.Build(context.Background()); err != nil {
			t.Fatalf("Build: %v", err)
		}
		if doc.State() != StateBuilt {
			t.Errorf("state after build = %d, want StateBuilt", doc.State())
		}

		if len(br.builds) != 2 {
			t.Fatalf("bridge saw %d builds, want client + server", len(br.builds))
		}

		// Style identifiers must be recorded on the server module.
		data, err := os.ReadFile(filepath.Join(cfg.ServerPath, doc.ID+".js"))
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(string(data), `export const styles = ["abc123.css"];`) {
			t.Errorf("server module missing styles export:\n%s", data)
		}
	})

	t.Run("failed build surfaces error and allows retry", func(t *testing.T) {
		br := &fakeBridge{buildErr: errors.New("syntax error")}
		doc := New("./pages/home.tsx", Options{Config: cfg, Bridge: bridgeFn(br), VFS: vfs.New()})

		if err := doc.Build.Build(context.Background()); err == nil {
			t.Fatal("Build swallowed the compile error")
		}
		if doc.State() != StateFailed {
			t.Errorf("state after failure = %d, want StateFailed", doc.State())
		}

		br.buildErr = nil
		if err := doc.Build.Build(context.Background()); err != nil {
			t.Fatalf("retry after failure: %v", err)
		}
		if doc.State() != StateBuilt {
			t.Errorf("state after retry = %d, want StateBuilt", doc.State())
		}
	})
}

func TestDevBuildWritesClientArtifact(t *testing.T) {
	opts := devOptions(t, passCompiler{})
	doc := New("./pages/home.tsx", opts)

	if err := doc.Build.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}

	out := filepath.Join(opts.Config.ClientPath, doc.ID+doc.Ext())
	if _, err := os.Stat(out); err != nil {
		t.Errorf("dev client artifact %s missing: %v", out, err)
	}
}

func TestDocumentIdentityStable(t *testing.T) {
	cfg := prodConfig(t)
	a := New("./pages/home.tsx", Options{Config: cfg})
	b := New("./pages/home.tsx", Options{Config: cfg})

	if a.ID != b.ID {
		t.Error("same entry produced different ids")
	}
	if !strings.HasPrefix(a.ID, "home.") {
		t.Errorf("id = %q, want base-filename prefix", a.ID)
	}
}
