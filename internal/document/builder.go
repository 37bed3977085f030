package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/3-lines-studio/heimdall/internal/bridge"
)

// Builder compiles one entry into its artifact set. Output paths are fully
// determined by the document id (or a stylesheet's own content hash), so
// concurrent builds across documents never collide and rebuilding with
// unchanged content is an idempotent overwrite.
type Builder struct {
	doc      *Document
	strategy buildStrategy
}

type buildStrategy interface {
	build(ctx context.Context) error
}

// Build runs the mode-selected strategy, tracking the document's state.
// Errors propagate untouched; a failed document remains usable for retry.
func (b *Builder) Build(ctx context.Context) error {
	b.doc.setState(StateBuilding)
	if err := b.strategy.build(ctx); err != nil {
		b.doc.setState(StateFailed)
		return err
	}
	b.doc.setState(StateBuilt)
	return nil
}

// prodBuild emits the full artifact set: a minified client bundle, a server
// module for the host runtime, and every transitively referenced stylesheet
// keyed by its content hash.
type prodBuild struct {
	doc *Document
}

func (p *prodBuild) build(ctx context.Context) error {
	d := p.doc
	cfg := d.opts.Config

	entry, err := d.Load.ResolveEntry()
	if err != nil {
		return err
	}

	br, err := d.opts.Bridge(ctx)
	if err != nil {
		return err
	}

	for _, dir := range []string{cfg.ClientPath, cfg.ServerPath, cfg.AssetPath} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	snapshot := d.opts.VFS.Snapshot()

	// Client and server targets write to disjoint id-keyed paths, so they
	// run concurrently. Stylesheet extraction rides on the client build,
	// which sees the same transitive graph.
	var styles []string
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		outputs, err := br.Build(gctx, bridge.BuildRequest{
			Entrypoints: []string{entry},
			Outdir:      cfg.ClientPath,
			Target:      "browser",
			Naming:      d.ID,
			CSSOutdir:   cfg.AssetPath,
			Virtual:     snapshot,
		})
		if err != nil {
			return err
		}
		for _, out := range outputs {
			if out.Kind == "css" {
				styles = append(styles, out.Hash)
			}
		}
		return nil
	})

	g.Go(func() error {
		_, err := br.Build(gctx, bridge.BuildRequest{
			Entrypoints: []string{entry},
			Outdir:      cfg.ServerPath,
			Target:      "bun",
			Naming:      d.ID,
			Virtual:     snapshot,
		})
		return err
	})

	if err := g.Wait(); err != nil {
		return err
	}

	// Record the extracted stylesheet identifiers on the server module so
	// Render emits <link> tags without re-deriving them.
	if len(styles) > 0 {
		if err := appendStyles(d.Load.ServerModulePath(), styles); err != nil {
			return err
		}
	}

	d.opts.Logger.Info("built document", "id", d.ID, "entry", d.Entry, "styles", len(styles))
	return nil
}

func appendStyles(modulePath string, styles []string) error {
	quoted := make([]string, len(styles))
	for i, s := range styles {
		quoted[i] = fmt.Sprintf("%q", s)
	}

	f, err := os.OpenFile(modulePath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "\nexport const styles = [%s];\n", strings.Join(quoted, ", "))
	return err
}

// devBuild writes the on-demand client artifact only: the entry transformed
// through the live pipeline, keyed by id with its original extension. The
// server side renders straight from source in development, so no server
// module or stylesheet extraction happens here.
type devBuild struct {
	doc *Document
}

func (dv *devBuild) build(ctx context.Context) error {
	d := dv.doc
	cfg := d.opts.Config

	entry, err := d.Load.ResolveEntry()
	if err != nil {
		return err
	}

	code, err := d.opts.Pipeline.Transform(ctx, entry)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(cfg.ClientPath, 0o755); err != nil {
		return err
	}

	out := filepath.Join(cfg.ClientPath, d.ID+d.ext)
	return os.WriteFile(out, []byte(code), 0o644)
}
