package document

import (
	"context"
	"fmt"

	"github.com/3-lines-studio/heimdall/internal/core"
	"github.com/3-lines-studio/heimdall/internal/reload"
)

// Render produces final HTML for one document. The strategy is fixed at
// construction from the process mode.
type Render struct {
	doc      *Document
	strategy renderStrategy
}

type renderStrategy interface {
	renderMarkup(ctx context.Context, props map[string]any) (string, error)
}

// RenderMarkup renders the document against props and assembles the full
// page from the configured template.
func (r *Render) RenderMarkup(ctx context.Context, props map[string]any) (string, error) {
	return r.strategy.renderMarkup(ctx, props)
}

// RenderHMRClient builds the development hot-reload client: a virtual
// wrapper module importing the real entry, pushed through the live
// transform. Transform errors propagate unchanged; the hot-reload
// middleware treats them as "no bundle available".
func (r *Render) RenderHMRClient(ctx context.Context) (string, error) {
	d := r.doc
	if !d.opts.Config.IsDev() {
		return "", fmt.Errorf("hot-reload client requires development mode")
	}

	entry, err := d.Load.ResolveEntry()
	if err != nil {
		return "", err
	}

	key := d.ID + ".hmr" + d.ext
	uri := d.opts.VFS.Set(key, fmt.Sprintf("import %q;\n", entry))

	code, err := d.opts.Pipeline.Transform(ctx, uri)
	if err != nil {
		return "", err
	}
	if code == "" {
		return "", &core.TransformError{Path: uri, Err: core.ErrNoTransformOutput}
	}
	return code, nil
}

// prodRender imports the precompiled server module and assembles the page
// with static script and style tags.
type prodRender struct {
	doc *Document
}

func (p *prodRender) renderMarkup(ctx context.Context, props map[string]any) (string, error) {
	d := p.doc
	cfg := d.opts.Config

	mod, err := d.Load.Load(ctx)
	if err != nil {
		return "", err
	}

	br, err := d.opts.Bridge(ctx)
	if err != nil {
		return "", err
	}

	rendered, err := br.Render(ctx, mod.Path, props)
	if err != nil {
		return "", err
	}

	scriptSrc := cfg.ClientRoute + "/" + d.ID + ".js"
	return assembleDocument(template(cfg), rendered, props, scriptSrc, mod.Styles, cfg.CSSRoute)
}

// devRender renders straight from the source entry and runs the result
// through the bundler's HTML pipeline so the page carries the dev runtime
// hooks. The client script points at the untransformed-on-request entry.
type devRender struct {
	doc *Document
}

func (dv *devRender) renderMarkup(ctx context.Context, props map[string]any) (string, error) {
	d := dv.doc
	cfg := d.opts.Config

	entry, err := d.Load.ResolveEntry()
	if err != nil {
		return "", err
	}

	br, err := d.opts.Bridge(ctx)
	if err != nil {
		return "", err
	}

	rendered, err := br.Render(ctx, entry, props)
	if err != nil {
		return "", err
	}

	scriptSrc := cfg.ClientRoute + "/" + d.ID + d.ext
	html, err := assembleDocument(template(cfg), rendered, props, scriptSrc, nil, cfg.CSSRoute)
	if err != nil {
		return "", err
	}

	html, err = br.TransformHTML(ctx, html)
	if err != nil {
		return "", &core.TransformError{Path: entry, Err: err}
	}

	return reload.InjectScript(html), nil
}
