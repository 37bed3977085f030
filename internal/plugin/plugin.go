// Package plugin holds the bundler-pipeline extensions: stylesheet
// injection, root-aliased module resolution, the virtual-protocol loader and
// the hot-reload request interceptor. Hooks are expressed as a minimal
// internal capability set; the bridge boundary adapts them to whatever
// contract the external bundler expects.
package plugin

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/3-lines-studio/heimdall/internal/core"
	"github.com/3-lines-studio/heimdall/internal/vfs"
)

// Resolver maps an import specifier to a module id. A false return passes
// the specifier to the next hook.
type Resolver interface {
	ResolveID(specifier, importer string) (string, bool)
}

// Loader produces source text for a module id it recognizes.
type Loader interface {
	Load(id string) (string, bool)
}

// Transformer rewrites source text for matching modules.
type Transformer interface {
	Transform(code, id string) (string, bool)
}

// Compiler is the external capability that turns module source into
// executable code.
type Compiler interface {
	Compile(ctx context.Context, code, path string) (string, error)
}

// Pipeline chains the registered hooks around a Compiler, mirroring the
// resolve -> load -> transform order of the bundler it fronts.
type Pipeline struct {
	resolvers    []Resolver
	loaders      []Loader
	transformers []Transformer
	compiler     Compiler
}

func NewPipeline(compiler Compiler) *Pipeline {
	return &Pipeline{compiler: compiler}
}

func (p *Pipeline) Use(hooks ...any) *Pipeline {
	for _, h := range hooks {
		if r, ok := h.(Resolver); ok {
			p.resolvers = append(p.resolvers, r)
		}
		if l, ok := h.(Loader); ok {
			p.loaders = append(p.loaders, l)
		}
		if t, ok := h.(Transformer); ok {
			p.transformers = append(p.transformers, t)
		}
	}
	return p
}

// Resolve runs the resolver chain; unmatched specifiers pass through
// unchanged.
func (p *Pipeline) Resolve(specifier, importer string) string {
	for _, r := range p.resolvers {
		if id, ok := r.ResolveID(specifier, importer); ok {
			return id
		}
	}
	return specifier
}

// Load returns source for id, consulting loaders before the real
// filesystem. Virtual ids that no loader recognizes are resolution
// failures, not disk reads.
func (p *Pipeline) Load(id string) (string, error) {
	for _, l := range p.loaders {
		if code, ok := l.Load(id); ok {
			return code, nil
		}
	}

	if strings.Contains(id, vfs.Protocol) {
		return "", &core.ResolutionError{Specifier: id, Err: fmt.Errorf("virtual module was never stored")}
	}

	data, err := os.ReadFile(id)
	if err != nil {
		return "", &core.ResolutionError{Specifier: id, Err: err}
	}
	return string(data), nil
}

// Transform resolves, loads and compiles one module, running every
// registered transformer over the source first.
func (p *Pipeline) Transform(ctx context.Context, specifier string) (string, error) {
	id := p.Resolve(specifier, "")

	code, err := p.Load(id)
	if err != nil {
		return "", err
	}

	for _, t := range p.transformers {
		if out, ok := t.Transform(code, id); ok {
			code = out
		}
	}

	compiled, err := p.compiler.Compile(ctx, code, id)
	if err != nil {
		return "", &core.TransformError{Path: id, Err: err}
	}
	return compiled, nil
}
