// Package bridge runs the embedded bundler runtime as a sidecar process and
// speaks JSON to it over a unix socket. One Client instance is shared per
// process; it owns the bundler's watch and module-graph state.
package bridge

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

//go:embed runtime.js
var runtimeSource string

type Client struct {
	cmd    *exec.Cmd
	socket string
	http   *http.Client
	logger *log.Logger
}

// NewClient starts the bundler runtime and waits for its socket to appear.
// Construction is expensive; callers cache the instance for the process
// lifetime.
func NewClient(bunPath string, logger *log.Logger) (*Client, error) {
	socket := filepath.Join(os.TempDir(), fmt.Sprintf("heimdall-%d.sock", os.Getpid()))

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	cmd := exec.Command(bunPath, "run", "--smol", "-")
	cmd.Dir = cwd
	cmd.Env = append(os.Environ(), "HEIMDALL_SOCKET="+socket)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = strings.NewReader(runtimeSource)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start bundler runtime: %w", err)
	}

	if err := waitForSocket(socket, 5*time.Second); err != nil {
		_ = cmd.Process.Kill()
		return nil, err
	}

	transport := &http.Transport{
		DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, "unix", socket)
		},
	}

	logger.Debug("bundler runtime started", "socket", socket)

	return &Client{
		cmd:    cmd,
		socket: socket,
		http:   &http.Client{Transport: transport},
		logger: logger,
	}, nil
}

func (c *Client) Stop() error {
	return c.cmd.Process.Kill()
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return fmt.Errorf("timeout waiting for bundler socket at %s", path)
}

// Rendered is the markup produced for one component tree.
type Rendered struct {
	Body string
	Head string
}

type renderResponse struct {
	HTML  string        `json:"html"`
	Head  string        `json:"head"`
	Error *runtimeError `json:"error"`
}

// Render imports the module at path and renders its default export (and
// Head export, if present) against props.
func (c *Client) Render(ctx context.Context, path string, props map[string]any) (Rendered, error) {
	var result renderResponse
	err := c.postJSON(ctx, "/render", map[string]any{"path": path, "props": props}, &result)
	if err != nil {
		return Rendered{}, err
	}
	if result.Error != nil {
		return Rendered{}, result.Error.toError()
	}
	return Rendered{Body: result.HTML, Head: result.Head}, nil
}

// ModuleInfo describes the exports of a compiled server module.
type ModuleInfo struct {
	HasHead bool
	Styles  []string
}

type importResponse struct {
	OK      bool          `json:"ok"`
	HasHead bool          `json:"hasHead"`
	Styles  []string      `json:"styles"`
	Error   *runtimeError `json:"error"`
}

// Import loads the module at path through the host module system and
// reports its exports.
func (c *Client) Import(ctx context.Context, path string) (ModuleInfo, error) {
	var result importResponse
	if err := c.postJSON(ctx, "/import", map[string]any{"path": path}, &result); err != nil {
		return ModuleInfo{}, err
	}
	if result.Error != nil {
		return ModuleInfo{}, result.Error.toError()
	}
	if !result.OK {
		return ModuleInfo{}, fmt.Errorf("import of %s produced no module", path)
	}
	return ModuleInfo{HasHead: result.HasHead, Styles: result.Styles}, nil
}

type transformResponse struct {
	Code  string        `json:"code"`
	HTML  string        `json:"html"`
	Error *runtimeError `json:"error"`
}

// Transform compiles one module's source text to executable code. The path
// selects the loader (tsx, ts, jsx, ...).
func (c *Client) Transform(ctx context.Context, code, path string) (string, error) {
	var result transformResponse
	err := c.postJSON(ctx, "/transform", map[string]any{"code": code, "path": path}, &result)
	if err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error.toError()
	}
	return result.Code, nil
}

// TransformHTML runs a document through the dev-server HTML pipeline so the
// returned page carries the bundler's dev runtime hooks.
func (c *Client) TransformHTML(ctx context.Context, html string) (string, error) {
	var result transformResponse
	if err := c.postJSON(ctx, "/transformHtml", map[string]any{"html": html}, &result); err != nil {
		return "", err
	}
	if result.Error != nil {
		return "", result.Error.toError()
	}
	return result.HTML, nil
}

// BuildRequest describes one bundling operation. Virtual carries a snapshot
// of the in-memory module store, base64-encoded, so the runtime's virtual
// plugin can serve those paths during the build.
type BuildRequest struct {
	Entrypoints []string          `json:"entrypoints"`
	Outdir      string            `json:"outdir"`
	Target      string            `json:"target"`
	Naming      string            `json:"naming"`
	CSSOutdir   string            `json:"cssOutdir,omitempty"`
	Virtual     map[string]string `json:"virtual,omitempty"`
}

// BuildOutput is one artifact written by a build: Kind is "js" or "css",
// Path the written file, Hash the content hash for css artifacts.
type BuildOutput struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Hash string `json:"hash"`
}

type buildResponse struct {
	OK      bool          `json:"ok"`
	Outputs []BuildOutput `json:"outputs"`
	Error   *runtimeError `json:"error"`
}

// Build bundles the entrypoints into outdir and returns the written
// artifacts.
func (c *Client) Build(ctx context.Context, req BuildRequest) ([]BuildOutput, error) {
	if len(req.Entrypoints) == 0 {
		return nil, fmt.Errorf("missing entrypoints")
	}
	if req.Outdir == "" {
		return nil, fmt.Errorf("missing outdir")
	}

	var result buildResponse
	if err := c.postJSON(ctx, "/build", req, &result); err != nil {
		return nil, err
	}
	if result.Error != nil {
		return nil, result.Error.toError()
	}
	if !result.OK {
		return nil, fmt.Errorf("build failed for entrypoints %v -> %s", req.Entrypoints, req.Outdir)
	}
	return result.Outputs, nil
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, result any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "http://localhost"+endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(result)
}
