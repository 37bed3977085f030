// Command heimdall is a thin process wrapper around the render engine: a
// build command for static artifact generation and a serve command for the
// development and production HTTP surface.
package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/3-lines-studio/heimdall"
)

func main() {
	logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "heimdall"})

	root := &cobra.Command{
		Use:           "heimdall",
		Short:         "Server-side rendering engine for page components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(buildCmd(logger), serveCmd(logger))

	if err := root.Execute(); err != nil {
		logger.Error("command failed", "err", err)
		os.Exit(1)
	}
}

func buildCmd(logger *log.Logger) *cobra.Command {
	var rootDir string

	cmd := &cobra.Command{
		Use:   "build <entry>...",
		Short: "Compile page entries into production artifacts",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := heimdall.New(heimdall.WithMode(heimdall.ModeBuild), heimdall.WithRoot(rootDir))
			defer srv.Close()

			for _, entry := range args {
				doc := srv.Document(entry)
				logger.Info("registered", "entry", entry, "id", doc.ID)
			}

			if err := srv.BuildAll(cmd.Context()); err != nil {
				return err
			}
			logger.Info("build complete", "documents", len(args))
			return nil
		},
	}

	cmd.Flags().StringVar(&rootDir, "root", ".", "project root")
	return cmd
}

func serveCmd(logger *log.Logger) *cobra.Command {
	var (
		addr    string
		rootDir string
		pages   []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve pages over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := heimdall.New(heimdall.WithRoot(rootDir))
			defer srv.Close()

			if srv.Mode() == heimdall.ModeDevelopment {
				if err := srv.Watch(); err != nil {
					return err
				}
			}

			r := chi.NewRouter()
			r.Use(middleware.Recoverer)
			r.Use(srv.HotReload())
			r.Handle("/@heimdall/reload", srv.ReloadEvents())
			for route, h := range srv.StaticRoutes() {
				r.Handle(route+"/*", h)
			}

			for _, spec := range pages {
				pattern, entry, err := splitPage(spec)
				if err != nil {
					return err
				}
				srv.Document(entry)
				r.Get(pattern, pageHandler(srv, entry, logger))
			}

			logger.Info("listening", "addr", addr, "mode", srv.Mode())
			return http.ListenAndServe(addr, r)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":3000", "listen address")
	cmd.Flags().StringVar(&rootDir, "root", ".", "project root")
	cmd.Flags().StringArrayVar(&pages, "page", nil, "route=entry pair, repeatable")
	return cmd
}

func splitPage(spec string) (pattern, entry string, err error) {
	pattern, entry, ok := strings.Cut(spec, "=")
	if !ok || pattern == "" || entry == "" {
		return "", "", fmt.Errorf("invalid --page %q, want route=entry", spec)
	}
	return pattern, entry, nil
}

func pageHandler(srv *heimdall.Server, entry string, logger *log.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		props := map[string]any{}
		for k, v := range r.URL.Query() {
			if len(v) > 0 {
				props[k] = v[0]
			}
		}

		html, err := srv.RenderMarkup(r.Context(), entry, props)
		if err != nil {
			logger.Error("render failed", "entry", entry, "err", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}
