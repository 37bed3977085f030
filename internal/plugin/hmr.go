package plugin

import (
	"net/http"
	"path"
	"strings"
)

// HMRBundler produces the hot-reload client bundle for one document.
type HMRBundler func(r *http.Request) (string, error)

// DocumentSource looks up hot-reload bundlers by document id.
type DocumentSource interface {
	FindHMR(id string) (HMRBundler, bool)
}

// HMRMiddleware intercepts development requests for hot-reload client
// bundles: <clientRoute>/<id><pageExt>. When the manifest knows the id and
// its document produces a bundle, the bundle is written back as
// text/javascript and the chain is short-circuited; in every other case the
// request passes through to next exactly once.
func HMRMiddleware(clientRoute, pageExt string, docs DocumentSource) func(http.Handler) http.Handler {
	prefix := strings.TrimSuffix(clientRoute, "/") + "/"

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			urlPath := r.URL.Path
			if !strings.HasPrefix(urlPath, prefix) || !strings.HasSuffix(urlPath, pageExt) {
				next.ServeHTTP(w, r)
				return
			}

			file := path.Base(urlPath)
			id := strings.TrimSuffix(file, pageExt)

			render, ok := docs.FindHMR(id)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			code, err := render(r)
			if err != nil || code == "" {
				// No bundle available is "not handled", never a crashed
				// request.
				next.ServeHTTP(w, r)
				return
			}

			w.Header().Set("Content-Type", "text/javascript; charset=utf-8")
			_, _ = w.Write([]byte(code))
		})
	}
}
