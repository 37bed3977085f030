package document

import (
	"encoding/json"
	"strings"

	"github.com/3-lines-studio/heimdall/internal/bridge"
	"github.com/3-lines-studio/heimdall/internal/config"
)

// The four literal markers substituted into the document template. A
// template missing a marker silently omits that section.
const (
	headMarker    = "<!--app-head-->"
	htmlMarker    = "<!--app-html-->"
	propsMarker   = "<!--app-props-->"
	scriptsMarker = "<!--app-scripts-->"
)

const propsScriptID = "__HEIMDALL_PROPS__"

func template(cfg config.Config) string {
	if cfg.Template != "" {
		return cfg.Template
	}
	return DefaultTemplate
}

func assembleDocument(tpl string, page bridge.Rendered, props map[string]any, scriptSrc string, styles []string, cssRoute string) (string, error) {
	if props == nil {
		props = map[string]any{}
	}
	propsJSON, err := json.Marshal(props)
	if err != nil {
		return "", err
	}
	// "</" would terminate the inline script early.
	escaped := strings.ReplaceAll(string(propsJSON), "</", "<\\/")
	propsTag := `<script type="application/json" id="` + propsScriptID + `">` + escaped + `</script>`

	var head strings.Builder
	head.WriteString(page.Head)
	for _, s := range styles {
		head.WriteString(`<link rel="stylesheet" href="` + strings.TrimSuffix(cssRoute, "/") + "/" + s + `" />`)
	}

	scriptTag := `<script type="module" src="` + scriptSrc + `"></script>`

	out := strings.ReplaceAll(tpl, headMarker, head.String())
	out = strings.ReplaceAll(out, htmlMarker, page.Body)
	out = strings.ReplaceAll(out, propsMarker, propsTag)
	out = strings.ReplaceAll(out, scriptsMarker, scriptTag)
	return out, nil
}
