package plugin

import (
	"strings"
)

// StyleInject prepends import statements for the configured global
// stylesheets to every page-entry module. Other extensions pass through.
type StyleInject struct {
	// Ext is the page-entry extension, e.g. ".tsx".
	Ext string
	// Globals are stylesheet paths, imported in order.
	Globals []string
}

func (s *StyleInject) Transform(code, id string) (string, bool) {
	if len(s.Globals) == 0 || !strings.HasSuffix(id, s.Ext) {
		return "", false
	}

	var sb strings.Builder
	for _, css := range s.Globals {
		sb.WriteString("import '")
		sb.WriteString(css)
		sb.WriteString("';\n")
	}
	sb.WriteString(code)
	return sb.String(), true
}
