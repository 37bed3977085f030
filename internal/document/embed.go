package document

import _ "embed"

// DefaultTemplate is the document shell used when no template is
// configured.
//
//go:embed page.html
var DefaultTemplate string
