// Package config carries the process-wide settings for the render engine.
// The operating mode is resolved once at startup and never changes.
package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
)

// Mode selects how documents are built, loaded and rendered.
type Mode int

const (
	// ModeDevelopment transforms entries on demand and serves hot-reload
	// clients.
	ModeDevelopment Mode = iota
	// ModeBuild writes precompiled artifacts to disk.
	ModeBuild
	// ModeProduction loads precompiled artifacts for fast render.
	ModeProduction
)

func (m Mode) String() string {
	switch m {
	case ModeDevelopment:
		return "development"
	case ModeBuild:
		return "build"
	default:
		return "production"
	}
}

// ParseMode maps a HEIMDALL_MODE value to a Mode. Unknown values fall back
// to production, the safe default for deployed processes.
func ParseMode(s string) Mode {
	switch s {
	case "development", "dev":
		return ModeDevelopment
	case "build":
		return ModeBuild
	default:
		return ModeProduction
	}
}

var dotenvOnce sync.Once

// DetectMode reads HEIMDALL_MODE from the environment, loading a .env file
// first if one exists.
func DetectMode() Mode {
	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})
	return ParseMode(os.Getenv("HEIMDALL_MODE"))
}

// Config is the full engine configuration. Zero values are filled in by
// Default; paths and routes are only joined with id-keyed filenames and
// carry no other semantics.
type Config struct {
	Mode Mode

	// Root is the project root against which entries resolve.
	Root string
	// RootAlias is the specifier prefix that aliases Root in imports.
	RootAlias string
	// PageExt is the page-entry extension.
	PageExt string

	// ClientRoute prefixes client-script URLs; CSSRoute prefixes
	// stylesheet URLs.
	ClientRoute string
	CSSRoute    string

	// AssetPath receives extracted stylesheets, ClientPath client
	// bundles, ServerPath compiled server modules.
	AssetPath  string
	ClientPath string
	ServerPath string

	// Template is the document shell with the four injection markers.
	Template string
	// CSSGlobals are stylesheet paths injected into every page entry.
	CSSGlobals []string

	// BunPath is the bundler runtime executable.
	BunPath string
}

// Default returns the configuration for the detected mode with all paths
// and routes filled in.
func Default() Config {
	return Config{
		Mode:        DetectMode(),
		Root:        ".",
		RootAlias:   "@/",
		PageExt:     ".tsx",
		ClientRoute: "/client",
		CSSRoute:    "/assets",
		AssetPath:   ".heimdall/assets",
		ClientPath:  ".heimdall/client",
		ServerPath:  ".heimdall/pages",
		BunPath:     "bun",
	}
}

// IsDev reports whether the configuration runs in development mode.
func (c Config) IsDev() bool {
	return c.Mode == ModeDevelopment
}
