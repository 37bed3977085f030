package core

import (
	"errors"
	"fmt"
)

// ErrNoTransformOutput is reported when the bundler transform succeeds but
// yields no code for the requested module.
var ErrNoTransformOutput = errors.New("transform produced no code")

// ResolutionError reports an entry or virtual path that could not be
// resolved. Fatal to the requested operation.
type ResolutionError struct {
	Specifier string
	Importer  string
	Err       error
}

func (e *ResolutionError) Error() string {
	if e.Importer != "" {
		return fmt.Sprintf("cannot resolve %q from %q: %v", e.Specifier, e.Importer, e.Err)
	}
	return fmt.Sprintf("cannot resolve %q: %v", e.Specifier, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// TransformError reports a bundler transform that threw or returned no
// usable code. Surfaced unchanged, never retried.
type TransformError struct {
	Path string
	Err  error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform failed for %s: %v", e.Path, e.Err)
}

func (e *TransformError) Unwrap() error { return e.Err }

// ImportError reports a compiled server module that is missing or threw on
// import. Typically a stale or incomplete build.
type ImportError struct {
	Path string
	Err  error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("cannot import server module %s: %v", e.Path, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

// BridgeError reports that the bundler bridge could not be created. Fatal
// to the process's dev/build capability.
type BridgeError struct {
	Err error
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bundler bridge unavailable: %v", e.Err)
}

func (e *BridgeError) Unwrap() error { return e.Err }
