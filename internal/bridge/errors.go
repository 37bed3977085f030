package bridge

import (
	"fmt"
	"strings"
)

type errorPosition struct {
	LineText string `json:"lineText"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Column   int    `json:"column"`
}

type runtimeError struct {
	Message string `json:"message"`
	Stack   string `json:"stack"`
	Errors  []struct {
		Message   string        `json:"message"`
		Stack     string        `json:"stack"`
		Position  errorPosition `json:"position"`
		Specifier string        `json:"specifier"`
		Referrer  string        `json:"referrer"`
	} `json:"errors"`
}

func (r *runtimeError) toError() error {
	if len(r.Errors) == 0 && r.Stack == "" {
		return fmt.Errorf("%s", r.Message)
	}

	details := make([]ErrorDetail, len(r.Errors))
	for i, e := range r.Errors {
		details[i] = ErrorDetail{
			Message:   e.Message,
			File:      e.Position.File,
			Line:      e.Position.Line,
			Column:    e.Position.Column,
			LineText:  e.Position.LineText,
			Specifier: e.Specifier,
			Referrer:  e.Referrer,
		}
	}
	return &BuildError{Message: r.Message, Stack: r.Stack, Errors: details}
}

// ErrorDetail locates one failure inside a bundling operation.
type ErrorDetail struct {
	Message   string
	File      string
	Line      int
	Column    int
	LineText  string
	Specifier string
	Referrer  string
}

// BuildError carries the structured failure the bundler runtime reported.
type BuildError struct {
	Message string
	Stack   string
	Errors  []ErrorDetail
}

func (e *BuildError) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}

	var sb strings.Builder
	sb.WriteString(e.Message)
	for i, d := range e.Errors {
		sb.WriteString(fmt.Sprintf("\n  %d. %s", i+1, d.Message))
		if d.File != "" {
			sb.WriteString(fmt.Sprintf(" (%s:%d:%d)", d.File, d.Line, d.Column))
		}
	}
	return sb.String()
}
