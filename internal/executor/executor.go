// Package executor runs untrusted source code in an isolated environment.
//
// The request and result types use the JSON shape of the Piston execute API
// (https://github.com/engineer-man/piston), so /api/execute can forward them
// to an upstream Piston unchanged or serve them from the local Docker sandbox.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnsupportedLanguage is returned when no runtime is configured for the
// requested language.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// TimeoutExitCode is reported when execution is cut off by the timeout,
// matching the exit status of the unix timeout command.
const TimeoutExitCode = 124

// File is one source file of a request.
type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

// Request is a single execution request.
type Request struct {
	Language string `json:"language"`
	Version  string `json:"version"`
	Files    []File `json:"files"`
	Stdin    string `json:"stdin,omitempty"`
}

// Validate checks the fields every backend needs.
func (r Request) Validate() error {
	if r.Language == "" {
		return fmt.Errorf("language is required")
	}
	if len(r.Files) == 0 || r.Files[0].Content == "" {
		return fmt.Errorf("at least one non-empty file is required")
	}
	return nil
}

// Source returns the content of the entry file.
func (r Request) Source() string {
	if len(r.Files) == 0 {
		return ""
	}
	return r.Files[0].Content
}

// Stage is the outcome of one phase (compile or run). Output is stdout and
// stderr combined.
type Stage struct {
	Stdout string  `json:"stdout"`
	Stderr string  `json:"stderr"`
	Output string  `json:"output"`
	Code   int     `json:"code"`
	Signal *string `json:"signal"`
}

// Result is the outcome of an execution.
type Result struct {
	Language string        `json:"language"`
	Version  string        `json:"version"`
	Run      Stage         `json:"run"`
	Compile  *Stage        `json:"compile,omitempty"`
	Duration time.Duration `json:"-"`
}

// Executor is the core interface for running code in an isolated environment.
type Executor interface {
	Execute(ctx context.Context, req Request) (*Result, error)
}
