// Package runner sends a snippet to a Piston-compatible execute endpoint and
// returns the program's output.
package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/executor"
	"github.com/sakif/snippet-vault/internal/model"
)

// NoOutput is returned when the program printed nothing.
const NoOutput = "No output"

// ErrExecutionFailed is the user-facing error for a failed run other than a
// rejected token. It is never retried.
var ErrExecutionFailed = errors.New("An error occurred while executing your code. Please try again.")

// entryFile is the name every snippet is sent under.
const entryFile = "main"

// Versions pins the runtime version requested for each execution language.
var Versions = map[string]string{
	"javascript": "18.15.0",
	"typescript": "5.0.3",
	"python":     "3.10.0",
	"java":       "15.0.2",
	"cpp":        "10.2.0",
	"csharp":     "6.12.0",
	"go":         "1.16.2",
	"rust":       "1.68.2",
}

// ExecutionLanguage maps a display language to the engine's identifier.
func ExecutionLanguage(lang model.Language) string {
	switch lang {
	case model.CPP:
		return "cpp"
	case model.CSharp:
		return "csharp"
	default:
		return strings.ToLower(string(lang))
	}
}

// response accepts both the Piston shape ({"run":{"output":...}}) and a flat
// {"stdout":...,"stderr":...}.
type response struct {
	Run *struct {
		Output string `json:"output"`
	} `json:"run"`
	Stdout string `json:"stdout"`
	Stderr string `json:"stderr"`
}

func (r response) text() string {
	if r.Run != nil && r.Run.Output != "" {
		return r.Run.Output
	}
	if r.Stdout != "" {
		return r.Stdout
	}
	if r.Stderr != "" {
		return r.Stderr
	}
	return NoOutput
}

type Runner struct {
	http *resty.Client
	url  string
}

// New returns a Runner posting to url, e.g.
// "https://emkc.org/api/v2/piston/execute" or "http://localhost:8080/api/execute".
func New(url string, timeout time.Duration) *Runner {
	return &Runner{
		http: resty.New().
			SetHeader("Content-Type", "application/json").
			SetTimeout(timeout),
		url: url,
	}
}

// Request builds the payload for one run.
func Request(lang model.Language, code, stdin string) executor.Request {
	name := ExecutionLanguage(lang)
	version, ok := Versions[name]
	if !ok {
		version = "*"
	}
	return executor.Request{
		Language: name,
		Version:  version,
		Files:    []executor.File{{Name: entryFile, Content: code}},
		Stdin:    stdin,
	}
}

// Run executes code and returns what it printed. token is sent as a bearer
// credential when non-empty.
//
// A 401 comes back as a wrapped *apiclient.APIError so callers can end the
// session; every other failure wraps ErrExecutionFailed.
func (r *Runner) Run(ctx context.Context, lang model.Language, code, stdin, token string) (string, error) {
	var out response
	var rejected struct {
		Message string `json:"message"`
	}
	req := r.http.R().
		SetContext(ctx).
		SetBody(Request(lang, code, stdin)).
		SetResult(&out).
		SetError(&rejected)
	if token != "" {
		req.SetAuthToken(token)
	}

	resp, err := req.Post(r.url)
	if err != nil {
		return "", fmt.Errorf("runner: %v: %w", err, ErrExecutionFailed)
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		msg := rejected.Message
		if msg == "" {
			msg = "Invalid token"
		}
		return "", fmt.Errorf("runner: %w", &apiclient.APIError{Status: http.StatusUnauthorized, Message: msg})
	}
	if resp.IsError() {
		return "", fmt.Errorf("runner: status %d: %w", resp.StatusCode(), ErrExecutionFailed)
	}
	return out.text(), nil
}
