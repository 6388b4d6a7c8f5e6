// Package editor backs the add and update snippet forms.
package editor

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/nav"
	"github.com/sakif/snippet-vault/internal/state"
	"github.com/sakif/snippet-vault/internal/tags"
)

const (
	MsgFieldsRequired = "Please fill in all fields!"
	MsgCreated        = "Successfully created a new code snippet!"
	MsgUpdated        = "Successfully updated the code snippet!"
	MsgRequestFailed  = "Something went wrong. Please try again."
)

// ErrIncomplete is returned when the form fails local validation. No
// request is sent.
var ErrIncomplete = errors.New(MsgFieldsRequired)

type API interface {
	CreateSnippet(ctx context.Context, token string, in apiclient.SnippetInput) (*model.Snippet, error)
	UpdateSnippet(ctx context.Context, token, id string, in apiclient.SnippetInput) (*model.Snippet, error)
}

type Session interface {
	Token() string
	HandleUnauthorized(err error) bool
}

// Fields are the free-text parts of the form.
type Fields struct {
	Title    string
	Language model.Language
	Usecase  string
	Code     string
}

// Editor holds one form. Only one of its two warnings is shown at a time:
// the missing-fields warning and the tag limit warning hide each other.
type Editor struct {
	api     API
	session Session
	nav     nav.Navigator
	logger  *slog.Logger

	Tags    *tags.Accumulator
	warning *state.Flash

	mu     sync.Mutex
	fields Fields
	stop   func()
}

func New(api API, session Session, navigator nav.Navigator, clock state.Clock, logger *slog.Logger) *Editor {
	e := &Editor{
		api:     api,
		session: session,
		nav:     navigator,
		logger:  logger,
		Tags:    tags.New(clock),
		warning: state.NewFlash(clock, tags.WarningDuration),
	}
	e.stop = e.Tags.LimitExceeded().Subscribe(func(raised bool) {
		if raised {
			e.warning.Dismiss()
		}
	})
	return e
}

// Edit fills the form from an existing snippet.
func (e *Editor) Edit(s model.Snippet) {
	e.SetFields(Fields{Title: s.Title, Language: s.Language, Usecase: s.Usecase, Code: s.Code})
	e.Tags.Load(s.Tags)
}

func (e *Editor) SetFields(f Fields) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fields = f
}

func (e *Editor) Fields() Fields {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.fields
}

// Warning is raised when Save or Update is attempted on an incomplete form.
func (e *Editor) Warning() *state.Flash {
	return e.warning
}

// Save creates a new snippet from the form.
func (e *Editor) Save(ctx context.Context) (*model.Snippet, error) {
	in, err := e.input()
	if err != nil {
		return nil, err
	}
	created, err := e.api.CreateSnippet(ctx, e.session.Token(), in)
	if err != nil {
		return nil, e.failure("creating snippet", err)
	}
	e.clear()
	return created, nil
}

// Update replaces snippet id with the form's contents.
func (e *Editor) Update(ctx context.Context, id string) (*model.Snippet, error) {
	in, err := e.input()
	if err != nil {
		return nil, err
	}
	updated, err := e.api.UpdateSnippet(ctx, e.session.Token(), id, in)
	if err != nil {
		return nil, e.failure("updating snippet", err)
	}
	e.clear()
	return updated, nil
}

// input validates the form: every field set and at least one tag.
func (e *Editor) input() (apiclient.SnippetInput, error) {
	f := e.Fields()
	current := e.Tags.Tags()

	if strings.TrimSpace(f.Title) == "" || f.Language == "" ||
		strings.TrimSpace(f.Usecase) == "" || strings.TrimSpace(f.Code) == "" ||
		len(current) == 0 {
		e.Tags.LimitExceeded().Dismiss()
		e.warning.Raise(MsgFieldsRequired)
		return apiclient.SnippetInput{}, ErrIncomplete
	}

	return apiclient.SnippetInput{
		Title:    f.Title,
		Language: f.Language,
		Code:     f.Code,
		Usecase:  f.Usecase,
		Tags:     current,
	}, nil
}

func (e *Editor) failure(op string, err error) error {
	var apiErr *apiclient.APIError
	switch {
	case e.session.HandleUnauthorized(err):
		e.nav.Navigate(nav.PathLogin, nil)
		return err
	case errors.As(err, &apiErr):
		return apiErr
	default:
		e.logger.Error(op+" failed", slog.String("error", err.Error()))
		return errors.New(MsgRequestFailed)
	}
}

func (e *Editor) clear() {
	e.SetFields(Fields{})
	e.Tags.SetPending("")
	e.Tags.Reset()
	e.warning.Dismiss()
}

// Close cancels pending warning timers.
func (e *Editor) Close() {
	e.stop()
	e.warning.Close()
	e.Tags.Close()
}
