// Package collection is the snippet list page: it fetches the signed-in
// user's snippets, narrows them with the page's filter criteria and deletes
// them on request.
package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/sakif/snippet-vault/internal/apiclient"
	"github.com/sakif/snippet-vault/internal/filter"
	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/nav"
	"github.com/sakif/snippet-vault/internal/state"
)

// MsgRequestFailed is shown when the server could not be reached.
const MsgRequestFailed = "Something went wrong. Please try again."

// ErrStale is returned by Load when its result was dropped because the view
// was closed or a newer Load started.
var ErrStale = errors.New("collection: result dropped, view no longer current")

// API is the part of the API client the view uses.
type API interface {
	ListSnippets(ctx context.Context, token string) ([]model.Snippet, error)
	DeleteSnippet(ctx context.Context, token, id string) (string, error)
}

// Session supplies the bearer token and turns a 401 into a logout.
type Session interface {
	Token() string
	HandleUnauthorized(err error) bool
}

type View struct {
	api      API
	session  Session
	nav      nav.Navigator
	filters  *filter.Store
	logger   *slog.Logger
	snippets *state.Cell[[]model.Snippet]

	mu     sync.Mutex
	gen    uint64
	loaded bool
	closed bool
}

// NewView creates the list page. filters carries the page's criteria, which
// may have been handed back from a detail page.
func NewView(api API, session Session, navigator nav.Navigator, filters *filter.Store, logger *slog.Logger) *View {
	return &View{
		api:      api,
		session:  session,
		nav:      navigator,
		filters:  filters,
		logger:   logger,
		snippets: state.NewCell([]model.Snippet{}),
	}
}

// Load fetches every snippet the user owns and replaces the held list.
//
// Any failure is fatal to the page: nothing is shown and the user is sent to
// the login page (a 401 also ends the session).
func (v *View) Load(ctx context.Context) error {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return ErrStale
	}
	v.gen++
	gen := v.gen
	v.mu.Unlock()

	list, err := v.api.ListSnippets(ctx, v.session.Token())

	v.mu.Lock()
	if v.closed || gen != v.gen {
		v.mu.Unlock()
		return ErrStale
	}
	if err != nil {
		v.mu.Unlock()
		v.session.HandleUnauthorized(err)
		v.logger.Warn("loading snippets failed", slog.String("error", err.Error()))
		v.nav.Navigate(nav.PathLogin, nil)
		return fmt.Errorf("loading snippets: %w", err)
	}
	v.loaded = true
	v.mu.Unlock()

	v.snippets.Set(list)
	return nil
}

// Loaded reports whether a Load has succeeded.
func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

// Snippets returns the full held list.
func (v *View) Snippets() []model.Snippet {
	return append([]model.Snippet{}, v.snippets.Get()...)
}

// Visible returns the held snippets that match the current criteria.
func (v *View) Visible() []model.Snippet {
	return v.filters.Criteria().Apply(v.snippets.Get())
}

func (v *View) Filters() *filter.Store {
	return v.filters
}

// Subscribe calls fn whenever the held list changes.
func (v *View) Subscribe(fn func([]model.Snippet)) (unsubscribe func()) {
	return v.snippets.Subscribe(fn)
}

// CountLabel is "N snippets" ("1 snippet") when nothing is filtered out,
// otherwise "N found" with N the visible count.
func (v *View) CountLabel() string {
	total := len(v.snippets.Get())
	visible := len(v.Visible())
	if visible == total {
		if total == 1 {
			return "1 snippet"
		}
		return fmt.Sprintf("%d snippets", total)
	}
	return fmt.Sprintf("%d found", visible)
}

// Delete removes a snippet on the server and, only once the server has
// confirmed, from the held list. It returns the server's confirmation
// message. On failure the list is untouched and the returned error's
// message is the one to show the user.
func (v *View) Delete(ctx context.Context, id string) (string, error) {
	msg, err := v.api.DeleteSnippet(ctx, v.session.Token(), id)
	if err != nil {
		var apiErr *apiclient.APIError
		switch {
		case v.session.HandleUnauthorized(err):
			v.nav.Navigate(nav.PathLogin, nil)
			return "", err
		case errors.As(err, &apiErr):
			return "", apiErr
		default:
			v.logger.Error("deleting snippet failed", slog.String("id", id), slog.String("error", err.Error()))
			return "", errors.New(MsgRequestFailed)
		}
	}

	v.mu.Lock()
	closed := v.closed
	v.mu.Unlock()
	if !closed {
		v.snippets.Update(func(current []model.Snippet) []model.Snippet {
			next := make([]model.Snippet, 0, len(current))
			for _, s := range current {
				if s.ID != id {
					next = append(next, s)
				}
			}
			return next
		})
	}
	return msg, nil
}

// Open moves to a snippet's detail page, handing the current criteria along
// so they survive the round trip.
func (v *View) Open(id string) {
	v.nav.Navigate(nav.PathSnippets+"/"+id, v.filters.Criteria())
}

// Close detaches the view. Results of requests still in flight are dropped.
func (v *View) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.closed = true
}
