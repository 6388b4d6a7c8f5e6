// Package guard gates protected pages behind a live session.
package guard

import (
	"errors"
	"sync"

	"github.com/sakif/snippet-vault/internal/nav"
	"github.com/sakif/snippet-vault/internal/session"
)

// State is where the guard is in its check.
type State int

const (
	// Checking is transient: the session is still loading.
	Checking State = iota
	Allowed
	Redirected
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Allowed:
		return "allowed"
	case Redirected:
		return "redirected"
	default:
		return "unknown"
	}
}

// ErrRedirected is returned by Protect when the page was not rendered
// because there is no session.
var ErrRedirected = errors.New("guard: not authenticated, redirected to login")

// ErrChecking is returned by Protect while the session is still loading.
var ErrChecking = errors.New("guard: session still loading")

// Sessions is the read side of session.Store.
type Sessions interface {
	Status() session.Status
	Subscribe(fn func(session.Status)) (unsubscribe func())
}

// Guard re-evaluates on every session change. Entering Redirected navigates
// to the login page once per transition.
type Guard struct {
	nav nav.Navigator

	mu    sync.Mutex
	state State
	stop  func()
}

func New(sessions Sessions, navigator nav.Navigator) *Guard {
	g := &Guard{nav: navigator}
	g.evaluate(sessions.Status())
	g.stop = sessions.Subscribe(g.evaluate)
	return g
}

func (g *Guard) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Guard) evaluate(st session.Status) {
	next := Redirected
	switch {
	case st.Loading:
		next = Checking
	case st.Authenticated:
		next = Allowed
	}

	g.mu.Lock()
	prev := g.state
	g.state = next
	g.mu.Unlock()

	if next == Redirected && prev != Redirected {
		g.nav.Navigate(nav.PathLogin, nil)
	}
}

// Protect runs page when the session is allowed.
func (g *Guard) Protect(page func() error) error {
	switch g.State() {
	case Allowed:
		return page()
	case Checking:
		return ErrChecking
	default:
		return ErrRedirected
	}
}

// Close stops following the session.
func (g *Guard) Close() {
	g.mu.Lock()
	stop := g.stop
	g.stop = nil
	g.mu.Unlock()
	if stop != nil {
		stop()
	}
}
