// Package nav models page navigation for the client core.
//
// A move can carry hand-off state to the destination page; the snippet list
// uses this to keep its filters when the user comes back from a detail page.
package nav

import "sync"

const (
	PathHome     = "/"
	PathLogin    = "/login"
	PathSnippets = "/snippets"
)

// Navigator moves to another page.
type Navigator interface {
	Navigate(path string, state any)
}

// Location is a visited page and the state handed to it.
type Location struct {
	Path  string
	State any
}

// History is an in-memory Navigator that records every move.
type History struct {
	mu      sync.Mutex
	entries []Location
}

func NewHistory(start string) *History {
	return &History{entries: []Location{{Path: start}}}
}

func (h *History) Navigate(path string, state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, Location{Path: path, State: state})
}

// Current returns the most recent location.
func (h *History) Current() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[len(h.entries)-1]
}

// Back drops the current location and returns the previous one. At the
// first entry it stays put.
func (h *History) Back() Location {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.entries) > 1 {
		h.entries = h.entries[:len(h.entries)-1]
	}
	return h.entries[len(h.entries)-1]
}

func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// HandOff returns the state of the current location as a T, if it is one.
func HandOff[T any](h *History) (T, bool) {
	v, ok := h.Current().State.(T)
	return v, ok
}
