// Package tags implements the tag accumulator used by the snippet form and
// the tag filter.
package tags

import (
	"strings"
	"sync"
	"time"

	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/state"
)

const (
	MaxTags         = model.MaxTags
	WarningDuration = 2500 * time.Millisecond

	MsgLimitExceeded = "Only a maximum of 4 tags are allowed"
)

// Accumulator is an ordered list of at most MaxTags lowercase tags plus the
// text currently being typed. Duplicates are kept.
type Accumulator struct {
	mu      sync.Mutex
	pending string
	tags    *state.Cell[[]string]
	limit   *state.Flash
}

// New returns an empty accumulator whose limit warning runs on clock.
func New(clock state.Clock) *Accumulator {
	return &Accumulator{
		tags:  state.NewCell([]string{}),
		limit: state.NewFlash(clock, WarningDuration),
	}
}

// SetPending replaces the tag being typed.
func (a *Accumulator) SetPending(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = text
}

func (a *Accumulator) Pending() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Add appends the pending tag. When the list is already full it raises the
// limit warning instead and changes nothing. Blank pending text is ignored.
func (a *Accumulator) Add() {
	a.mu.Lock()
	current := a.tags.Get()
	if len(current) >= MaxTags {
		a.mu.Unlock()
		a.limit.Raise(MsgLimitExceeded)
		return
	}

	tag := strings.ToLower(strings.TrimSpace(a.pending))
	if tag == "" {
		a.mu.Unlock()
		return
	}
	a.pending = ""
	a.mu.Unlock()

	next := make([]string, 0, len(current)+1)
	next = append(next, current...)
	a.tags.Set(append(next, tag))
}

// Remove drops every tag equal to text.
func (a *Accumulator) Remove(text string) {
	a.tags.Update(func(current []string) []string {
		next := make([]string, 0, len(current))
		for _, t := range current {
			if t != text {
				next = append(next, t)
			}
		}
		return next
	})
}

func (a *Accumulator) Reset() {
	a.tags.Set([]string{})
}

// Load replaces the list, e.g. with an existing snippet's tags. Anything
// past MaxTags is dropped.
func (a *Accumulator) Load(tags []string) {
	if len(tags) > MaxTags {
		tags = tags[:MaxTags]
	}
	a.tags.Set(append([]string{}, tags...))
}

// Tags returns a copy of the current list.
func (a *Accumulator) Tags() []string {
	return append([]string{}, a.tags.Get()...)
}

func (a *Accumulator) Subscribe(fn func([]string)) (unsubscribe func()) {
	return a.tags.Subscribe(fn)
}

// LimitExceeded is raised for WarningDuration after Add on a full list.
func (a *Accumulator) LimitExceeded() *state.Flash {
	return a.limit
}

// Close cancels a pending warning timer.
func (a *Accumulator) Close() {
	a.limit.Close()
}
