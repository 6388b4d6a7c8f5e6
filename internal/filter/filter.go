// Package filter holds the snippet list's search criteria and the reducer
// that changes them.
//
// Criteria only change through Reduce. Each action replaces exactly one
// field and returns a new value; the previous Criteria, including its tag
// slice, is never modified.
package filter

import (
	"strings"

	"github.com/sakif/snippet-vault/internal/model"
	"github.com/sakif/snippet-vault/internal/state"
)

type ActionType string

const (
	SetTitle    ActionType = "SET_TITLE"
	SetLanguage ActionType = "SET_LANGUAGE"
	SetUsecase  ActionType = "SET_USECASE"
	SetTags     ActionType = "SET_TAGS"
)

// Action is one change to the criteria. Payload is a string for title,
// usecase and language, and a []string for tags.
type Action struct {
	Type    ActionType
	Payload any
}

func Title(s string) Action { return Action{Type: SetTitle, Payload: s} }
func Language(l model.Language) Action { return Action{Type: SetLanguage, Payload: string(l)} }
func Usecase(s string) Action { return Action{Type: SetUsecase, Payload: s} }
func Tags(tags []string) Action { return Action{Type: SetTags, Payload: tags} }

// Criteria narrows the visible snippet list. The zero value matches
// everything.
type Criteria struct {
	Title    string
	Language model.Language
	Usecase  string
	Tags     []string
}

// Reduce returns c with the field named by a replaced. An unknown action
// type, or a payload of the wrong type, returns c unchanged.
func Reduce(c Criteria, a Action) Criteria {
	next := c
	next.Tags = copyTags(c.Tags)

	switch a.Type {
	case SetTitle:
		s, ok := a.Payload.(string)
		if !ok {
			return c
		}
		next.Title = s
	case SetLanguage:
		switch v := a.Payload.(type) {
		case string:
			next.Language = model.Language(v)
		case model.Language:
			next.Language = v
		default:
			return c
		}
	case SetUsecase:
		s, ok := a.Payload.(string)
		if !ok {
			return c
		}
		next.Usecase = s
	case SetTags:
		tags, ok := a.Payload.([]string)
		if !ok {
			return c
		}
		next.Tags = copyTags(tags)
	default:
		return c
	}
	return next
}

func copyTags(tags []string) []string {
	if tags == nil {
		return nil
	}
	return append([]string{}, tags...)
}

// Match reports whether s passes every clause of c:
//
//	title    case-insensitive substring, empty matches all
//	language exact, empty matches all
//	usecase  case-insensitive substring, empty matches all
//	tags     s has at least one selected tag, none selected matches all
func (c Criteria) Match(s model.Snippet) bool {
	if !containsFold(s.Title, c.Title) {
		return false
	}
	if c.Language != "" && s.Language != c.Language {
		return false
	}
	if !containsFold(s.Usecase, c.Usecase) {
		return false
	}
	if len(c.Tags) == 0 {
		return true
	}
	for _, tag := range c.Tags {
		if s.HasTag(tag) {
			return true
		}
	}
	return false
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Apply returns the snippets in list that match c, in order.
func (c Criteria) Apply(list []model.Snippet) []model.Snippet {
	out := make([]model.Snippet, 0, len(list))
	for _, s := range list {
		if c.Match(s) {
			out = append(out, s)
		}
	}
	return out
}

// Store is the observable criteria of one snippet list page.
type Store struct {
	cell *state.Cell[Criteria]
}

// NewStore starts from initial, usually the zero value or the criteria
// handed back from a detail page.
func NewStore(initial Criteria) *Store {
	initial.Tags = copyTags(initial.Tags)
	return &Store{cell: state.NewCell(initial)}
}

func (s *Store) Dispatch(a Action) {
	s.cell.Update(func(c Criteria) Criteria { return Reduce(c, a) })
}

func (s *Store) Criteria() Criteria {
	c := s.cell.Get()
	c.Tags = copyTags(c.Tags)
	return c
}

func (s *Store) Subscribe(fn func(Criteria)) (unsubscribe func()) {
	return s.cell.Subscribe(fn)
}
