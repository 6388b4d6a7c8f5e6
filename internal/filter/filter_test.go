package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/model"
)

func TestReduce_ReplacesOnlyNamedField(t *testing.T) {
	start := Criteria{Title: "sort", Language: model.Go, Usecase: "demo", Tags: []string{"a"}}

	tests := []struct {
		name   string
		action Action
		want   Criteria
	}{
		{"title", Title("heap"), Criteria{Title: "heap", Language: model.Go, Usecase: "demo", Tags: []string{"a"}}},
		{"language", Language(model.Rust), Criteria{Title: "sort", Language: model.Rust, Usecase: "demo", Tags: []string{"a"}}},
		{"usecase", Usecase("x"), Criteria{Title: "sort", Language: model.Go, Usecase: "x", Tags: []string{"a"}}},
		{"tags", Tags([]string{"b", "c"}), Criteria{Title: "sort", Language: model.Go, Usecase: "demo", Tags: []string{"b", "c"}}},
		{"clear language", Language(""), Criteria{Title: "sort", Usecase: "demo", Tags: []string{"a"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Reduce(start, tt.action))
			assert.Equal(t, []string{"a"}, start.Tags, "previous value untouched")
		})
	}
}

func TestReduce_UnknownActionIsIdentity(t *testing.T) {
	start := Criteria{Title: "sort"}
	assert.Equal(t, start, Reduce(start, Action{Type: "SET_COLOUR", Payload: "red"}))
	assert.Equal(t, start, Reduce(start, Action{Type: SetTitle, Payload: 42}))
	assert.Equal(t, start, Reduce(start, Action{Type: SetTags, Payload: "not a slice"}))
}

func TestReduce_NoAliasing(t *testing.T) {
	payload := []string{"go"}
	next := Reduce(Criteria{}, Tags(payload))
	payload[0] = "mutated"
	assert.Equal(t, []string{"go"}, next.Tags)

	after := Reduce(next, Title("x"))
	after.Tags[0] = "changed"
	assert.Equal(t, []string{"go"}, next.Tags)
}

func TestReduce_DistinctFieldsCommute(t *testing.T) {
	a := Reduce(Reduce(Criteria{}, Title("a")), Language(model.Go))
	b := Reduce(Reduce(Criteria{}, Language(model.Go)), Title("a"))
	assert.Equal(t, a, b)
}

func TestMatch(t *testing.T) {
	s := model.Snippet{
		Title:    "Bubble Sort",
		Language: model.Python,
		Usecase:  "Sorting demo",
		Tags:     []string{"sorting", "algorithms"},
	}

	tests := []struct {
		name string
		c    Criteria
		want bool
	}{
		{"empty matches all", Criteria{}, true},
		{"title case-insensitive", Criteria{Title: "bubble"}, true},
		{"title miss", Criteria{Title: "heap"}, false},
		{"language exact", Criteria{Language: model.Python}, true},
		{"language miss", Criteria{Language: model.Go}, false},
		{"usecase substring", Criteria{Usecase: "DEMO"}, true},
		{"usecase miss", Criteria{Usecase: "prod"}, false},
		{"any tag", Criteria{Tags: []string{"graphs", "sorting"}}, true},
		{"no tag matches", Criteria{Tags: []string{"graphs"}}, false},
		{"all clauses", Criteria{Title: "sort", Language: model.Python, Usecase: "sort", Tags: []string{"algorithms"}}, true},
		{"fields match but tags do not", Criteria{Title: "sort", Language: model.Python, Usecase: "sort", Tags: []string{"web"}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.c.Match(s))
		})
	}
}

func TestApply_KeepsOrder(t *testing.T) {
	list := []model.Snippet{
		{ID: "1", Title: "Quick Sort", Language: model.Go},
		{ID: "2", Title: "Hello", Language: model.Go},
		{ID: "3", Title: "Merge Sort", Language: model.Rust},
	}

	got := Criteria{Title: "sort"}.Apply(list)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	assert.NotNil(t, Criteria{Title: "zzz"}.Apply(list))
}

func TestStore_DispatchNotifies(t *testing.T) {
	handOff := Criteria{Title: "sort", Tags: []string{"go"}}
	s := NewStore(handOff)
	handOff.Tags[0] = "mutated"

	var seen []Criteria
	s.Subscribe(func(c Criteria) { seen = append(seen, c) })

	s.Dispatch(Usecase("demo"))
	s.Dispatch(Action{Type: "NOPE"})

	assert.Equal(t, Criteria{Title: "sort", Usecase: "demo", Tags: []string{"go"}}, s.Criteria())
	assert.Len(t, seen, 2)
}
