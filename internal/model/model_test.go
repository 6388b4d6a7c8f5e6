package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageValid(t *testing.T) {
	assert.True(t, Python.Valid())
	assert.True(t, Language("C++").Valid())
	assert.False(t, Language("python").Valid(), "display names are case-sensitive")
	assert.False(t, Language("").Valid())
}

func TestSnippetHasTag(t *testing.T) {
	s := Snippet{Tags: []string{"sorting", "algorithms"}}
	assert.True(t, s.HasTag("sorting"))
	assert.False(t, s.HasTag("sort"))
}

func TestSnippetWireShape(t *testing.T) {
	s := Snippet{ID: "abc", Title: "Bubble Sort", Language: Python, CreatedBy: "u1", Tags: []string{"sorting"}}
	raw, err := json.Marshal(s)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "abc", m["_id"])
	assert.Equal(t, "Python", m["language"])
	assert.Equal(t, "u1", m["createdBy"])
}

func TestUserPasswordHashNotSerialised(t *testing.T) {
	raw, err := json.Marshal(User{ID: "u1", Username: "ada", PasswordHash: "$2a$..."})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "$2a$")
}
