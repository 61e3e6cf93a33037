package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandReference(t *testing.T) {
	env := map[string]string{
		"NOTION_API_TOKEN": "secret_abc",
		"EMPTY":            "",
	}

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"whole value reference", "{NOTION_API_TOKEN}", "secret_abc"},
		{"surrounding whitespace", "  {NOTION_API_TOKEN} ", "secret_abc"},
		{"unset variable resolves empty", "{MISSING_VAR}", ""},
		{"set but empty", "{EMPTY}", ""},
		{"embedded reference untouched", "Bearer {NOTION_API_TOKEN}", "Bearer {NOTION_API_TOKEN}"},
		{"plain value", "deepseek-chat", "deepseek-chat"},
		{"braces in prose", "{not a ref}", "{not a ref}"},
		{"empty string", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandReference(tt.input, env))
		})
	}
}

func TestExpandEnvReferences_Struct(t *testing.T) {
	type inner struct {
		Key    string
		Output []string
		Count  int
	}
	type outer struct {
		Token  string
		Nested inner
		label  string
	}

	target := &outer{
		Token:  "{TOKEN}",
		Nested: inner{Key: "{KEY}", Output: []string{"stdout", "{SINK}"}, Count: 3},
		label:  "{TOKEN}",
	}
	env := map[string]string{"TOKEN": "t-1", "KEY": "k-1", "SINK": "file"}

	require.NoError(t, ExpandEnvReferences(target, env))

	assert.Equal(t, "t-1", target.Token)
	assert.Equal(t, "k-1", target.Nested.Key)
	assert.Equal(t, []string{"stdout", "file"}, target.Nested.Output)
	assert.Equal(t, 3, target.Nested.Count)
	assert.Equal(t, "{TOKEN}", target.label, "unexported fields are left alone")
}

func TestExpandEnvReferences_RejectsNonPointer(t *testing.T) {
	type cfg struct{ Value string }

	assert.Error(t, ExpandEnvReferences(cfg{}, nil))
	assert.Error(t, ExpandEnvReferences((*cfg)(nil), nil))

	s := "x"
	assert.Error(t, ExpandEnvReferences(&s, nil))
}

func TestEnvironMap(t *testing.T) {
	t.Setenv("NOTIONDIGEST_TEST_VALUE", "a=b")

	env := EnvironMap()
	assert.Equal(t, "a=b", env["NOTIONDIGEST_TEST_VALUE"])
}
