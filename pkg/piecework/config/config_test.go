package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/randalmurphal/piecework/pkg/piecework/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString(t *testing.T) {
	tests := []struct {
		name string
		data map[string]any
		want string
	}{
		{"key exists", map[string]any{"faultStore": "faults.db"}, "faults.db"},
		{"key missing", map[string]any{"other": "value"}, "default"},
		{"empty string", map[string]any{"faultStore": ""}, ""},
		{"wrong type", map[string]any{"faultStore": 123}, "default"},
		{"nil map", nil, "default"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, config.New(tt.data).String("faultStore", "default"))
		})
	}
}

func TestBool(t *testing.T) {
	cfg := config.New(map[string]any{"on": true, "off": false, "text": "true"})

	assert.True(t, cfg.Bool("on", false))
	assert.False(t, cfg.Bool("off", true))
	assert.False(t, cfg.Bool("text", false), "strings are not coerced")
	assert.True(t, cfg.Bool("missing", true))
}

func TestStringSlice(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"string slice", []string{"!", "?"}, []string{"!", "?"}},
		{"any slice", []any{"!", "p."}, []string{"!", "p."}},
		{"single string", "!", []string{"!"}},
		{"empty list", []any{}, []string{}},
		{"mixed any slice", []any{"!", 1}, []string{"default"}},
		{"wrong type", 12, []string{"default"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.New(map[string]any{"k": tt.value})
			assert.Equal(t, tt.want, cfg.StringSlice("k", []string{"default"}))
		})
	}
}

func TestHasAndRaw(t *testing.T) {
	cfg := config.New(map[string]any{"prefix": "!"})
	assert.True(t, cfg.Has("prefix"))
	assert.False(t, cfg.Has("owners"))
	assert.Equal(t, "!", cfg.Raw()["prefix"])
}

func TestDecode(t *testing.T) {
	var v struct {
		Prefix string `yaml:"prefix" json:"prefix"`
	}

	require.NoError(t, config.Decode("bot.YML", []byte("prefix: \"!\"\n"), &v))
	assert.Equal(t, "!", v.Prefix)

	require.NoError(t, config.Decode("bot.json", []byte(`{"prefix": "?"}`), &v))
	assert.Equal(t, "?", v.Prefix)

	err := config.Decode("bot.yaml", []byte("prefix: [unterminated"), &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse yaml")

	err = config.Decode("bot.json", []byte("{"), &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse json")

	err = config.Decode("bot.toml", nil, &v)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file extension")
}

func TestFromFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "bot.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("prefix: \"!\"\nowners: [\"1\"]\n"), 0o644))

	jsonPath := filepath.Join(dir, "bot.JSON")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"prefix": ["p.", "p!"]}`), 0o644))

	cfg, err := config.FromFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"!"}, cfg.StringSlice("prefix", nil))
	assert.Equal(t, []string{"1"}, cfg.StringSlice("owners", nil))

	cfg, err = config.FromFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"p.", "p!"}, cfg.StringSlice("prefix", nil))

	_, err = config.FromFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestFromFile_EmptyDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := config.FromFile(path)
	require.NoError(t, err)
	assert.False(t, cfg.Has("prefix"))
}
