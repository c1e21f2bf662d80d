package agent

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistry(t *testing.T) {
	r, err := NewRegistry(
		Agent{Name: "A", Model: "m1"},
		Agent{Name: "B", Model: "m2", Provider: ProviderAnthropic},
	)
	require.NoError(t, err)

	a, ok := r.Get("A")
	require.True(t, ok)
	assert.Equal(t, ProviderOpenAI, a.Provider, "empty provider defaults to openai")

	b, ok := r.Get("B")
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, b.Provider)

	_, ok = r.Get("C")
	assert.False(t, ok)

	assert.Equal(t, []string{"A", "B"}, r.Names())
	assert.Equal(t, 2, r.Len())
}

func TestNewRegistryRejectsInvalid(t *testing.T) {
	_, err := NewRegistry()
	assert.Error(t, err)

	_, err = NewRegistry(Agent{Name: "", Model: "m"})
	assert.Error(t, err)

	_, err = NewRegistry(Agent{Name: "A", Model: ""})
	assert.Error(t, err)

	_, err = NewRegistry(Agent{Name: "A", Model: "m"}, Agent{Name: "A", Model: "m"})
	assert.Error(t, err)
}

func TestGetOrDefault(t *testing.T) {
	r, err := NewRegistry(Agent{Name: "First", Model: "m1"}, Agent{Name: "Second", Model: "m2"})
	require.NoError(t, err)

	assert.Equal(t, "Second", r.GetOrDefault("Second").Name)
	assert.Equal(t, "First", r.GetOrDefault("").Name)
	assert.Equal(t, "First", r.GetOrDefault("missing").Name)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "agents.toml")
	content := `
[[agents]]
name = "Tech Lead"
model = "Claude-Sonnet-4.5"
instruction = "You are an engineering director."
color = "#059669"

[[agents]]
name = "Claude"
model = "claude-sonnet-4-5"
provider = "anthropic"
instruction = "You are Claude."
color = "#A855F7"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	r, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	claude, ok := r.Get("Claude")
	require.True(t, ok)
	assert.Equal(t, ProviderAnthropic, claude.Provider)
	assert.Equal(t, "claude-sonnet-4-5", claude.Model)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("not [valid toml"), 0o600))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestDefaultRegistry(t *testing.T) {
	r := Default()
	assert.GreaterOrEqual(t, r.Len(), 2)
	assert.Equal(t, "Assistant", r.GetOrDefault("").Name)
	for _, name := range r.Names() {
		a, ok := r.Get(name)
		require.True(t, ok)
		assert.NotEmpty(t, a.Model)
		assert.NotEmpty(t, a.Instruction)
	}
}
