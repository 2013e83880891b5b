package sentinel

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Reboot.txt")

	require.NoError(t, Ensure(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultContent, string(data))

	// Ensure never overwrites an existing (possibly armed) sentinel.
	armed := strings.Replace(DefaultContent, "– Reboot", "Reboot", 1)
	require.NoError(t, os.WriteFile(path, []byte(armed), 0644))
	require.NoError(t, Ensure(path))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, armed, string(data))
}

func TestIsArmed(t *testing.T) {
	tests := []struct {
		name    string
		content string
		armed   bool
	}{
		{
			name:    "default template is disarmed",
			content: DefaultContent,
			armed:   false,
		},
		{
			name:    "dash removed on second line arms it",
			content: strings.Replace(DefaultContent, "– Reboot", "Reboot", 1),
			armed:   true,
		},
		{
			name:    "trigger with surrounding whitespace",
			content: "### instructions ###\n   Reboot  \n",
			armed:   true,
		},
		{
			name:    "dash removed on first line only",
			content: strings.Replace(DefaultContent, "\"–\"", "\"\"", 1),
			armed:   false,
		},
		{
			name:    "single line file",
			content: "Reboot",
			armed:   false,
		},
		{
			name:    "wrong casing",
			content: "### instructions ###\nreboot\n",
			armed:   false,
		},
		{
			name:    "empty file",
			content: "",
			armed:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "Reboot.txt")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			armed, err := IsArmed(path)
			require.NoError(t, err)
			assert.Equal(t, tt.armed, armed)
		})
	}
}

func TestIsArmed_MissingFile(t *testing.T) {
	armed, err := IsArmed(filepath.Join(t.TempDir(), "Reboot.txt"))
	require.NoError(t, err)
	assert.False(t, armed)
}

func TestDisarm_RestoresDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Reboot.txt")
	armed := strings.Replace(DefaultContent, "– Reboot", "Reboot", 1)
	require.NoError(t, os.WriteFile(path, []byte(armed), 0644))

	require.NoError(t, Disarm(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultContent, string(data))

	isArmed, err := IsArmed(path)
	require.NoError(t, err)
	assert.False(t, isArmed)
}
