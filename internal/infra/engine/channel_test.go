package engine

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unquote is a reference parser for the quoting scheme: it strips the
// surrounding quotes and resolves backslash escapes.
func unquote(t *testing.T, s string) string {
	t.Helper()
	require.True(t, strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`), "not quoted: %s", s)
	inner := s[1 : len(s)-1]

	var b strings.Builder
	escaped := false
	for _, r := range inner {
		if escaped {
			b.WriteRune(r)
			escaped = false
			continue
		}
		if r == '\\' {
			escaped = true
			continue
		}
		b.WriteRune(r)
	}
	require.False(t, escaped, "dangling escape in %s", s)
	return b.String()
}

func TestQuote_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "plain", path: "/music/a.mp3"},
		{name: "spaces", path: "/music/my favorite book.mp3"},
		{name: "double quotes", path: `/music/the "best" one.mp3`},
		{name: "backslashes", path: `/music/weird\name.mp3`},
		{name: "quotes and backslashes", path: `/music/\"tricky\".mp3`},
		{name: "empty", path: ""},
		{name: "unicode", path: "/music/hörbuch – kapitel 1.mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.path, unquote(t, Quote(tt.path)))
		})
	}
}

func TestChannel_CommandFormat(t *testing.T) {
	tests := []struct {
		name string
		send func(c *Channel) error
		want string
	}{
		{
			name: "loadlist replace",
			send: func(c *Channel) error { return c.LoadList("/run/playlist.txt", false) },
			want: `loadlist "/run/playlist.txt" 0`,
		},
		{
			name: "loadlist append",
			send: func(c *Channel) error { return c.LoadList("/run/playlist.txt", true) },
			want: `loadlist "/run/playlist.txt" 1`,
		},
		{
			name: "loadfile with spaces",
			send: func(c *Channel) error { return c.LoadFile("/books/chapter one.mp3", false) },
			want: `loadfile "/books/chapter one.mp3" 0`,
		},
		{
			name: "pause toggle",
			send: func(c *Channel) error { return c.PauseToggle() },
			want: "pause",
		},
		{
			name: "stop",
			send: func(c *Channel) error { return c.Stop() },
			want: "stop",
		},
		{
			name: "step forward",
			send: func(c *Channel) error { return c.Step(1) },
			want: "pt_step +1",
		},
		{
			name: "step backward",
			send: func(c *Channel) error { return c.Step(-1) },
			want: "pt_step -1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			endpoint := filepath.Join(t.TempDir(), "engine.cmd")
			require.NoError(t, os.WriteFile(endpoint, nil, 0644))

			c := New(endpoint, time.Second)
			require.NoError(t, tt.send(c))

			data, err := os.ReadFile(endpoint)
			require.NoError(t, err)
			assert.Equal(t, tt.want+"\n", string(data))
		})
	}
}

func TestChannel_MissingEndpoint(t *testing.T) {
	c := New(filepath.Join(t.TempDir(), "missing.fifo"), time.Second)

	err := c.PauseToggle()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoEndpoint)
}

func TestChannel_MultipleCommandsAppend(t *testing.T) {
	endpoint := filepath.Join(t.TempDir(), "engine.cmd")
	require.NoError(t, os.WriteFile(endpoint, nil, 0644))

	c := New(endpoint, time.Second)
	require.NoError(t, c.PauseToggle())
	require.NoError(t, c.Step(1))

	data, err := os.ReadFile(endpoint)
	require.NoError(t, err)
	assert.Equal(t, "pause\npt_step +1\n", string(data))
}

func TestChannel_WaitForEndpoint(t *testing.T) {
	dir := t.TempDir()
	endpoint := filepath.Join(dir, "engine.fifo")
	c := New(endpoint, time.Second)

	t.Run("already present", func(t *testing.T) {
		require.NoError(t, os.WriteFile(endpoint, nil, 0644))
		defer os.Remove(endpoint)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		assert.NoError(t, c.WaitForEndpoint(ctx))
	})

	t.Run("appears later", func(t *testing.T) {
		done := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			done <- c.WaitForEndpoint(ctx)
		}()

		time.Sleep(100 * time.Millisecond)
		require.NoError(t, os.WriteFile(endpoint, nil, 0644))
		defer os.Remove(endpoint)

		assert.NoError(t, <-done)
	})

	t.Run("context expires", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		assert.Error(t, c.WaitForEndpoint(ctx))
	})
}
