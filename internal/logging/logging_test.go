package logging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_WritesToFileAndRedacts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "glucobar.log")

	logger, cleanup, err := New(&Config{Level: "debug", Format: "json", File: path, StderrMode: "off"})
	require.NoError(t, err)

	logger.Info("login", slog.String("username", "alice"), slog.String("password", "hunter2"))
	require.NoError(t, cleanup())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, `"username":"alice"`)
	assert.Contains(t, out, redactedValue)
	assert.False(t, strings.Contains(out, "hunter2"), "password leaked into log")
}

func TestNew_InvalidSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"bad level", Config{Level: "loud"}},
		{"bad format", Config{Format: "xml"}},
		{"bad stderr mode", Config{StderrMode: "sometimes"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := New(&tt.cfg)
			assert.Error(t, err)
		})
	}
}

func TestStderrEnabled(t *testing.T) {
	tests := []struct {
		mode string
		tty  bool
		want bool
	}{
		{"", true, true},
		{"auto", false, false},
		{"on", false, true},
		{"off", true, false},
	}

	for _, tt := range tests {
		got, err := stderrEnabled(tt.mode, tt.tty)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "mode=%q tty=%v", tt.mode, tt.tty)
	}
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	logger := Discard()
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
