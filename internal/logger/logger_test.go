package logger

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// captureStderr redirects os.Stderr for the duration of fn.
// All constructors write to stderr so stdout stays free for app output.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()

	orig := os.Stderr
	defer func() { os.Stderr = orig }()

	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stderr = w

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(out)
}

func Test_parseLevel(t *testing.T) {
	valid := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"DEBUG": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"Info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"ERROR": slog.LevelError,
	}
	for input, want := range valid {
		got, err := parseLevel(input)

		require.NoErrorf(t, err, "parseLevel(%q)", input)
		require.Equalf(t, want, got, "parseLevel(%q)", input)
	}

	for _, input := range []string{"", "trace", "uknown"} {
		_, err := parseLevel(input)
		require.Errorf(t, err, "parseLevel(%q) should fail", input)
	}
}

func Test_New(t *testing.T) {
	t.Run("dev is text", func(t *testing.T) {
		out := captureStderr(t, func() {
			l, err := New(EnvDevelopment, LevelInfo)
			require.NoError(t, err)

			l.Info("started", "addr", "localhost:8000")
		})

		require.Contains(t, out, "started")
		require.Contains(t, out, "addr=localhost:8000")
	})

	t.Run("prod is json", func(t *testing.T) {
		out := captureStderr(t, func() {
			l, err := New(EnvProduction, LevelInfo)
			require.NoError(t, err)

			l.Info("started", "addr", "localhost:8000")
		})

		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &entry))
		require.Equal(t, "started", entry["msg"])
		require.Equal(t, "localhost:8000", entry["addr"])
	})

	t.Run("unknown environment", func(t *testing.T) {
		_, err := New("staging", LevelInfo)
		require.Error(t, err)
	})

	t.Run("bad level", func(t *testing.T) {
		_, err := New(EnvProduction, "loud")
		require.Error(t, err)
	})
}

func Test_LevelFiltering(t *testing.T) {
	emit := map[string]func(Logger){
		LevelDebug: func(l Logger) { l.Debug("m") },
		LevelInfo:  func(l Logger) { l.Info("m") },
		LevelWarn:  func(l Logger) { l.Warn("m") },
		LevelError: func(l Logger) { l.Error("m") },
	}
	rank := map[string]int{LevelDebug: 0, LevelInfo: 1, LevelWarn: 2, LevelError: 3}

	for loggerLevel := range rank {
		for msgLevel, logFn := range emit {
			out := captureStderr(t, func() {
				l, err := NewTextLogger(loggerLevel)
				require.NoError(t, err)

				logFn(l)
			})

			wantLogged := rank[msgLevel] >= rank[loggerLevel]
			require.Equalf(t, wantLogged, len(out) > 0,
				"logger at %s, message at %s", loggerLevel, msgLevel)
		}
	}
}

func Test_NoOpLogger(t *testing.T) {
	out := captureStderr(t, func() {
		l := NewNoOpLogger()
		l.Debug("m")
		l.Info("m")
		l.Warn("m")
		l.Error("m")
	})

	require.Empty(t, out, "no-op logger must stay silent")
}

func Test_With(t *testing.T) {
	out := captureStderr(t, func() {
		l, err := NewTextLogger(LevelInfo)
		require.NoError(t, err)

		l.With("component", "sessions").Info("rotated")
	})

	require.Contains(t, out, "component=sessions")
	require.Contains(t, out, "rotated")
}
