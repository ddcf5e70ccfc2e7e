package shared

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestFormatDurationMS(t *testing.T) {
	tc := []struct {
		name string
		ms   *int
		want string
	}{
		{name: "nil", ms: nil, want: "--:--"},
		{name: "zero", ms: IntPtr(0), want: "0:00"},
		{name: "under a minute", ms: IntPtr(59_999), want: "0:59"},
		{name: "several minutes", ms: IntPtr(215_000), want: "3:35"},
		{name: "negative", ms: IntPtr(-1), want: "--:--"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDurationMS(tt.ms); got != tt.want {
				t.Errorf("FormatDurationMS() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	if got := ParseLogLevel("debug"); got != log.DebugLevel {
		t.Errorf("expected debug level, got %v", got)
	}
	if got := ParseLogLevel(""); got != log.InfoLevel {
		t.Errorf("expected info level for empty name, got %v", got)
	}
	if got := ParseLogLevel("loud"); got != log.InfoLevel {
		t.Errorf("expected info level for unknown name, got %v", got)
	}
}

func TestLoggers(t *testing.T) {
	t.Run("NewLogger writes to the given writer", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "component", "test")
		logger.Info("hello")

		if !strings.Contains(buf.String(), "component=test") {
			t.Errorf("expected scoped key in output, got %q", buf.String())
		}
	})

	t.Run("NewFileLogger creates parent directories", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "tui.log")
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Info("written")
	})
}

func TestRemoteError(t *testing.T) {
	cause := errors.New("connection refused")
	err := fmt.Errorf("list playlists: %w", &RemoteError{Kind: ErrNetwork, Err: cause})

	if !errors.Is(err, ErrNetwork) {
		t.Error("expected errors.Is to match the kind")
	}
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to match the cause")
	}
	if errors.Is(err, ErrAuthorization) {
		t.Error("did not expect a different kind to match")
	}

	rejected := &RemoteError{Kind: ErrRemoteRejection, Status: 404, Message: "Playlist not found"}
	if got := rejected.Error(); !strings.Contains(got, "status 404") || !strings.Contains(got, "Playlist not found") {
		t.Errorf("unexpected error text %q", got)
	}
}

func TestDisplayMessage(t *testing.T) {
	withMessage := &RemoteError{Kind: ErrAuth, Message: "Email already registered"}
	if got := DisplayMessage(fmt.Errorf("wrapped: %w", withMessage), "Registration failed"); got != "Email already registered" {
		t.Errorf("expected remote message, got %q", got)
	}

	withoutMessage := &RemoteError{Kind: ErrAuth}
	if got := DisplayMessage(withoutMessage, "Login failed"); got != "Login failed" {
		t.Errorf("expected fallback, got %q", got)
	}

	if got := DisplayMessage(errors.New("plain"), "Login failed"); got != "Login failed" {
		t.Errorf("expected fallback for plain errors, got %q", got)
	}
}

func TestOpenBrowserRejectsNonWebURLs(t *testing.T) {
	for _, u := range []string{"file:///etc/passwd", "javascript:alert(1)", "::"} {
		if err := OpenBrowser(u); !errors.Is(err, ErrInvalidArgument) {
			t.Errorf("OpenBrowser(%q) expected ErrInvalidArgument, got %v", u, err)
		}
	}
}

func TestOpenBrowserPassesWebURLs(t *testing.T) {
	var opened string
	orig := openURL
	openURL = func(u string) error { opened = u; return nil }
	t.Cleanup(func() { openURL = orig })

	if err := OpenBrowser("https://p.scdn.co/mp3-preview/abc"); err != nil {
		t.Fatalf("OpenBrowser failed: %v", err)
	}
	if opened != "https://p.scdn.co/mp3-preview/abc" {
		t.Errorf("expected the preview url to be opened, got %q", opened)
	}
}
