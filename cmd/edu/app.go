package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/licomnaklavy/edu-platform/internal/config"
	"github.com/licomnaklavy/edu-platform/internal/gateway"
	"github.com/licomnaklavy/edu-platform/internal/guard"
	"github.com/licomnaklavy/edu-platform/internal/nav"
	"github.com/licomnaklavy/edu-platform/internal/session"
	"github.com/licomnaklavy/edu-platform/internal/storage/local"
)

// app bundles the pieces every command needs. Each CLI invocation is a fresh
// process, so this is rebuilt per command, like a page load: the session is
// read back from disk and the guard decides what the "page" may do.
type app struct {
	cfg      *config.LocalConfig
	sessions *session.Store
	guard    *guard.Guard
}

func newApp() (*app, error) {
	eduDir, err := config.EnsureEduDir()
	if err != nil {
		return nil, fmt.Errorf("ensure edu dir: %w", err)
	}

	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	})))

	backend, err := local.NewStore(filepath.Join(eduDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("open session state: %w", err)
	}
	sessions := session.NewStore(backend)

	api := gateway.New(gateway.Config{
		BaseURL:   cfg.Server.URL,
		Sessions:  sessions,
		Navigator: nav.Func(announceRedirect),
		HTTPClient: &http.Client{
			Timeout: time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
		},
	})

	return &app{
		cfg:      cfg,
		sessions: sessions,
		guard:    guard.New(sessions, api, nil),
	}, nil
}

// announceRedirect translates a forced navigation into terminal output. In a
// CLI there is no page to swap out, so the redirect becomes an instruction.
func announceRedirect(target nav.Page) {
	switch target {
	case nav.PageLogin:
		fmt.Fprintln(os.Stderr, "Session expired. Run 'edu login' to sign in again.")
	default:
		fmt.Fprintf(os.Stderr, "Continue at: %s\n", target)
	}
}

// followIntent applies a guard outcome to a protected command. A render
// intent lets the command proceed; a redirect ends it with a pointer to the
// right command instead.
func followIntent(o guard.Outcome) error {
	if o.Err != nil {
		return o.Err
	}
	if o.Intent.Action == guard.ActionRedirect {
		return fmt.Errorf("not signed in (run 'edu login' first)")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

func prompt(label string) (string, error) {
	fmt.Printf("%s: ", label)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func promptRequired(label string) (string, error) {
	value, err := prompt(label)
	if err != nil {
		return "", err
	}
	if value == "" {
		return "", fmt.Errorf("%s is required", strings.ToLower(label))
	}
	return value, nil
}
