// Package app bootstraps the VidVault command line client: configuration,
// logging, dependency wiring, and command dispatch.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vidvault/client/internal/config"
	"github.com/vidvault/client/internal/logging"
	"github.com/vidvault/client/internal/session"
)

// Run bootstraps the VidVault client and executes one command.
func Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errors.New("expected command: signup, login, logout, whoami, status, videos, or play")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	slog.SetDefault(logger)
	ctx = logging.WithLogger(ctx, logger)

	deps, err := buildDependencies(cfg)
	if err != nil {
		return err
	}

	return dispatch(ctx, deps, args, os.Stdout)
}

func newLogger(cfg config.Config) *slog.Logger {
	var out io.Writer = os.Stderr
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func dispatch(ctx context.Context, deps Dependencies, args []string, out io.Writer) error {
	ctx, span := logging.StartSpan(ctx, "command."+args[0])
	defer span.End()

	switch args[0] {
	case "signup":
		return runSignup(ctx, deps, args[1:], out)
	case "login":
		return runLogin(ctx, deps, args[1:], out)
	case "logout":
		return runLogout(ctx, deps, out)
	case "whoami":
		return runWhoami(ctx, deps, out)
	case "status":
		return runStatus(ctx, deps, out)
	case "videos":
		return runVideos(ctx, deps, out)
	case "play":
		return runPlay(ctx, deps, args[1:], out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func runSignup(ctx context.Context, deps Dependencies, args []string, out io.Writer) error {
	if len(args) < 2 || len(args) > 3 {
		return errors.New("usage: signup <email> <password> [confirm-password]")
	}
	// The only client-side validation: everything else is the backend's call.
	if len(args) == 3 && args[1] != args[2] {
		return errors.New("passwords do not match")
	}

	profile, err := deps.API.Signup(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "account created for %s (id %s)\n", profile.Email, profile.ID)
	fmt.Fprintln(out, "run login to start a session")
	return nil
}

func runLogin(ctx context.Context, deps Dependencies, args []string, out io.Writer) error {
	if len(args) != 2 {
		return errors.New("usage: login <email> <password>")
	}

	profile, err := deps.Sessions.Login(ctx, args[0], args[1])
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "logged in as %s\n", profile.Email)
	return nil
}

func runLogout(ctx context.Context, deps Dependencies, out io.Writer) error {
	deps.Sessions.Restore(ctx)
	deps.Sessions.Logout(ctx)
	fmt.Fprintln(out, "logged out")
	return nil
}

func runWhoami(ctx context.Context, deps Dependencies, out io.Writer) error {
	snap, err := requireSession(ctx, deps)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s (id %s)\n", snap.Profile.Email, snap.Profile.ID)
	if snap.Profile.Name != "" {
		fmt.Fprintf(out, "name: %s\n", snap.Profile.Name)
	}
	return nil
}

func runStatus(ctx context.Context, deps Dependencies, out io.Writer) error {
	snap := deps.Sessions.Restore(ctx)

	fmt.Fprintf(out, "session: %s\n", snap.Status)
	if snap.Status == session.StatusAuthenticated {
		fmt.Fprintf(out, "user: %s\n", snap.Profile.Email)
	}
	if snap.Err != nil {
		fmt.Fprintf(out, "last error: %v\n", snap.Err)
	}
	return nil
}

func runVideos(ctx context.Context, deps Dependencies, out io.Writer) error {
	if _, err := requireSession(ctx, deps); err != nil {
		return err
	}

	videos, err := deps.API.Dashboard(ctx)
	if err != nil {
		deps.Sessions.HandleError(ctx, err)
		return err
	}

	if len(videos) == 0 {
		fmt.Fprintln(out, "no videos available")
		return nil
	}
	for _, v := range videos {
		fmt.Fprintf(out, "%s\t%s\n", v.ID, v.Title)
	}
	return nil
}

func runPlay(ctx context.Context, deps Dependencies, args []string, out io.Writer) error {
	if len(args) != 1 {
		return errors.New("usage: play <video-id>")
	}

	snap, err := requireSession(ctx, deps)
	if err != nil {
		return err
	}

	videos, err := deps.API.Dashboard(ctx)
	if err != nil {
		deps.Sessions.HandleError(ctx, err)
		return err
	}

	for _, v := range videos {
		if v.ID != args[0] {
			continue
		}
		link := deps.Links.Build(v.ID, v.PlaybackToken, snap.Profile.ID)
		if _, err := deps.Surface.Load(ctx, link); err != nil {
			deps.Sessions.HandleError(ctx, err)
			return fmt.Errorf("load embed page: %w", err)
		}
		fmt.Fprintln(out, link.URL)
		return nil
	}
	return fmt.Errorf("video %q is not on your dashboard", args[0])
}

func requireSession(ctx context.Context, deps Dependencies) (session.Snapshot, error) {
	snap := deps.Sessions.Restore(ctx)
	if snap.Status != session.StatusAuthenticated {
		if snap.Err != nil {
			return snap, fmt.Errorf("not logged in: %w", snap.Err)
		}
		return snap, errors.New("not logged in, run login first")
	}
	return snap, nil
}
