package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mudler/x-mcp/internal/config"
	"github.com/mudler/x-mcp/internal/oauth"
	"github.com/mudler/x-mcp/internal/tools"
	"github.com/mudler/x-mcp/internal/xapi"
)

const (
	serverName    = "x"
	serverVersion = "v1.0.0"
)

// newLogger builds the process logger. stdout carries JSON-RPC, so logs go to
// stderr or a file, and nowhere unless debugging or a log file is configured.
func newLogger(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	if !cfg.Debug && cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), nopCloser{}, nil
	}

	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}

	var (
		w      io.Writer = os.Stderr
		closer io.Closer = nopCloser{}
	)
	if cfg.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		w, closer = f, f
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func newAuthorizer(cfg *config.Config) (xapi.Authorizer, error) {
	switch cfg.AuthMode {
	case config.AuthOAuth1:
		signer, err := oauth.NewSigner(cfg.Credentials)
		if err != nil {
			return nil, err
		}
		return xapi.NewOAuth1Authorizer(signer), nil
	case config.AuthBearer:
		return xapi.NewBearerAuthorizer(cfg.BearerToken), nil
	default:
		return nil, &config.ConfigurationError{Reason: fmt.Sprintf("unsupported auth mode %q", cfg.AuthMode)}
	}
}

// newServer wires the configuration into an MCP server with every tool
// registered.
func newServer(cfg *config.Config, logger *slog.Logger) (*mcp.Server, error) {
	auth, err := newAuthorizer(cfg)
	if err != nil {
		return nil, err
	}
	client := xapi.New(auth,
		xapi.WithBaseURL(cfg.APIBaseURL),
		xapi.WithTimeout(cfg.HTTPTimeout),
		xapi.WithReadOnly(cfg.ReadOnly),
		xapi.WithLogger(logger.With("component", "xapi")),
	)

	server := mcp.NewServer(&mcp.Implementation{Name: serverName, Version: serverVersion}, &mcp.ServerOptions{
		Logger: logger.With("component", "mcp"),
	})
	if err := tools.NewDispatcher(client, logger.With("component", "tools")).Register(server); err != nil {
		return nil, err
	}

	logger.Info("x mcp server configured",
		"auth_mode", auth.Mode(),
		"user_context", auth.UserContext(),
		"read_only", cfg.ReadOnly,
		"post_enabled", client.CanWrite(),
		"api_base_url", cfg.APIBaseURL,
		"timeout", cfg.HTTPTimeout,
	)
	switch {
	case cfg.ReadOnly:
		logger.Warn("read-only mode; post_tweet is disabled")
	case !auth.UserContext():
		logger.Warn("running with an app-only bearer token; post_tweet will fail without OAuth 1.0a credentials")
	}
	return server, nil
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, closer, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closer.Close()

	server, err := newServer(cfg, logger)
	if err != nil {
		return err
	}
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
		logger.Error("server stopped", "error", err)
		return err
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "x MCP:", err)
		stop()
		os.Exit(1)
	}
}
