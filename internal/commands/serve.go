package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"strings"

	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/server"
	"taskdesk/internal/service"
	"taskdesk/internal/store"
	"taskdesk/internal/web"
)

func init() {
	Register(&ServeCmd{})
	Register(&ServerCmd{})
}

// ServeCmd runs the browser view against the configured API.
type ServeCmd struct {
	listen string
}

func (c *ServeCmd) Name() string       { return "serve" }
func (c *ServeCmd) Aliases() []string  { return []string{"web"} }
func (c *ServeCmd) Synopsis() string   { return "Run the web interface" }
func (c *ServeCmd) Usage() string      { return "taskdesk serve [--listen <addr>]" }
func (c *ServeCmd) NeedsService() bool { return true }

func (c *ServeCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
}

func (c *ServeCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	addr := listenAddr(c.listen, cfg, config.DefaultWebListen)

	if !cfg.Quiet {
		fmt.Fprintf(out, "serving %s on %s\n", cfg.BaseURL, addr)
	}
	app := web.New(svc, web.Options{Debug: cfg.Debug, LogWriter: errOut})
	if err := app.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

// ServerCmd runs the reference REST backend.
type ServerCmd struct {
	listen string
	db     string
}

func (c *ServerCmd) Name() string       { return "server" }
func (c *ServerCmd) Aliases() []string  { return []string{"api"} }
func (c *ServerCmd) Synopsis() string   { return "Run the task REST API" }
func (c *ServerCmd) Usage() string      { return "taskdesk server [--listen <addr>] [--db <url>]" }
func (c *ServerCmd) NeedsService() bool { return false }

func (c *ServerCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", "", "")
	fs.StringVar(&c.db, "db", "", "")
}

func (c *ServerCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	dbURL := c.db
	if dbURL == "" {
		dbURL = cfg.DatabaseURL
	}
	if dbURL != ":memory:" && !isRemoteDB(dbURL) {
		if err := cfg.EnsureDir(); err != nil {
			fmt.Fprintf(errOut, "error: failed to create config directory: %v\n", err)
			return exitcode.AuthError
		}
	}

	st, err := store.Open(ctx, dbURL)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	defer st.Close()

	addr := listenAddr(c.listen, cfg, config.DefaultAPIListen)
	srv := server.New(st, server.Options{JWTSecret: cfg.JWTSecret})
	if err := srv.ListenAndServe(ctx, addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.BackendError
	}
	return exitcode.Success
}

func listenAddr(flagValue string, cfg *config.Config, fallback string) string {
	if flagValue != "" {
		return flagValue
	}
	if cfg.Listen != "" {
		return cfg.Listen
	}
	return fallback
}

func isRemoteDB(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
