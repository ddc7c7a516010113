package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"taskdesk/internal/auth"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
	"taskdesk/internal/service"
)

// DefaultTokenTTL is the lifetime of tokens minted by login.
const DefaultTokenTTL = 30 * 24 * time.Hour

func init() {
	Register(&LoginCmd{})
	Register(&LogoutCmd{})
}

// LoginCmd stores a bearer token for the API client.
// The token is either passed with --token or minted from the backend's
// JWT secret (--secret or TASKDESK_JWT_SECRET).
type LoginCmd struct {
	token   string
	secret  string
	subject string
	ttl     time.Duration
}

// SetToken sets the token to store (for testing).
func (c *LoginCmd) SetToken(token string) { c.token = token }

// SetSecret sets the signing secret (for testing).
func (c *LoginCmd) SetSecret(secret string) { c.secret = secret }

func (c *LoginCmd) Name() string       { return "login" }
func (c *LoginCmd) Aliases() []string  { return nil }
func (c *LoginCmd) Synopsis() string   { return "Store a bearer token for the API" }
func (c *LoginCmd) Usage() string      { return "taskdesk login [--token <jwt> | --secret <secret>] [--subject <name>]" }
func (c *LoginCmd) NeedsService() bool { return false }

func (c *LoginCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.token, "token", "", "")
	fs.StringVar(&c.secret, "secret", "", "")
	fs.StringVar(&c.subject, "subject", "", "")
	fs.DurationVar(&c.ttl, "ttl", DefaultTokenTTL, "")
}

func (c *LoginCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if len(args) > 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	token := &oauth2.Token{AccessToken: strings.TrimSpace(c.token), TokenType: "Bearer"}
	if token.AccessToken == "" {
		secret := c.secret
		if secret == "" {
			secret = cfg.JWTSecret
		}
		if secret == "" {
			fmt.Fprintln(errOut, "error: no token given and no secret to mint one (use --token or --secret)")
			return exitcode.AuthError
		}

		subject := c.subject
		if subject == "" {
			subject = "taskdesk-cli"
		}
		ttl := c.ttl
		if ttl <= 0 {
			ttl = DefaultTokenTTL
		}

		now := time.Now()
		signed, err := auth.Mint(secret, subject, ttl, now)
		if err != nil {
			fmt.Fprintf(errOut, "error: failed to mint token: %v\n", err)
			return exitcode.AuthError
		}
		token.AccessToken = signed
		token.Expiry = now.Add(ttl)
	}

	if err := cfg.SaveToken(token); err != nil {
		fmt.Fprintf(errOut, "error: failed to save token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}

// LogoutCmd implements the logout command.
type LogoutCmd struct{}

func (c *LogoutCmd) Name() string       { return "logout" }
func (c *LogoutCmd) Aliases() []string  { return nil }
func (c *LogoutCmd) Synopsis() string   { return "Remove the stored token" }
func (c *LogoutCmd) Usage() string      { return "taskdesk logout" }
func (c *LogoutCmd) NeedsService() bool { return false }

func (c *LogoutCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *LogoutCmd) Run(ctx context.Context, cfg *config.Config, svc service.Service, args []string, out, errOut io.Writer) int {
	if !cfg.HasToken() {
		if !cfg.Quiet {
			fmt.Fprintln(out, "not logged in")
		}
		return exitcode.Success
	}

	if err := cfg.RemoveToken(); err != nil {
		fmt.Fprintf(errOut, "error: failed to remove token: %v\n", err)
		return exitcode.AuthError
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
