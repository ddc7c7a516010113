package commands_test

import (
	"bytes"
	"context"
	"testing"

	"taskdesk/internal/auth"
	"taskdesk/internal/commands"
	"taskdesk/internal/config"
	"taskdesk/internal/exitcode"
)

// TestLoginCommand_NoTokenNoSecret verifies login fails without anything to store.
func TestLoginCommand_NoTokenNoSecret(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.AuthError {
		t.Errorf("expected exit code %d, got %d", exitcode.AuthError, code)
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout, got %q", outBuf.String())
	}
	if errBuf.String() == "" {
		t.Error("expected an error message")
	}
	if cfg.HasToken() {
		t.Error("expected no token to be written")
	}
}

// TestLoginCommand_StoresGivenToken verifies --token is saved verbatim.
func TestLoginCommand_StoresGivenToken(t *testing.T) {
	cmd := &commands.LoginCmd{}
	cmd.SetToken("abc.def.ghi")

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected ok, got %q", outBuf.String())
	}

	token, err := cfg.LoadToken()
	if err != nil {
		t.Fatalf("load token: %v", err)
	}
	if token == nil || token.AccessToken != "abc.def.ghi" {
		t.Errorf("unexpected stored token %+v", token)
	}
}

// TestLoginCommand_MintsFromSecret verifies the minted token verifies against the secret.
func TestLoginCommand_MintsFromSecret(t *testing.T) {
	cmd := &commands.LoginCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir(), JWTSecret: "s3cret", Quiet: true}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d: %s", exitcode.Success, code, errBuf.String())
	}
	if outBuf.String() != "" {
		t.Errorf("expected no stdout in quiet mode, got %q", outBuf.String())
	}

	token, err := cfg.LoadToken()
	if err != nil || token == nil {
		t.Fatalf("load token: %v", err)
	}
	if token.Expiry.IsZero() {
		t.Error("expected minted token to carry an expiry")
	}
	claims, err := auth.Verify("s3cret", token.AccessToken)
	if err != nil {
		t.Fatalf("minted token does not verify: %v", err)
	}
	if claims.Subject != "taskdesk-cli" {
		t.Errorf("expected default subject, got %q", claims.Subject)
	}
}

// TestLogoutCommand_NotLoggedIn verifies logout succeeds with nothing to remove.
func TestLogoutCommand_NotLoggedIn(t *testing.T) {
	cmd := &commands.LogoutCmd{}

	var outBuf, errBuf bytes.Buffer
	cfg := &config.Config{Dir: t.TempDir()}

	code := cmd.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "not logged in\n" {
		t.Errorf("expected 'not logged in', got %q", outBuf.String())
	}
}

// TestLogoutCommand_RemovesToken verifies logout deletes token.json.
func TestLogoutCommand_RemovesToken(t *testing.T) {
	cfg := &config.Config{Dir: t.TempDir()}

	login := &commands.LoginCmd{}
	login.SetToken("abc")
	var outBuf, errBuf bytes.Buffer
	if code := login.Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf); code != exitcode.Success {
		t.Fatalf("login failed: %s", errBuf.String())
	}

	outBuf.Reset()
	code := (&commands.LogoutCmd{}).Run(context.Background(), cfg, nil, nil, &outBuf, &errBuf)

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if outBuf.String() != "ok\n" {
		t.Errorf("expected ok, got %q", outBuf.String())
	}
	if cfg.HasToken() {
		t.Error("expected token.json to be removed")
	}
}
