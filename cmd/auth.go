package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nguyentayninh0710/mpx/internal/models"
	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"github.com/urfave/cli/v3"
)

// AuthLogin exchanges an identifier and password for a token pair and caches
// it locally. A fresh login replaces any previous session.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	identifier := cmd.StringArg("identifier")
	password := cmd.String("password")

	if identifier == "" {
		return fmt.Errorf("%w: identifier (username, email or phone)", shared.ErrMissingArgument)
	}
	if password == "" {
		return fmt.Errorf("%w: --password", shared.ErrMissingArgument)
	}

	remember := r.config.Session.Remember
	if cmd.IsSet("remember") {
		remember = cmd.Bool("remember")
	}

	r.logger.Info("signing in", "identifier", identifier, "remember", remember)

	pair, err := r.api.Login(ctx, identifier, password)
	if err != nil {
		return err
	}

	if !remember {
		pair.RefreshToken = ""
		pair.RefreshExpiresAt = 0
	}

	guard, err := r.session()
	if err != nil {
		return err
	}

	store := guard.Store()
	if err := store.Clear(); err != nil {
		r.logger.Warn("failed to clear previous session", "error", err)
	}
	if err := store.SaveTokens(*pair); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	r.writePlain("✓ Signed in as %s\n", identifier)
	if !remember {
		r.writePlain("Session will not renew silently (--remember=false)\n")
	}
	return nil
}

// AuthSignup creates a new account. Signup does not sign the user in.
func (r *Runner) AuthSignup(ctx context.Context, cmd *cli.Command) error {
	req := services.CreateAccountRequest{
		Username: cmd.String("username"),
		Email:    cmd.String("email"),
		Phone:    cmd.String("phone"),
		Password: cmd.String("password"),
	}

	r.logger.Info("creating account", "username", req.Username)

	user, err := r.api.CreateAccount(ctx, req)
	if err != nil {
		return err
	}

	r.writePlain("✓ Account created: %s (id %d)\n", user.Username, user.UserID)
	r.writePlain("Run 'mpx auth login %s --password <password>' to sign in\n", user.Username)
	return nil
}

// AuthWhoami shows the authenticated user's profile. The cached copy is used
// when present unless --refresh forces a fresh fetch.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	guard, err := r.session()
	if err != nil {
		return err
	}

	if !cmd.Bool("refresh") {
		if cached, ok, err := guard.Store().Profile(); err == nil && ok {
			r.logger.Debug("serving cached profile")
			return r.writeProfile(cached, cmd)
		}
	}

	access, err := guard.EnsureAccessToken(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	profile, err := guard.FetchProfile(ctx, access)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrNotAuthenticated, err)
	}

	return r.writeProfile(profile, cmd)
}

func (r *Runner) writeProfile(raw json.RawMessage, cmd *cli.Command) error {
	if cmd.Bool("json") {
		var data any
		if err := json.Unmarshal(raw, &data); err != nil {
			return fmt.Errorf("failed to decode profile: %w", err)
		}
		return r.writeJSON(data, cmd.Bool("pretty"))
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return fmt.Errorf("failed to decode profile: %w", err)
	}

	r.writePlain("✓ Signed in as %s (id %d)\n", user.Username, user.UserID)
	if user.Email != "" {
		r.writePlain("Email: %s\n", user.Email)
	}
	if user.Phone != "" {
		r.writePlain("Phone: %s\n", user.Phone)
	}
	if user.CreatedAt != nil {
		r.writePlain("Member since: %s\n", user.CreatedAt.Format("2006-01-02"))
	}
	return nil
}

// AuthStatus reports the stored token state without touching the network.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	guard, err := r.session()
	if err != nil {
		return err
	}

	pair, err := guard.Store().Tokens()
	if err != nil {
		return fmt.Errorf("failed to read session: %w", err)
	}

	if pair.AccessToken == "" && pair.RefreshToken == "" {
		return r.writePlain("✗ Not signed in\n")
	}

	now := time.Now()
	leeway := r.config.Session.Leeway()

	if pair.AccessValid(now, leeway) {
		expiry := time.Unix(pair.AccessExpiresAt, 0)
		r.writePlain("✓ Access token valid until %s\n", expiry.Format(time.RFC1123))
	} else {
		r.writePlain("✗ Access token expired or expiring within %s\n", leeway)
	}

	switch {
	case pair.RefreshToken == "":
		r.writePlain("✗ No refresh token stored; next expiry requires a new login\n")
	case pair.RefreshValid(now):
		expiry := time.Unix(pair.RefreshExpiresAt, 0)
		r.writePlain("✓ Refresh token valid until %s\n", expiry.Format(time.RFC1123))
	default:
		r.writePlain("✗ Refresh token expired; next expiry requires a new login\n")
	}

	return nil
}

// AuthLogout revokes the session server-side (best effort) and clears all
// local session state.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	guard, err := r.session()
	if err != nil {
		return err
	}

	if err := guard.Logout(ctx); err != nil {
		return err
	}

	return r.writePlain("✓ Signed out\n")
}
