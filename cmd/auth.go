package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/tvx/internal/server"
	"github.com/desertthunder/tvx/internal/shared"
)

const authTimeout = 2 * time.Minute

// Auth performs the OAuth2 authorization code flow for Spotify.
//
// Starts a local HTTP server, opens the browser for user authorization and saves the issued tokens to the config file.
func (r *Runner) Auth(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	if !r.config.Credentials.Spotify.HasCredentials() {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in %s", shared.ErrMissingCredentials, r.configPath)
	}

	svc, err := r.spotifyService()
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(ctx, svc.GetAuthURL, svc.Exchange, !cmd.Bool("no-browser"))
	if err != nil {
		return err
	}

	r.config.Credentials.Spotify.Update(token)
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	svc.SetTokenRefreshCallback(r.saveToken)
	svc.SetToken(ctx, token)

	r.writePlainln("%s", r.palette.OK("✓ Authorization successful"))
	r.writePlain("✓ Tokens saved to %s\n\n", r.configPath)
	r.writePlain("You can now use: tvx scan\n")
	return nil
}

func (r *Runner) doOAuth(ctx context.Context, authURL func(state string) string, exchange server.ExchangeFunc, browse bool) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	oauthHandler := server.NewOAuthHandler(exchange, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	callback, err := server.StartCallbackServer(r.config.Server.Addr(), router)
	if err != nil {
		return nil, err
	}
	r.logger.Infof("started OAuth callback server at %v", callback.Addr())

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := callback.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	url := authURL(state)
	if browse {
		r.writePlain("→ Opening browser for Spotify authorization...\n")
	}
	if !browse || r.openBrowser(url) != nil {
		if browse {
			r.writePlainln("%s", r.palette.Warn("⚠ Could not open browser automatically."))
		}
		r.writePlain("Please open this URL in your browser:\n%s\n\n", url)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(authTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-callback.Errors():
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}

// Me prints the authenticated user's profile.
func (r *Runner) Me(ctx context.Context, cmd *cli.Command) error {
	if err := r.prepare(cmd); err != nil {
		return err
	}

	api, err := r.playlistAPI(ctx)
	if err != nil {
		return err
	}

	user, err := api.CurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to fetch current user: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}

	r.writePlainHeader(r.palette.Title(user.DisplayName))
	r.writePlain("ID:      %s\n", user.ID)
	r.writePlain("URI:     %s\n", user.URI)
	if user.Email != "" {
		r.writePlain("Email:   %s\n", user.Email)
	}
	if user.Country != "" {
		r.writePlain("Country: %s\n", user.Country)
	}
	if user.Product != "" {
		r.writePlain("Product: %s\n", user.Product)
	}
	return nil
}
