package main

import (
	"context"
	"fmt"

	"github.com/nguyentayninh0710/mpx/internal/services"
	"github.com/nguyentayninh0710/mpx/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// APIGet performs a direct GET against the backend and prints the response.
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	svc, err := r.rawClient(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Debugf("GET %v", path)

	resp, err := svc.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// APIPost performs a direct POST with a JSON body and prints the response.
func (r *Runner) APIPost(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		return fmt.Errorf("%w: path", shared.ErrMissingArgument)
	}

	data := cmd.String("data")

	svc, err := r.rawClient(ctx, cmd)
	if err != nil {
		return err
	}

	r.logger.Debugf("POST %v (%d bytes)", path, len(data))

	resp, err := svc.Post(ctx, path, []byte(data))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	return r.writeResponse(resp, cmd.Bool("pretty"))
}

// rawClient returns the raw API client, wrapped in an OAuth2 transport that
// silently refreshes the access token when --auth is set.
func (r *Runner) rawClient(ctx context.Context, cmd *cli.Command) (*services.APIService, error) {
	if !cmd.Bool("auth") {
		return r.raw, nil
	}

	guard, err := r.session()
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, guard.TokenSource(ctx))
	client.Timeout = r.config.API.Timeout()
	return services.NewAPIService(r.config.API.BaseURL, client), nil
}

func (r *Runner) writeResponse(resp *services.APIResponse, pretty bool) error {
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		r.writePlain("✗ Status %d\n", resp.StatusCode)
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, pretty)
	}

	return r.writePlain("%s\n", string(resp.Body))
}
