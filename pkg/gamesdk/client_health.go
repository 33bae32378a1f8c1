package gamesdk

import (
	"context"
	"net/http"
)

// Healthcheck reports whether the server is accepting requests.
func (c *Client) Healthcheck(ctx context.Context, opts ...CallOption) error {
	_, err := invoke(ctx, c, "Healthcheck", opts, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.send(ctx, request{
			method: http.MethodGet,
			path:   "/healthcheck",
		}, nil)
	})
	return err
}
