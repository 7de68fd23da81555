package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/okian/internboard/internal/domain/model"
)

// LORResult is the backend's reply to a LOR request.
type LORResult struct {
	Message string `json:"message,omitempty"`
	URL     string `json:"url,omitempty"`
}

// GenerateLOR asks the backend to generate the intern's letter.
func (c *Client) GenerateLOR(ctx context.Context, id string) (LORResult, error) {
	return c.lor(ctx, id, model.LORGenerate)
}

// SendLOR asks the backend to send an already generated letter.
func (c *Client) SendLOR(ctx context.Context, id string) (LORResult, error) {
	return c.lor(ctx, id, model.LORSend)
}

// RunLOR dispatches on action.
func (c *Client) RunLOR(ctx context.Context, id string, action model.LORAction) (LORResult, error) {
	if !action.Valid() {
		return LORResult{}, fmt.Errorf("lor: %w: unknown action %q", ErrBadRequest, action)
	}
	return c.lor(ctx, id, action)
}

func (c *Client) lor(ctx context.Context, id string, action model.LORAction) (LORResult, error) {
	op := "lor_" + string(action)
	if id == "" {
		return LORResult{}, fmt.Errorf("%s: %w", op, ErrEmptyID)
	}
	var out LORResult
	path := "/lor/" + url.PathEscape(id) + "/" + string(action)
	if err := c.do(ctx, op, http.MethodPost, path, nil, &out, true); err != nil {
		return LORResult{}, err
	}
	return out, nil
}
