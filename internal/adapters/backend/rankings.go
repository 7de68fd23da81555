package backend

import (
	"context"
	"net/http"

	"github.com/okian/internboard/internal/domain/model"
)

// Rankings fetches the gold/silver/bronze buckets computed by the backend.
func (c *Client) Rankings(ctx context.Context) (model.RankingBuckets, error) {
	var out model.RankingBuckets
	if err := c.do(ctx, "rankings", http.MethodGet, "/rankings", nil, &out, true); err != nil {
		return model.RankingBuckets{}, err
	}
	return out, nil
}
