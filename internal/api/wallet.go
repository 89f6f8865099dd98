package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/bentocli/internal/model"
)

// Wallet はウォレット残高と取引履歴を取得する。
func (c *Client) Wallet(ctx context.Context) (*model.Wallet, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/wallet", nil)
	if err != nil {
		return nil, err
	}

	var wallet model.Wallet
	if err := c.do(req, "/wallet", &wallet); err != nil {
		return nil, err
	}
	return &wallet, nil
}
