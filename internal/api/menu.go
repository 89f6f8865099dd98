package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/bentocli/internal/model"
)

// WeeklyMenu は今週のメニューを取得する。
func (c *Client) WeeklyMenu(ctx context.Context) (*model.WeeklyMenu, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/menu", nil)
	if err != nil {
		return nil, err
	}

	var menu model.WeeklyMenu
	if err := c.do(req, "/menu", &menu); err != nil {
		return nil, err
	}
	return &menu, nil
}
