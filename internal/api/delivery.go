package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hitoshi/bentocli/internal/model"
)

// updateStatusRequest は PUT /driver/delivery/{id}/status のリクエストボディ。
type updateStatusRequest struct {
	Status model.DeliveryStatus `json:"status"`
}

// Deliveries は認証中のドライバーに割り当てられた配達一覧を取得する。
func (c *Client) Deliveries(ctx context.Context) ([]model.Delivery, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/driver/deliveries", nil)
	if err != nil {
		return nil, err
	}

	var deliveries []model.Delivery
	if err := c.do(req, "/driver/deliveries", &deliveries); err != nil {
		return nil, err
	}
	return deliveries, nil
}

// UpdateDeliveryStatus は配達1件の状態を更新し、更新後の配達を返す。
func (c *Client) UpdateDeliveryStatus(ctx context.Context, deliveryID string, status model.DeliveryStatus) (*model.Delivery, error) {
	path := "/driver/delivery/" + url.PathEscape(deliveryID) + "/status"
	req, err := c.newRequest(ctx, http.MethodPut, path, updateStatusRequest{Status: status})
	if err != nil {
		return nil, err
	}

	var delivery model.Delivery
	if err := c.do(req, "/driver/delivery/{id}/status", &delivery); err != nil {
		return nil, err
	}
	return &delivery, nil
}
