package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/bentocli/internal/model"
)

// Subscription は現在の定期購入を取得する。
// 契約が存在しない場合はnot_foundカテゴリの*model.APIErrorを返す
// （model.IsNotFoundで判定できる）。
func (c *Client) Subscription(ctx context.Context) (*model.Subscription, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/subscription", nil)
	if err != nil {
		return nil, err
	}

	var sub model.Subscription
	if err := c.do(req, "/subscription", &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscription は定期購入を作成する。
func (c *Client) CreateSubscription(ctx context.Context, input model.CreateSubscriptionInput) (*model.Subscription, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/subscription", input)
	if err != nil {
		return nil, err
	}

	var sub model.Subscription
	if err := c.do(req, "/subscription", &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// SkipMeal は指定日の1食をスキップする。
func (c *Client) SkipMeal(ctx context.Context, input model.SkipMealInput) error {
	req, err := c.newRequest(ctx, http.MethodPost, "/subscription/skip", input)
	if err != nil {
		return err
	}
	return c.do(req, "/subscription/skip", nil)
}
