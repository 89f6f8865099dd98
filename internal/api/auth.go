package api

import (
	"context"
	"net/http"

	"github.com/hitoshi/bentocli/internal/model"
)

// RegisterRequest は POST /auth/register のリクエストボディ。
// Phoneは空にできない（リモート契約）。省略時の補完はセッションマネージャが行う。
type RegisterRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phone    string     `json:"phone"`
	Address  string     `json:"address,omitempty"`
	Role     model.Role `json:"role,omitempty"`
}

// AuthResult はlogin/registerエンドポイントが返すトークンとユーザー。
type AuthResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// loginRequest は POST /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register はアカウントを作成し、発行されたトークンとユーザーを返す。
func (c *Client) Register(ctx context.Context, input RegisterRequest) (*AuthResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/register", input)
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := c.do(req, "/auth/register", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Login は認証情報でトークンを取得する。
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/auth/login", loginRequest{
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	var result AuthResult
	if err := c.do(req, "/auth/login", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CurrentUser は現在のトークンからユーザーを解決する。
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var user model.User
	if err := c.do(req, "/auth/me", &user); err != nil {
		return nil, err
	}
	return &user, nil
}
