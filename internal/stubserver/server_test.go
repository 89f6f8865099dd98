package stubserver

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/bentocli/internal/model"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := NewServer(logger, Config{RatePerMinute: 6000, Burst: 100})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		buf = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, buf)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return v
}

func registerUser(t *testing.T, baseURL string, role model.Role) authResponse {
	t.Helper()

	resp := doJSON(t, http.MethodPost, baseURL+"/auth/register", "", map[string]any{
		"name":     "テスト 太郎",
		"email":    string(role) + "@example.com",
		"password": "secret123",
		"phone":    "09012345678",
		"address":  "東京都渋谷区1-2-3",
		"role":     role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	return decodeBody[authResponse](t, resp)
}

func TestHandleRegister(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	if auth.Token == "" {
		t.Error("expected non-empty token")
	}
	if auth.User.ID == "" {
		t.Error("expected non-empty user ID")
	}
	if auth.User.Role != model.RoleCustomer {
		t.Errorf("role = %q, want %q", auth.User.Role, model.RoleCustomer)
	}
}

func TestHandleRegister_MissingPhone(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
		"name":     "テスト 太郎",
		"email":    "nophone@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "電話番号は必須です。" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestHandleRegister_DuplicateEmail(t *testing.T) {
	ts := newTestServer(t)

	registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/register", "", map[string]any{
		"name":     "別の 太郎",
		"email":    "customer@example.com",
		"password": "secret456",
		"phone":    "08011112222",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleLogin(t *testing.T) {
	ts := newTestServer(t)

	registered := registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    "customer@example.com",
		"password": "secret123",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	auth := decodeBody[authResponse](t, resp)
	if auth.Token == "" {
		t.Error("expected non-empty token")
	}
	if auth.Token == registered.Token {
		t.Error("login should issue a fresh token")
	}
	if auth.User.ID != registered.User.ID {
		t.Errorf("user ID = %q, want %q", auth.User.ID, registered.User.ID)
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	ts := newTestServer(t)

	registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
		"email":    "customer@example.com",
		"password": "wrong",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestHandleMe(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodGet, ts.URL+"/auth/me", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	user := decodeBody[model.User](t, resp)
	if user.ID != auth.User.ID {
		t.Errorf("user ID = %q, want %q", user.ID, auth.User.ID)
	}
}

func TestAuthMiddleware_RejectsMissingToken(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/auth/me", "", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestAuthMiddleware_RejectsUnknownToken(t *testing.T) {
	ts := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/auth/me", "deadbeef", nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
}

func TestHandleMenu(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodGet, ts.URL+"/menu", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	menu := decodeBody[model.WeeklyMenu](t, resp)
	if len(menu.Items) == 0 {
		t.Error("expected seeded menu items")
	}
	if menu.WeekOf == "" {
		t.Error("expected non-empty week_of")
	}
}

func TestSubscriptionLifecycle(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	// 契約前は404
	resp := doJSON(t, http.MethodGet, ts.URL+"/subscription", auth.Token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status before create = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	// 作成
	resp = doJSON(t, http.MethodPost, ts.URL+"/subscription", auth.Token, model.CreateSubscriptionInput{
		Plan:            "weekly-lunch",
		DeliveryAddress: "東京都渋谷区1-2-3",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want %d", resp.StatusCode, http.StatusCreated)
	}
	created := decodeBody[model.Subscription](t, resp)
	if created.Plan != "weekly-lunch" {
		t.Errorf("plan = %q, want %q", created.Plan, "weekly-lunch")
	}
	if created.Status != "active" {
		t.Errorf("status = %q, want %q", created.Status, "active")
	}

	// 二重作成は400
	resp = doJSON(t, http.MethodPost, ts.URL+"/subscription", auth.Token, model.CreateSubscriptionInput{
		Plan:            "weekly-dinner",
		DeliveryAddress: "東京都渋谷区1-2-3",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate create status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	// 作成後は取得できる
	resp = doJSON(t, http.MethodGet, ts.URL+"/subscription", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	got := decodeBody[model.Subscription](t, resp)
	if got.ID != created.ID {
		t.Errorf("subscription ID = %q, want %q", got.ID, created.ID)
	}
}

func TestHandleSkipMeal(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	// 契約なしでは404
	resp := doJSON(t, http.MethodPost, ts.URL+"/subscription/skip", auth.Token, model.SkipMealInput{
		Date:     "2026-09-01",
		MealType: model.MealLunch,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status without subscription = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}

	resp = doJSON(t, http.MethodPost, ts.URL+"/subscription", auth.Token, model.CreateSubscriptionInput{
		Plan:            "weekly-lunch",
		DeliveryAddress: "東京都渋谷区1-2-3",
	})
	resp.Body.Close()

	// 正常なスキップ
	resp = doJSON(t, http.MethodPost, ts.URL+"/subscription/skip", auth.Token, model.SkipMealInput{
		Date:     "2026-09-01",
		MealType: model.MealLunch,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("skip status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}

	// 同じ食事の二重スキップは400
	resp = doJSON(t, http.MethodPost, ts.URL+"/subscription/skip", auth.Token, model.SkipMealInput{
		Date:     "2026-09-01",
		MealType: model.MealLunch,
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("duplicate skip status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleSkipMeal_Validation(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	tests := []struct {
		name  string
		input model.SkipMealInput
	}{
		{
			name:  "不正な日付形式",
			input: model.SkipMealInput{Date: "09/01/2026", MealType: model.MealLunch},
		},
		{
			name:  "不正な食事種別",
			input: model.SkipMealInput{Date: "2026-09-01", MealType: "breakfast"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, http.MethodPost, ts.URL+"/subscription/skip", auth.Token, tt.input)
			resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
			}
		})
	}
}

func TestHandleWallet(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodGet, ts.URL+"/wallet", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	wallet := decodeBody[model.Wallet](t, resp)
	if wallet.Balance <= 0 {
		t.Errorf("balance = %d, want positive seeded balance", wallet.Balance)
	}
	if len(wallet.Transactions) == 0 {
		t.Error("expected seeded transaction history")
	}
}

func TestDriverDeliveries(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleDriver)

	resp := doJSON(t, http.MethodGet, ts.URL+"/driver/deliveries", auth.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}

	deliveries := decodeBody[[]model.Delivery](t, resp)
	if len(deliveries) == 0 {
		t.Fatal("expected seeded deliveries for driver")
	}

	// 状態を更新できる
	resp = doJSON(t, http.MethodPut, ts.URL+"/driver/delivery/"+deliveries[0].ID+"/status", auth.Token, map[string]string{
		"status": string(model.DeliveryPickedUp),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	updated := decodeBody[model.Delivery](t, resp)
	if updated.Status != model.DeliveryPickedUp {
		t.Errorf("delivery status = %q, want %q", updated.Status, model.DeliveryPickedUp)
	}
}

func TestDriverDeliveries_ForbiddenForCustomer(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleCustomer)

	resp := doJSON(t, http.MethodGet, ts.URL+"/driver/deliveries", auth.Token, nil)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
}

func TestUpdateDeliveryStatus_UnknownDelivery(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleDriver)

	resp := doJSON(t, http.MethodPut, ts.URL+"/driver/delivery/no-such-id/status", auth.Token, map[string]string{
		"status": string(model.DeliveryDelivered),
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNotFound)
	}
}

func TestUpdateDeliveryStatus_InvalidStatus(t *testing.T) {
	ts := newTestServer(t)

	auth := registerUser(t, ts.URL, model.RoleDriver)

	resp := doJSON(t, http.MethodGet, ts.URL+"/driver/deliveries", auth.Token, nil)
	deliveries := decodeBody[[]model.Delivery](t, resp)

	resp = doJSON(t, http.MethodPut, ts.URL+"/driver/delivery/"+deliveries[0].ID+"/status", auth.Token, map[string]string{
		"status": "teleported",
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
}

func TestHandleHealth(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := NewServer(logger, Config{RatePerMinute: 60, Burst: 2})
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	var limited bool
	for i := 0; i < 10; i++ {
		resp := doJSON(t, http.MethodPost, ts.URL+"/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "x",
		})
		resp.Body.Close()
		if resp.StatusCode == http.StatusTooManyRequests {
			limited = true
			break
		}
	}

	if !limited {
		t.Error("expected at least one request to be rate limited")
	}
}
