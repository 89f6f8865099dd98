// Package stubserver はBento-YaリモートAPIのローカル開発用スタブを提供する。
// クライアントが期待するJSON形状をインメモリ状態の上で忠実に実装し、
// 開発時の接続先および統合テストのハーネスとして機能する。
package stubserver

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/bentocli/internal/metrics"
	"github.com/hitoshi/bentocli/internal/model"
)

// Config はスタブサーバーの設定。
type Config struct {
	RatePerMinute int // クライアントごとのレート制限（req/min）
	Burst         int // バーストサイズ
}

// account は登録済みアカウント1件（ユーザーとパスワードハッシュ）。
type account struct {
	user         model.User
	passwordHash []byte
}

// Server はインメモリ状態を持つスタブAPIサーバー。
// 全状態は単一のミューテックスで保護する（開発用途のため性能要件はない）。
type Server struct {
	logger   *slog.Logger
	limiter  *clientLimiter
	metrics  metrics.Recorder
	gatherer prometheus.Gatherer

	mu              sync.Mutex
	accountsByEmail map[string]*account
	accountsByID    map[string]*account
	tokens          map[string]string // token -> userID
	subscriptions   map[string]*model.Subscription
	wallets         map[string]*model.Wallet
	deliveries      map[string][]*model.Delivery // driverID -> 配達一覧
	menu            model.WeeklyMenu
}

// NewServer はシード済みのスタブサーバーを生成する。
func NewServer(logger *slog.Logger, cfg Config) *Server {
	reg := prometheus.NewRegistry()

	return &Server{
		logger:          logger,
		limiter:         newClientLimiter(cfg.RatePerMinute, cfg.Burst),
		metrics:         metrics.NewCollector(reg),
		gatherer:        reg,
		accountsByEmail: make(map[string]*account),
		accountsByID:    make(map[string]*account),
		tokens:          make(map[string]string),
		subscriptions:   make(map[string]*model.Subscription),
		wallets:         make(map[string]*model.Wallet),
		deliveries:      make(map[string][]*model.Delivery),
		menu:            seedMenu(),
	}
}

// Close はバックグラウンド処理を停止する。
func (s *Server) Close() {
	s.limiter.stop()
}

// Handler は全エンドポイントのルーティングとミドルウェアチェーンを構成した
// http.Handlerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	LoggingMiddleware → RateLimitMiddleware → (認証ルート以外は) AuthMiddleware
//
// /health と /metrics はチェーンの外に配置する。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))

	r.Group(func(r chi.Router) {
		r.Use(s.loggingMiddleware)
		r.Use(s.rateLimitMiddleware)

		// --- 認証不要のルート ---
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)

		// --- 認証が必要なルート ---
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/auth/me", s.handleMe)
			r.Get("/menu", s.handleMenu)

			r.Route("/subscription", func(r chi.Router) {
				r.Get("/", s.handleGetSubscription)
				r.Post("/", s.handleCreateSubscription)
				r.Post("/skip", s.handleSkipMeal)
			})

			r.Get("/wallet", s.handleWallet)

			r.Route("/driver", func(r chi.Router) {
				r.Get("/deliveries", s.handleDeliveries)
				r.Put("/delivery/{id}/status", s.handleUpdateDeliveryStatus)
			})
		})
	})

	return r
}

// handleHealth は死活確認に200を返す。
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// issueToken は暗号的に安全な不透明トークンを発行しユーザーに紐付ける。
func (s *Server) issueToken(userID string) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.tokens[token] = userID
	s.mu.Unlock()

	return token, nil
}

// writeJSON はJSONレスポンスを書き込む。
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeError はクライアントが期待する {"detail": "..."} 形式のエラーを書き込む。
func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
