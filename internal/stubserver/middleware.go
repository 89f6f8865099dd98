package stubserver

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// ctxKey はリクエストコンテキストのキー型。
type ctxKey int

const userIDKey ctxKey = iota

// userIDFromContext はコンテキストから認証済みユーザーIDを取り出す。
func userIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userIDKey).(string)
	return userID, ok
}

// statusRecorder はhttp.ResponseWriterをラップし、ステータスコードを記録する。
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader はステータスコードを記録してから委譲する。
func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write はデータを書き込む。WriteHeaderが未呼び出しの場合は200を記録する。
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// loggingMiddleware はリクエストのJSON構造化ログとメトリクスを記録する。
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rec := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		s.metrics.RecordRequest(r.URL.Path, r.Method, rec.statusCode, duration)

		level := slog.LevelInfo
		if rec.statusCode >= 500 {
			level = slog.LevelError
		} else if rec.statusCode >= 400 {
			level = slog.LevelWarn
		}

		s.logger.Log(r.Context(), level, "http_request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.statusCode),
			slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
		)
	})
}

// authMiddleware はベアラートークンを検証し、ユーザーIDをコンテキストに格納する。
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			writeError(w, http.StatusUnauthorized, "認証が必要です。")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")

		s.mu.Lock()
		userID, ok := s.tokens[token]
		s.mu.Unlock()

		if !ok {
			writeError(w, http.StatusUnauthorized, "トークンが無効です。再度ログインしてください。")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// clientEntry はクライアントごとのレートリミッターとアクセス時刻を保持する。
type clientEntry struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// clientLimiter は接続元ホストごとのレート制限を管理する。
type clientLimiter struct {
	ratePerSec rate.Limit
	burst      int

	mu      sync.Mutex
	entries map[string]*clientEntry

	stopCh chan struct{}
}

// newClientLimiter は新しいclientLimiterを生成する。
// バックグラウンドで期限切れエントリのクリーンアップを開始する。
func newClientLimiter(ratePerMinute, burst int) *clientLimiter {
	cl := &clientLimiter{
		ratePerSec: rate.Limit(float64(ratePerMinute) / 60.0),
		burst:      burst,
		entries:    make(map[string]*clientEntry),
		stopCh:     make(chan struct{}),
	}

	go cl.cleanupLoop()

	return cl
}

// stop はクリーンアップのバックグラウンドゴルーチンを停止する。
func (cl *clientLimiter) stop() {
	close(cl.stopCh)
}

// allow は指定クライアントのリクエストを許可するかどうかを返す。
func (cl *clientLimiter) allow(client string) bool {
	cl.mu.Lock()
	defer cl.mu.Unlock()

	entry, ok := cl.entries[client]
	if !ok {
		entry = &clientEntry{
			limiter: rate.NewLimiter(cl.ratePerSec, cl.burst),
		}
		cl.entries[client] = entry
	}
	entry.lastAccess = time.Now()

	return entry.limiter.Allow()
}

// cleanupLoop はバックグラウンドで期限切れエントリを定期的に削除する。
func (cl *clientLimiter) cleanupLoop() {
	const interval = 5 * time.Minute

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cl.mu.Lock()
			now := time.Now()
			for client, entry := range cl.entries {
				if now.Sub(entry.lastAccess) > interval*2 {
					delete(cl.entries, client)
				}
			}
			cl.mu.Unlock()
		case <-cl.stopCh:
			return
		}
	}
}

// rateLimitMiddleware は接続元ホストごとのレート制限を適用する。
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}

		if !s.limiter.allow(host) {
			s.logger.Warn("rate limit exceeded",
				slog.String("client", host),
			)
			writeError(w, http.StatusTooManyRequests, "リクエストが多すぎます。しばらく待ってから再度お試しください。")
			return
		}

		next.ServeHTTP(w, r)
	})
}
