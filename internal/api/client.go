// Package api はBento-YaリモートAPIのHTTPクライアントを提供する。
// 全リクエストはディスパッチ直前に永続ストアからトークンを読み取り、
// 存在する場合のみAuthorizationヘッダーとして付与する。
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hitoshi/bentocli/internal/metrics"
	"github.com/hitoshi/bentocli/internal/model"
	"github.com/hitoshi/bentocli/internal/tokenstore"
)

const (
	// userAgent は全リクエストに付与するUser-Agentヘッダー。
	userAgent = "Bentocli/1.0"
	// maxErrorBodySize はエラーレスポンスボディの最大読み取りサイズ。
	maxErrorBodySize = 1 << 20
)

// networkErrorMessage はトランスポート層の失敗時の表示用メッセージ。
const networkErrorMessage = "サーバーに接続できませんでした。ネットワーク接続を確認してください。"

// Client はリモートAPIのHTTPクライアント。
// トークンはリクエストごとにストアから読み直す（プロセス内キャッシュは持たない）。
// これによりログアウト直後・ログイン直後の次のリクエストに、
// 追加の同期処理なしで最新の認証状態が反映される。
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokenstore.Reader
	logger     *slog.Logger
	metrics    metrics.Recorder
}

// NewClient はClientの新しいインスタンスを生成する。
// recorderにnilを渡した場合はメトリクスを記録しない。
func NewClient(baseURL string, httpClient *http.Client, tokens tokenstore.Reader, logger *slog.Logger, recorder metrics.Recorder) *Client {
	if recorder == nil {
		recorder = metrics.Noop{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     logger,
		metrics:    recorder,
	}
}

// newRequest はJSONボディ付きのHTTPリクエストを構築する。
// ディスパッチ直前の時点で永続ストアからトークンを読み取り、
// 空でない場合のみ `Authorization: Bearer <token>` を付与する。
// トークンが無い場合はヘッダーなしで送信する（認可判断はリモート側の責務）。
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("リクエストボディのエンコードに失敗しました: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("HTTPリクエストの作成に失敗しました: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	// ベアラー付与: インメモリ状態ではなく永続ストアを信頼する
	token, err := c.tokens.Token(ctx)
	if err != nil {
		// 読み取り失敗時はヘッダーなしで送信する（リモートが401を返す）
		c.logger.Warn("トークンの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
	} else if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do はリクエストを実行し、成功時はレスポンスボディをoutにデコードする。
// outがnilの場合はボディを破棄する。失敗は*model.APIErrorとして返す。
// endpointはメトリクスラベル用の正規化済みパス（例: "/driver/delivery/{id}/status"）。
func (c *Client) do(req *http.Request, endpoint string, out any) error {
	start := time.Now()

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.metrics.RecordRequest(endpoint, req.Method, 0, duration)
		c.logger.Error("HTTPリクエストに失敗しました",
			slog.String("method", req.Method),
			slog.String("endpoint", endpoint),
			slog.String("error", err.Error()),
		)
		return &model.APIError{
			Category: model.CategoryNetwork,
			Message:  networkErrorMessage,
		}
	}
	defer resp.Body.Close()

	c.metrics.RecordRequest(endpoint, req.Method, resp.StatusCode, duration)

	if resp.StatusCode >= 400 {
		apiErr := c.errorFromResponse(resp)
		c.logger.Warn("APIがエラーステータスを返しました",
			slog.String("method", req.Method),
			slog.String("endpoint", endpoint),
			slog.Int("http_status", resp.StatusCode),
			slog.String("category", string(apiErr.Category)),
		)
		return apiErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &model.APIError{
			Category: model.CategoryUnknown,
			Message:  model.GenericErrorMessage,
			Status:   resp.StatusCode,
		}
	}

	c.logger.Debug("APIリクエストが完了しました",
		slog.String("method", req.Method),
		slog.String("endpoint", endpoint),
		slog.Int("http_status", resp.StatusCode),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// errorPayload はリモートのエラーレスポンスボディ。
// サーバー実装によりフィールド名が異なるため、候補を順に参照する。
type errorPayload struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
	Err     string `json:"error"`
}

// errorFromResponse はエラーレスポンスを*model.APIErrorに変換する。
// ボディから表示用メッセージを抽出し、ステータスコードでカテゴリを分類する。
func (c *Client) errorFromResponse(resp *http.Response) *model.APIError {
	message := model.GenericErrorMessage

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	if err == nil && len(body) > 0 {
		var payload errorPayload
		if err := json.Unmarshal(body, &payload); err == nil {
			switch {
			case payload.Detail != "":
				message = payload.Detail
			case payload.Message != "":
				message = payload.Message
			case payload.Err != "":
				message = payload.Err
			}
		}
	}

	return &model.APIError{
		Category: classifyStatus(resp.StatusCode),
		Message:  message,
		Status:   resp.StatusCode,
	}
}

// classifyStatus はHTTPステータスコードをエラーカテゴリに分類する。
func classifyStatus(status int) model.ErrorCategory {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return model.CategoryUnauthorized
	case status == http.StatusNotFound:
		return model.CategoryNotFound
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return model.CategoryValidation
	default:
		return model.CategoryUnknown
	}
}
