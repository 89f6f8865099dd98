// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// ErrorCategory はAPIエラーの原因カテゴリを表す。
// 呼び出し側がリトライやログイン画面への誘導を判断するために使用する。
type ErrorCategory string

const (
	// CategoryNetwork はトランスポート層の失敗（接続不可、タイムアウト等）を示す。
	CategoryNetwork ErrorCategory = "network"
	// CategoryValidation はリクエスト内容の不備（400/422）を示す。
	CategoryValidation ErrorCategory = "validation"
	// CategoryUnauthorized は認証エラー（401/403）を示す。
	CategoryUnauthorized ErrorCategory = "unauthorized"
	// CategoryNotFound は対象リソースの不在（404）を示す。
	CategoryNotFound ErrorCategory = "not_found"
	// CategoryUnknown は上記以外の失敗を示す。
	CategoryUnknown ErrorCategory = "unknown"
)

// APIError はリモートAPI呼び出しの失敗を表す。
// Messageにはサーバーのエラーペイロードから抽出した表示用メッセージ、
// 抽出できない場合は汎用メッセージが入る。
type APIError struct {
	Category ErrorCategory // 原因カテゴリ
	Message  string        // 表示用メッセージ
	Status   int           // HTTPステータスコード（トランスポート失敗時は0）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("[%s] %s (HTTP %d)", e.Category, e.Message, e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// IsNotFound はerrがnot_foundカテゴリのAPIErrorかどうかを返す。
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Category == CategoryNotFound
}

// AuthError はログイン・登録の失敗を表す。
// ネットワーク失敗・検証失敗・認証拒否を区別せず、表示用メッセージのみを持つ。
// 画面はこのメッセージをインライン表示する。
type AuthError struct {
	Message string
}

// Error はerrorインターフェースを実装する。
func (e *AuthError) Error() string {
	return e.Message
}

// GenericErrorMessage はサーバーからメッセージを抽出できなかった場合の汎用メッセージ。
const GenericErrorMessage = "リクエストに失敗しました。しばらく待ってから再度お試しください。"
