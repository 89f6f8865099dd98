// Package tokenstore はセッショントークンの永続化を提供する。
// 永続化されるローカル状態はトークン1件のみで、キーは固定文字列。
package tokenstore

import "context"

// Store はセッショントークンの読み書きのインターフェース。
// 書き込み（Save/Delete）はセッションマネージャのみが行い、
// APIクライアントは読み取り（Token）専用の利用者となる。
type Store interface {
	// Token は永続化されたトークンを返す。未保存の場合は空文字列を返す（エラーではない）。
	Token(ctx context.Context) (string, error)
	// Save はトークンを永続化する。既存の値は上書きされる。
	Save(ctx context.Context, token string) error
	// Delete は永続化されたトークンを削除する。未保存の場合も成功扱いとする。
	Delete(ctx context.Context) error
}

// Reader はトークンの読み取りのみを必要とする利用者向けのインターフェース。
type Reader interface {
	Token(ctx context.Context) (string, error)
}
