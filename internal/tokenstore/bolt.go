package tokenstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/boltdb/bolt"
)

const (
	// bucketName はトークンを格納するboltバケット名。
	bucketName = "session"
	// tokenKey はトークンを格納する固定キー。
	tokenKey = "token"
)

// BoltStore はboltファイルにトークンを永続化するStore実装。
type BoltStore struct {
	db *bolt.DB
}

// OpenBolt は指定パスのboltファイルを開き、BoltStoreを生成する。
// 親ディレクトリが存在しない場合は作成する。ファイルは所有者のみ読み書き可能。
func OpenBolt(path string) (*BoltStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("トークンストアのディレクトリ作成に失敗しました: %w", err)
	}

	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("トークンストアのオープンに失敗しました: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("トークンバケットの作成に失敗しました: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Close はboltファイルを閉じる。
func (s *BoltStore) Close() error {
	return s.db.Close()
}

// Token は永続化されたトークンを返す。未保存の場合は空文字列を返す。
func (s *BoltStore) Token(_ context.Context) (string, error) {
	var token string
	if err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(tokenKey))
		if raw != nil {
			token = string(raw)
		}
		return nil
	}); err != nil {
		return "", fmt.Errorf("トークンの読み取りに失敗しました: %w", err)
	}
	return token, nil
}

// Save はトークンを永続化する。
func (s *BoltStore) Save(_ context.Context, token string) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(tokenKey), []byte(token))
	}); err != nil {
		return fmt.Errorf("トークンの保存に失敗しました: %w", err)
	}
	return nil
}

// Delete は永続化されたトークンを削除する。未保存の場合も成功扱いとなる。
func (s *BoltStore) Delete(_ context.Context) error {
	if err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Delete([]byte(tokenKey))
	}); err != nil {
		return fmt.Errorf("トークンの削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ Store = (*BoltStore)(nil)
