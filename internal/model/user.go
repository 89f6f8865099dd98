// Package model はドメインモデルを定義する。
package model

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleCustomer は定期購入の顧客を示す。
	RoleCustomer Role = "customer"
	// RoleDriver は配達ドライバーを示す。
	RoleDriver Role = "driver"
)

// Valid はroleが定義済みの値かどうかを返す。
func (r Role) Valid() bool {
	return r == RoleCustomer || r == RoleDriver
}

// User はサービス利用ユーザーを表す。
// リモートの /auth/me または login/register レスポンスから構築され、
// メモリ上にのみ保持される（ローカルでの変更は行わない）。
type User struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Role    Role   `json:"role"`
}
