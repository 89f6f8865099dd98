package model

import "time"

// Wallet は顧客のウォレット残高と取引履歴を表す。
type Wallet struct {
	Balance      int64         `json:"balance"` // 残高（円）
	Transactions []Transaction `json:"transactions"`
}

// Transaction はウォレットの取引1件を表す。
type Transaction struct {
	ID        string    `json:"id"`
	Amount    int64     `json:"amount"` // 正: チャージ、負: 支払い
	Kind      string    `json:"kind"`   // "charge" / "payment" / "refund"
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
