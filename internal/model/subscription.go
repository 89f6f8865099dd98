package model

import "time"

// Subscription は顧客の定期購入契約を表す。
type Subscription struct {
	ID              string        `json:"id"`
	Plan            string        `json:"plan"`
	DeliveryAddress string        `json:"delivery_address"`
	Status          string        `json:"status"`
	StartedAt       time.Time     `json:"started_at"`
	SkippedMeals    []SkippedMeal `json:"skipped_meals,omitempty"`
}

// SkippedMeal はスキップ済みの1食を表す。
type SkippedMeal struct {
	Date     string   `json:"date"` // YYYY-MM-DD
	MealType MealType `json:"meal_type"`
}

// CreateSubscriptionInput は POST /subscription のリクエストボディ。
type CreateSubscriptionInput struct {
	Plan            string `json:"plan"`
	DeliveryAddress string `json:"delivery_address"`
}

// SkipMealInput は POST /subscription/skip のリクエストボディ。
type SkipMealInput struct {
	Date     string   `json:"date"` // YYYY-MM-DD
	MealType MealType `json:"meal_type"`
}
