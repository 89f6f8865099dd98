package stubserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bentocli/internal/model"
)

// handleMenu は今週のメニューを返す。
func (s *Server) handleMenu(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	menu := s.menu
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, menu)
}

// handleGetSubscription は現在の定期購入を返す。存在しない場合は404。
func (s *Server) handleGetSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	sub, ok := s.subscriptions[userID]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "定期購入が見つかりません。")
		return
	}

	writeJSON(w, http.StatusOK, sub)
}

// handleCreateSubscription は定期購入を作成する。
func (s *Server) handleCreateSubscription(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var input model.CreateSubscriptionInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディが不正です。")
		return
	}

	if strings.TrimSpace(input.Plan) == "" || strings.TrimSpace(input.DeliveryAddress) == "" {
		writeError(w, http.StatusBadRequest, "プランと配達先住所は必須です。")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subscriptions[userID]; exists {
		writeError(w, http.StatusBadRequest, "既に定期購入があります。")
		return
	}

	sub := &model.Subscription{
		ID:              uuid.New().String(),
		Plan:            input.Plan,
		DeliveryAddress: input.DeliveryAddress,
		Status:          "active",
		StartedAt:       time.Now().UTC(),
	}
	s.subscriptions[userID] = sub

	writeJSON(w, http.StatusCreated, sub)
}

// handleSkipMeal は指定日の1食をスキップ済みとして記録する。
func (s *Server) handleSkipMeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	var input model.SkipMealInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディが不正です。")
		return
	}

	if _, err := time.Parse("2006-01-02", input.Date); err != nil {
		writeError(w, http.StatusBadRequest, "日付はYYYY-MM-DD形式で指定してください。")
		return
	}
	if input.MealType != model.MealLunch && input.MealType != model.MealDinner {
		writeError(w, http.StatusBadRequest, "meal_typeにはlunchまたはdinnerを指定してください。")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subscriptions[userID]
	if !ok {
		writeError(w, http.StatusNotFound, "定期購入が見つかりません。")
		return
	}

	for _, skipped := range sub.SkippedMeals {
		if skipped.Date == input.Date && skipped.MealType == input.MealType {
			writeError(w, http.StatusBadRequest, "この食事は既にスキップ済みです。")
			return
		}
	}

	sub.SkippedMeals = append(sub.SkippedMeals, model.SkippedMeal{
		Date:     input.Date,
		MealType: input.MealType,
	})

	w.WriteHeader(http.StatusNoContent)
}

// handleWallet はウォレット残高と取引履歴を返す。
func (s *Server) handleWallet(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	wallet, ok := s.wallets[userID]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "ウォレットが見つかりません。")
		return
	}

	writeJSON(w, http.StatusOK, wallet)
}
