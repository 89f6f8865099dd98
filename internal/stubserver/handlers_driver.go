package stubserver

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bentocli/internal/model"
)

// requireDriver は認証済みユーザーがドライバーであることを確認する。
// ドライバーでない場合はレスポンスを書き込み、falseを返す。
func (s *Server) requireDriver(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	acct, ok := s.accountsByID[userID]
	s.mu.Unlock()

	if !ok || acct.user.Role != model.RoleDriver {
		writeError(w, http.StatusForbidden, "ドライバーのみ利用できます。")
		return "", false
	}
	return userID, true
}

// handleDeliveries は認証中のドライバーに割り当てられた配達一覧を返す。
func (s *Server) handleDeliveries(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.requireDriver(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	assigned := s.deliveries[driverID]
	list := make([]model.Delivery, 0, len(assigned))
	for _, d := range assigned {
		list = append(list, *d)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, list)
}

// updateStatusRequest は PUT /driver/delivery/{id}/status のリクエストボディ。
type updateStatusRequest struct {
	Status model.DeliveryStatus `json:"status"`
}

// handleUpdateDeliveryStatus は配達1件の状態を更新し、更新後の配達を返す。
func (s *Server) handleUpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	driverID, ok := s.requireDriver(w, r)
	if !ok {
		return
	}

	deliveryID := chi.URLParam(r, "id")

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディが不正です。")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "statusにはassigned、picked_up、deliveredのいずれかを指定してください。")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, d := range s.deliveries[driverID] {
		if d.ID == deliveryID {
			d.Status = req.Status
			writeJSON(w, http.StatusOK, d)
			return
		}
	}

	writeError(w, http.StatusNotFound, "指定された配達が見つかりません。")
}
