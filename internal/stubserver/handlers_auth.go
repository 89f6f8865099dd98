package stubserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/bentocli/internal/model"
)

// registerRequest は POST /auth/register のリクエストボディ。
type registerRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Phone    string     `json:"phone"`
	Address  string     `json:"address"`
	Role     model.Role `json:"role"`
}

// loginRequest は POST /auth/login のリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse はlogin/registerのレスポンスボディ。
type authResponse struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// handleRegister はアカウントを作成しトークンを発行する。
// 電話番号は空にできない（クライアント側のプレースホルダー補完が前提とする契約）。
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディが不正です。")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)

	if req.Name == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "名前、メールアドレス、パスワードは必須です。")
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		writeError(w, http.StatusBadRequest, "電話番号は必須です。")
		return
	}

	role := req.Role
	if role == "" {
		role = model.RoleCustomer
	}
	if !role.Valid() {
		writeError(w, http.StatusBadRequest, "roleにはcustomerまたはdriverを指定してください。")
		return
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "パスワードの処理に失敗しました。")
		return
	}

	user := model.User{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Address: req.Address,
		Role:    role,
	}

	s.mu.Lock()
	if _, exists := s.accountsByEmail[user.Email]; exists {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "このメールアドレスは既に登録されています。")
		return
	}

	acct := &account{user: user, passwordHash: passwordHash}
	s.accountsByEmail[user.Email] = acct
	s.accountsByID[user.ID] = acct
	s.wallets[user.ID] = seedWallet()
	if role == model.RoleDriver {
		s.deliveries[user.ID] = seedDeliveries()
	}
	s.mu.Unlock()

	token, err := s.issueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "トークンの発行に失敗しました。")
		return
	}

	s.logger.Info("user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(role)),
	)

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// handleLogin は認証情報を検証しトークンを発行する。
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "リクエストボディが不正です。")
		return
	}

	s.mu.Lock()
	acct, ok := s.accountsByEmail[strings.TrimSpace(req.Email)]
	s.mu.Unlock()

	if !ok || bcrypt.CompareHashAndPassword(acct.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "メールアドレスまたはパスワードが正しくありません。")
		return
	}

	token, err := s.issueToken(acct.user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "トークンの発行に失敗しました。")
		return
	}

	s.logger.Info("user logged in",
		slog.String("user_id", acct.user.ID),
	)

	writeJSON(w, http.StatusOK, authResponse{Token: token, User: acct.user})
}

// handleMe は現在のトークンに紐付くユーザーを返す。
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, _ := userIDFromContext(r.Context())

	s.mu.Lock()
	acct, ok := s.accountsByID[userID]
	s.mu.Unlock()

	if !ok {
		writeError(w, http.StatusUnauthorized, "ユーザーが見つかりません。")
		return
	}

	writeJSON(w, http.StatusOK, acct.user)
}
