// Package session はセッション状態の保持と認証操作を提供する。
// プロセス内のセッション状態はManagerが単一のインスタンスとして所有し、
// 永続トークンの書き込みはManagerのみが行う。
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/hitoshi/bentocli/internal/api"
	"github.com/hitoshi/bentocli/internal/model"
	"github.com/hitoshi/bentocli/internal/tokenstore"
)

// placeholderPhone は電話番号省略時にregisterリクエストへ補完する固定値。
// リモート契約が空でない電話番号を要求するための互換性シムであり、
// バリデーションルールではない。サーバー側の契約変更時には削除を検討する。
const placeholderPhone = "00000000000"

// AuthAPI はManagerが必要とするリモート認証エンドポイントのインターフェース。
type AuthAPI interface {
	// Login は認証情報でトークンを取得する。
	Login(ctx context.Context, email, password string) (*api.AuthResult, error)
	// Register はアカウントを作成し、発行されたトークンとユーザーを返す。
	Register(ctx context.Context, input api.RegisterRequest) (*api.AuthResult, error)
	// CurrentUser は現在のトークンからユーザーを解決する。
	CurrentUser(ctx context.Context) (*model.User, error)
}

// State はセッション状態のスナップショット。
// 不変条件: Userが非nilであることと、Tokenが検証済み（/auth/meで確認済み、
// またはlogin/registerで発行直後）であることは同値。
// IsLoadingは初回のHydrateが解決するまでのみtrueとなり、以降は常にfalse。
type State struct {
	User      *model.User
	Token     string
	IsLoading bool
}

// LoggedIn はログイン済みかどうかを返す。
func (s State) LoggedIn() bool {
	return s.User != nil
}

// Observer は状態変更の通知を受け取るコールバック。
// 状態を変更する操作が呼び出し元に結果を返すより前に、同期的に呼ばれる。
type Observer func(State)

// RegisterInput はRegisterへの入力。
// NameとEmailとPasswordは必須。PhoneとAddressは任意。
// Roleは省略時にcustomerとなる。
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
	Role     model.Role
}

// Manager はセッション状態を所有し、認証に関わる全操作を仲介する。
//
// 操作間の相互排他は提供しない: LoginとLogoutが並行に呼ばれた場合、
// 永続ストアへの書き込みは完了順にインターリーブし、最終的なメモリ上の
// 状態は後に完了した方となる（単一ユーザー操作のUIでは現実的な入力ではない
// ため許容する）。ロックは個々の状態更新・通知とスナップショット取得のみを
// 保護する。
type Manager struct {
	api    AuthAPI
	store  tokenstore.Store
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	observers []Observer
}

// NewManager はManagerを生成する。初期状態はIsLoading=true
// （初回のHydrateが解決するまでロード中として扱う）。
func NewManager(authAPI AuthAPI, store tokenstore.Store, logger *slog.Logger) *Manager {
	return &Manager{
		api:    authAPI,
		store:  store,
		logger: logger,
		state:  State{IsLoading: true},
	}
}

// Subscribe は状態変更の監視者を登録する。
// 登録後の全ての状態変更は、変更した操作が返るより前に同期的に通知される。
func (m *Manager) Subscribe(obs Observer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.observers = append(m.observers, obs)
}

// State は現在のセッション状態のスナップショットを返す。
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// setState はロック下で状態を更新し、登録済みの監視者へ新しい状態を通知する。
// 通知はロック外で行う（監視者がState()を呼んでもデッドロックしない）が、
// setStateの呼び出し元に制御が戻るより前に完了する。
func (m *Manager) setState(update func(*State)) {
	m.mu.Lock()
	update(&m.state)
	snapshot := m.state
	observers := make([]Observer, len(m.observers))
	copy(observers, m.observers)
	m.mu.Unlock()

	for _, obs := range observers {
		obs(snapshot)
	}
}

// Hydrate は永続トークンからセッションの復元を試みる。
// プロセス起動時に1回だけ呼び出すこと。
//
// トークンが未保存の場合はアイデンティティ確認を行わずログアウト状態で解決する。
// トークンが存在する場合は /auth/me でユーザーを解決し、失敗時（401・ネットワーク
// エラーを含む全エラー）は陳腐化した資格情報として永続トークンを削除する。
// 失敗は外部へ通知されない（ロード状態の解決のみを行う）。
func (m *Manager) Hydrate(ctx context.Context) {
	token, err := m.store.Token(ctx)
	if err != nil {
		m.logger.Warn("永続トークンの読み取りに失敗しました",
			slog.String("error", err.Error()),
		)
	}

	if token == "" {
		m.setState(func(s *State) {
			s.User = nil
			s.Token = ""
			s.IsLoading = false
		})
		return
	}

	m.setState(func(s *State) {
		s.Token = token
	})

	user, err := m.api.CurrentUser(ctx)
	if err != nil {
		// 復元失敗は自己回復する: 資格情報を破棄してログアウト状態に戻す
		m.logger.Info("セッションの復元に失敗したため資格情報を破棄します",
			slog.String("error", err.Error()),
		)
		if delErr := m.store.Delete(ctx); delErr != nil {
			m.logger.Error("永続トークンの削除に失敗しました",
				slog.String("error", delErr.Error()),
			)
		}
		m.setState(func(s *State) {
			s.User = nil
			s.Token = ""
			s.IsLoading = false
		})
		return
	}

	m.setState(func(s *State) {
		s.User = user
		s.IsLoading = false
	})

	m.logger.Info("セッションを復元しました",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
}

// Login は認証情報でログインする。
// 成功時はHTTP呼び出しの成功の後にトークンを永続化し、メモリ上の状態を更新する。
// 失敗時は*model.AuthErrorを返し、状態は一切変更しない（部分書き込みなし）。
func (m *Manager) Login(ctx context.Context, email, password string) error {
	result, err := m.api.Login(ctx, email, password)
	if err != nil {
		return authError(err)
	}

	return m.establish(ctx, result)
}

// Register はアカウントを作成してログインする。
// 電話番号が省略された場合は固定のプレースホルダー値を補完して送信する
// （placeholderPhone参照）。成功・失敗時の挙動はLoginと同一。
func (m *Manager) Register(ctx context.Context, input RegisterInput) error {
	phone := input.Phone
	if phone == "" {
		phone = placeholderPhone
	}

	role := input.Role
	if role == "" {
		role = model.RoleCustomer
	}

	result, err := m.api.Register(ctx, api.RegisterRequest{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
		Phone:    phone,
		Address:  input.Address,
		Role:     role,
	})
	if err != nil {
		return authError(err)
	}

	return m.establish(ctx, result)
}

// Logout はセッションを無条件に破棄する。
// 永続トークンを削除し（未保存の場合もno-opとして成功）、メモリ上の状態を
// クリアする。削除がI/Oエラーで失敗してもメモリ上の状態は必ずクリアされる。
func (m *Manager) Logout(ctx context.Context) error {
	err := m.store.Delete(ctx)
	if err != nil {
		m.logger.Error("永続トークンの削除に失敗しました",
			slog.String("error", err.Error()),
		)
	}

	m.setState(func(s *State) {
		s.User = nil
		s.Token = ""
	})

	m.logger.Info("ログアウトしました")
	return err
}

// establish はlogin/register成功後の共通処理。
// トークンの永続化はHTTP呼び出し成功の後に直列に行う（投機的な書き込みはしない）。
func (m *Manager) establish(ctx context.Context, result *api.AuthResult) error {
	if err := m.store.Save(ctx, result.Token); err != nil {
		m.logger.Error("トークンの永続化に失敗しました",
			slog.String("error", err.Error()),
		)
		return &model.AuthError{Message: model.GenericErrorMessage}
	}

	user := result.User
	m.setState(func(s *State) {
		s.Token = result.Token
		s.User = &user
	})

	m.logger.Info("ログインしました",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return nil
}

// authError はAPIエラーを表示用の*model.AuthErrorに畳み込む。
// ネットワーク失敗・検証失敗・認証拒否は区別せず、メッセージのみを保持する。
func authError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return &model.AuthError{Message: apiErr.Message}
	}
	return &model.AuthError{Message: model.GenericErrorMessage}
}
