package app

// Command はCLIのサブコマンドを表す。
type Command string

const (
	// CommandLogin はメールアドレスとパスワードでログインする。
	CommandLogin Command = "login"
	// CommandRegister はアカウントを作成してログインする。
	CommandRegister Command = "register"
	// CommandLogout はセッションを破棄する。
	CommandLogout Command = "logout"
	// CommandWhoami は現在のセッションのユーザーを表示する。
	CommandWhoami Command = "whoami"
	// CommandMenu は今週のメニューを表示する。
	CommandMenu Command = "menu"
	// CommandSubscription は現在の定期購入を表示する。
	CommandSubscription Command = "subscription"
	// CommandSubscribe は定期購入を作成する。
	CommandSubscribe Command = "subscribe"
	// CommandSkip は指定日の1食をスキップする。
	CommandSkip Command = "skip"
	// CommandWallet はウォレット残高と取引履歴を表示する。
	CommandWallet Command = "wallet"
	// CommandDeliveries は割り当て済みの配達一覧を表示する（ドライバー用）。
	CommandDeliveries Command = "deliveries"
	// CommandDeliver は配達の状態を更新する（ドライバー用）。
	CommandDeliver Command = "deliver"
	// CommandStub はローカル開発用スタブサーバーを起動する。
	CommandStub Command = "stub"
	// CommandHealthcheck はスタブサーバーの死活確認を行う。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
	// CommandHelp は使い方を表示する。
	CommandHelp Command = "help"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandHelpを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandHelp
	}

	switch args[0] {
	case "login":
		return CommandLogin
	case "register":
		return CommandRegister
	case "logout":
		return CommandLogout
	case "whoami":
		return CommandWhoami
	case "menu":
		return CommandMenu
	case "subscription":
		return CommandSubscription
	case "subscribe":
		return CommandSubscribe
	case "skip":
		return CommandSkip
	case "wallet":
		return CommandWallet
	case "deliveries":
		return CommandDeliveries
	case "deliver":
		return CommandDeliver
	case "stub":
		return CommandStub
	case "healthcheck":
		return CommandHealthcheck
	default:
		return CommandHelp
	}
}
