// Package app はCLIのエントリーポイントとサブコマンドのディスパッチを提供する。
package app

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hitoshi/bentocli/internal/api"
	"github.com/hitoshi/bentocli/internal/config"
	"github.com/hitoshi/bentocli/internal/logger"
	"github.com/hitoshi/bentocli/internal/model"
	"github.com/hitoshi/bentocli/internal/session"
	"github.com/hitoshi/bentocli/internal/stubserver"
	"github.com/hitoshi/bentocli/internal/tokenstore"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// ログはwに出力する（通常はos.Stderr。標準出力はコマンド結果用）。
func Init(w io.Writer) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応する処理を実行する。
// コマンド結果はstdoutへ、ログはstderrへ出力する。argsにはos.Args[1:]を渡す。
func Run(stdout, stderr io.Writer, args []string) error {
	cmd := ParseCommand(args)

	if cmd == CommandHelp {
		printUsage(stdout)
		return nil
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("STUB_PORT")
		if port == "" {
			port = "8090"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(stderr)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	if cmd == CommandStub {
		return runStub(cfg)
	}

	return runClient(cfg, cmd, args[1:], stdout)
}

// runClient はクライアント系サブコマンドを実行する。
// トークンストアを開き、APIクライアントとセッションマネージャをワイヤリングし、
// 起動時に1回Hydrateでセッションを復元してからコマンドを実行する。
func runClient(cfg *config.Config, cmd Command, args []string, stdout io.Writer) error {
	store, err := tokenstore.OpenBolt(cfg.TokenPath)
	if err != nil {
		return fmt.Errorf("failed to open token store: %w", err)
	}
	defer store.Close()

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	client := api.NewClient(cfg.BaseURL, httpClient, store, slog.Default(), nil)
	mgr := session.NewManager(client, store, slog.Default())

	ctx := context.Background()
	mgr.Hydrate(ctx)

	switch cmd {
	case CommandLogin:
		return runLogin(ctx, mgr, args, stdout)
	case CommandRegister:
		return runRegister(ctx, mgr, args, stdout)
	case CommandLogout:
		return runLogout(ctx, mgr, stdout)
	case CommandWhoami:
		return runWhoami(mgr, stdout)
	case CommandMenu:
		return runMenu(ctx, mgr, client, stdout)
	case CommandSubscription:
		return runSubscription(ctx, mgr, client, stdout)
	case CommandSubscribe:
		return runSubscribe(ctx, mgr, client, args, stdout)
	case CommandSkip:
		return runSkip(ctx, mgr, client, args, stdout)
	case CommandWallet:
		return runWallet(ctx, mgr, client, stdout)
	case CommandDeliveries:
		return runDeliveries(ctx, mgr, client, stdout)
	case CommandDeliver:
		return runDeliver(ctx, mgr, client, args, stdout)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

// requireLogin はセッションがログイン済みであることを確認する。
func requireLogin(mgr *session.Manager) error {
	if !mgr.State().LoggedIn() {
		return fmt.Errorf("ログインしていません。先に `bentocli login` を実行してください")
	}
	return nil
}

func runLogin(ctx context.Context, mgr *session.Manager, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" || *password == "" {
		return fmt.Errorf("usage: bentocli login -email <email> -password <password>")
	}

	if err := mgr.Login(ctx, *email, *password); err != nil {
		return err
	}

	state := mgr.State()
	fmt.Fprintf(stdout, "ログインしました: %s (%s)\n", state.User.Name, state.User.Role)
	return nil
}

func runRegister(ctx context.Context, mgr *session.Manager, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	name := fs.String("name", "", "名前")
	email := fs.String("email", "", "メールアドレス")
	password := fs.String("password", "", "パスワード")
	phone := fs.String("phone", "", "電話番号（任意）")
	address := fs.String("address", "", "住所（任意）")
	role := fs.String("role", "", "ロール: customer / driver（省略時はcustomer）")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" || *password == "" {
		return fmt.Errorf("usage: bentocli register -name <name> -email <email> -password <password> [-phone <phone>] [-address <address>] [-role <role>]")
	}

	err := mgr.Register(ctx, session.RegisterInput{
		Name:     *name,
		Email:    *email,
		Password: *password,
		Phone:    *phone,
		Address:  *address,
		Role:     model.Role(*role),
	})
	if err != nil {
		return err
	}

	state := mgr.State()
	fmt.Fprintf(stdout, "アカウントを作成しました: %s (%s)\n", state.User.Name, state.User.Role)
	return nil
}

func runLogout(ctx context.Context, mgr *session.Manager, stdout io.Writer) error {
	if err := mgr.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "ログアウトしました。")
	return nil
}

func runWhoami(mgr *session.Manager, stdout io.Writer) error {
	state := mgr.State()
	if !state.LoggedIn() {
		fmt.Fprintln(stdout, "ログインしていません。")
		return nil
	}

	u := state.User
	fmt.Fprintf(stdout, "%s <%s>\n", u.Name, u.Email)
	fmt.Fprintf(stdout, "  ロール: %s\n", u.Role)
	if u.Phone != "" {
		fmt.Fprintf(stdout, "  電話番号: %s\n", u.Phone)
	}
	if u.Address != "" {
		fmt.Fprintf(stdout, "  住所: %s\n", u.Address)
	}
	return nil
}

func runMenu(ctx context.Context, mgr *session.Manager, client *api.Client, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	menu, err := client.WeeklyMenu(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s の週のメニュー:\n", menu.WeekOf)
	for _, item := range menu.Items {
		fmt.Fprintf(stdout, "  %-9s %-6s %s (%dkcal)\n", item.Day, item.MealType, item.Name, item.Calories)
	}
	return nil
}

func runSubscription(ctx context.Context, mgr *session.Manager, client *api.Client, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	sub, err := client.Subscription(ctx)
	if err != nil {
		if model.IsNotFound(err) {
			fmt.Fprintln(stdout, "定期購入はありません。`bentocli subscribe` で開始できます。")
			return nil
		}
		return err
	}

	printSubscription(stdout, sub)
	return nil
}

func runSubscribe(ctx context.Context, mgr *session.Manager, client *api.Client, args []string, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	fs := flag.NewFlagSet("subscribe", flag.ContinueOnError)
	plan := fs.String("plan", "", "プラン名")
	address := fs.String("address", "", "配達先住所")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *plan == "" || *address == "" {
		return fmt.Errorf("usage: bentocli subscribe -plan <plan> -address <address>")
	}

	sub, err := client.CreateSubscription(ctx, model.CreateSubscriptionInput{
		Plan:            *plan,
		DeliveryAddress: *address,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(stdout, "定期購入を開始しました。")
	printSubscription(stdout, sub)
	return nil
}

func runSkip(ctx context.Context, mgr *session.Manager, client *api.Client, args []string, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	fs := flag.NewFlagSet("skip", flag.ContinueOnError)
	date := fs.String("date", "", "日付（YYYY-MM-DD）")
	meal := fs.String("meal", "", "食事種別: lunch / dinner")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *date == "" || *meal == "" {
		return fmt.Errorf("usage: bentocli skip -date <YYYY-MM-DD> -meal <lunch|dinner>")
	}

	err := client.SkipMeal(ctx, model.SkipMealInput{
		Date:     *date,
		MealType: model.MealType(*meal),
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "%s の %s をスキップしました。\n", *date, *meal)
	return nil
}

func runWallet(ctx context.Context, mgr *session.Manager, client *api.Client, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	wallet, err := client.Wallet(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "残高: %d円\n", wallet.Balance)
	for _, tx := range wallet.Transactions {
		fmt.Fprintf(stdout, "  %s %+d円 %s %s\n",
			tx.CreatedAt.Format("2006-01-02"), tx.Amount, tx.Kind, tx.Note)
	}
	return nil
}

func runDeliveries(ctx context.Context, mgr *session.Manager, client *api.Client, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	deliveries, err := client.Deliveries(ctx)
	if err != nil {
		return err
	}

	if len(deliveries) == 0 {
		fmt.Fprintln(stdout, "割り当てられた配達はありません。")
		return nil
	}

	for _, d := range deliveries {
		fmt.Fprintf(stdout, "%s [%s] %s %s (%s)\n",
			d.ID, d.Status, d.CustomerName, d.Address, d.MealType)
	}
	return nil
}

func runDeliver(ctx context.Context, mgr *session.Manager, client *api.Client, args []string, stdout io.Writer) error {
	if err := requireLogin(mgr); err != nil {
		return err
	}

	fs := flag.NewFlagSet("deliver", flag.ContinueOnError)
	id := fs.String("id", "", "配達ID")
	status := fs.String("status", "", "状態: assigned / picked_up / delivered")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *id == "" || *status == "" {
		return fmt.Errorf("usage: bentocli deliver -id <delivery-id> -status <assigned|picked_up|delivered>")
	}

	delivery, err := client.UpdateDeliveryStatus(ctx, *id, model.DeliveryStatus(*status))
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "配達 %s を %s に更新しました。\n", delivery.ID, delivery.Status)
	return nil
}

// printSubscription は定期購入1件を整形して出力する。
func printSubscription(stdout io.Writer, sub *model.Subscription) {
	fmt.Fprintf(stdout, "プラン: %s (%s)\n", sub.Plan, sub.Status)
	fmt.Fprintf(stdout, "  配達先: %s\n", sub.DeliveryAddress)
	fmt.Fprintf(stdout, "  開始日: %s\n", sub.StartedAt.Format("2006-01-02"))
	if len(sub.SkippedMeals) > 0 {
		fmt.Fprintln(stdout, "  スキップ済み:")
		for _, s := range sub.SkippedMeals {
			fmt.Fprintf(stdout, "    %s %s\n", s.Date, s.MealType)
		}
	}
}

// runStub はローカル開発用スタブサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runStub(cfg *config.Config) error {
	srv := stubserver.NewServer(slog.Default(), stubserver.Config{
		RatePerMinute: cfg.StubRateLimit,
		Burst:         cfg.StubRateBurst,
	})
	defer srv.Close()

	server := &http.Server{
		Addr:         ":" + cfg.StubPort,
		Handler:      srv.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("stub server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down stub server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("stub server stopped gracefully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// printUsage は使い方を出力する。
func printUsage(w io.Writer) {
	fmt.Fprint(w, `bentocli - Bento-Ya 定期宅配サービスのクライアント

Usage:
  bentocli <command> [flags]

Commands:
  login         ログインする (-email, -password)
  register      アカウントを作成してログインする (-name, -email, -password, [-phone, -address, -role])
  logout        ログアウトする
  whoami        現在のユーザーを表示する
  menu          今週のメニューを表示する
  subscription  現在の定期購入を表示する
  subscribe     定期購入を開始する (-plan, -address)
  skip          1食をスキップする (-date, -meal)
  wallet        ウォレット残高と取引履歴を表示する
  deliveries    割り当て済みの配達一覧を表示する（ドライバー用）
  deliver       配達の状態を更新する (-id, -status)（ドライバー用）
  stub          ローカル開発用スタブサーバーを起動する
  healthcheck   スタブサーバーの死活確認を行う
`)
}
