package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/config"
	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/generator"
	"github.com/shouni/gemini-icon-kit/pkg/pipeline"
	"github.com/shouni/gemini-icon-kit/pkg/session"
	"github.com/shouni/gemini-icon-kit/pkg/source"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	cfg     *config.Config
	storage *storageIO
}

// requestFlags は generate と transform で共通のフラグです。
type requestFlags struct {
	prompt string
	color  string
	kind   string
	style  string
	model  string
	out    string
}

func (r *requestFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&r.color, "color", "bw", "配色 (bw | color)")
	fs.StringVar(&r.kind, "kind", "icon", "出力種別 (icon | illustration)")
	fs.StringVar(&r.style, "style", "", "スタイル (inventory | woodcut | sketch)")
	fs.StringVar(&r.model, "model", "", "モデルID (未指定なら GEMINI_MODEL)")
	fs.StringVar(&r.out, "out", "", "出力先 (ファイル, gs://, s3://。未指定なら icon-<kind>-<ms>.png)")
}

func (r *requestFlags) toRequest(mode domain.GenerationMode) (*domain.GenerationRequest, error) {
	colorMode, err := domain.ParseColorMode(r.color)
	if err != nil {
		return nil, err
	}
	kind, err := domain.ParseOutputKind(r.kind)
	if err != nil {
		return nil, err
	}
	style, err := domain.ParseIconStyle(r.style)
	if err != nil {
		return nil, err
	}
	return &domain.GenerationRequest{
		Mode:       mode,
		Prompt:     r.prompt,
		ColorMode:  colorMode,
		OutputKind: kind,
		Style:      style,
		Model:      r.model,
	}, nil
}

// setup は設定を読み込み、ロガーとストレージを準備します。
func (a *app) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg
	slog.SetDefault(newLogger(a.stderr, cfg.LogLevel))
	if cfg.UnknownModel() {
		slog.Warn("未確認のモデルが指定されました", "model", cfg.GeminiModel, "known", generator.KnownModels)
	}
	if a.storage == nil {
		a.storage = newStorageIO()
	}
	return nil
}

// close は setup で作ったクライアントを解放します。
func (a *app) close() {
	if a.storage == nil {
		return
	}
	if err := a.storage.Close(); err != nil {
		slog.Warn("ストレージクライアントのクローズに失敗しました", "error", err)
	}
}

// orchestrator は設定されたプロバイダに応じたクライアントと資格情報で Orchestrator を作ります。
func (a *app) orchestrator() (*pipeline.Orchestrator, error) {
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		client generator.GenerationClient
		creds  domain.CredentialProvider
	)
	switch a.cfg.Provider {
	case config.ProviderProxy:
		proxy, err := a.proxyClient()
		if err != nil {
			return nil, err
		}
		store, err := session.NewFileStore(a.cfg.SessionFile)
		if err != nil {
			return nil, err
		}
		client, creds = proxy, store
	default:
		gemini, err := generator.NewGeminiClient(generator.NewGenaiClientFactory(&http.Client{Timeout: a.cfg.HTTPTimeout}))
		if err != nil {
			return nil, err
		}
		client, creds = gemini, session.NewStaticProvider(a.cfg.GeminiAPIKey)
	}

	return pipeline.NewOrchestrator(client, creds, a.cfg.GeminiModel)
}

func (a *app) proxyClient() (*generator.ProxyClient, error) {
	return generator.NewProxyClient(a.cfg.APIURL, generator.NewBackendHTTPClient(a.cfg.HTTPTimeout))
}

func (a *app) runGenerate(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var rf requestFlags
	fs.StringVar(&rf.prompt, "prompt", "", "描く対象の説明 (必須)")
	rf.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	req, err := rf.toRequest(domain.ModeGenerate)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	return a.submit(ctx, req, rf.out)
}

func (a *app) runTransform(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("transform", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	var rf requestFlags
	var src string
	fs.StringVar(&src, "source", "", "元画像のファイルパス, gs://, s3:// または http(s) URL (必須)")
	fs.StringVar(&rf.prompt, "prompt", "", "追加の指示 (任意)")
	rf.register(fs)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	req, err := rf.toRequest(domain.ModeTransform)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}

	defer a.close()

	if src = strings.TrimSpace(src); src != "" {
		reader, err := a.storage.reader(ctx, src)
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitFailure
		}
		// 利用者が指定した任意の URL を取得するため、SSRF 検証を有効にしたまま使う
		fetcher := httpkit.New(a.cfg.HTTPTimeout, httpkit.WithMaxRetries(0))
		loader, err := source.NewLoader(fetcher, source.WithInputReader(reader), source.WithMaxBytes(a.cfg.MaxSourceBytes))
		if err != nil {
			fmt.Fprintln(a.stderr, err)
			return exitFailure
		}
		img, err := loader.Load(ctx, src)
		if err != nil {
			fmt.Fprintln(a.stderr, formatFailure(domain.NewFailureResult(err)))
			return exitFailure
		}
		req.Source = img
	}
	return a.execute(ctx, req, rf.out)
}

// submit は設定を読み込んでから1回の送信を実行します。
func (a *app) submit(ctx context.Context, req *domain.GenerationRequest, out string) int {
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	defer a.close()
	return a.execute(ctx, req, out)
}

func (a *app) execute(ctx context.Context, req *domain.GenerationRequest, out string) int {
	orch, err := a.orchestrator()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}

	sub := orch.Run(ctx, req)
	artifact, ok := sub.Result.Artifact()
	if !ok {
		fmt.Fprintln(a.stderr, formatFailure(sub.Result))
		return exitFailure
	}
	if sub.Warning() != nil {
		fmt.Fprintln(a.stderr, "warning: 背景を透過できなかったため元画像を保存します")
	}

	path := outputPath(artifact, out, req.EffectiveOutputKind())
	w, err := a.storage.writer(ctx, path)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	if err := writeArtifact(ctx, w, artifact, path); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	fmt.Fprintln(a.stdout, path)
	return exitOK
}

func (a *app) runLogin(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	username := fs.String("username", "", "ユーザー名 (必須)")
	password := fs.String("password", "", "パスワード (未指定なら標準入力から読み込み)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}

	if *password == "" {
		fmt.Fprint(a.stderr, "Password: ")
		line, err := bufio.NewReader(a.stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintln(a.stderr, err)
			return exitFailure
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	client, err := a.proxyClient()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	sess, err := client.Login(ctx, *username, *password)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}

	store, err := session.NewFileStore(a.cfg.SessionFile)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	if err := store.Save(*sess); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	slog.InfoContext(ctx, "ログインしました", "username", sess.User.Username, "session_file", store.Path())
	fmt.Fprintf(a.stdout, "logged in as %s\n", sess.User.Username)
	return exitOK
}

func (a *app) runLogout(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}

	store, err := session.NewFileStore(a.cfg.SessionFile)
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	if err := store.Clear(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitFailure
	}
	slog.InfoContext(ctx, "ログアウトしました", "session_file", store.Path())
	fmt.Fprintln(a.stdout, "logged out")
	return exitOK
}

func (a *app) runHealth(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("health", flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if err := a.setup(); err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}

	client, err := a.proxyClient()
	if err != nil {
		fmt.Fprintln(a.stderr, err)
		return exitUsage
	}
	if !client.Health(ctx) {
		fmt.Fprintf(a.stdout, "backend %s is unreachable\n", a.cfg.APIURL)
		return exitFailure
	}
	fmt.Fprintf(a.stdout, "backend %s is running\n", a.cfg.APIURL)
	return exitOK
}

// formatFailure は利用者向けのエラーメッセージを作ります。
func formatFailure(result domain.GenerationResult) string {
	failure, ok := result.Failure()
	if !ok {
		return ""
	}
	switch failure.Kind {
	case domain.KindSessionExpired:
		return "session expired: run 'iconkit login' again (" + failure.Message + ")"
	case domain.KindMissingCredentials:
		return "missing credentials: set GEMINI_API_KEY or run 'iconkit login' (" + failure.Message + ")"
	}
	return fmt.Sprintf("%s: %s", failure.Kind, failure.Message)
}
