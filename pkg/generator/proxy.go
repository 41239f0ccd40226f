package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/imgutil"
	"github.com/shouni/go-http-kit/pkg/httpkit"
)

// DefaultProxyTimeout はバックエンド呼び出しの既定タイムアウトです。
const DefaultProxyTimeout = 120 * time.Second

// serverErrorPattern は httpkit が 5xx を報告するエラー文からステータスコードを取り出します。
var serverErrorPattern = regexp.MustCompile(`\(5xx[^)]*\):\s*(\d{3})`)

// RequestDoer は ProxyClient が使う HTTP 実行部分です。httpkit.Client が満たします。
type RequestDoer interface {
	DoRequest(req *http.Request) ([]byte, error)
}

// NewBackendHTTPClient は設定済みバックエンド向けの httpkit クライアントを生成します。
// バックエンドURLは利用者が明示的に設定するため、ネットワーク検証は行いません。リトライもしません。
func NewBackendHTTPClient(timeout time.Duration, opts ...httpkit.ClientOption) *httpkit.Client {
	if timeout <= 0 {
		timeout = DefaultProxyTimeout
	}
	base := []httpkit.ClientOption{
		httpkit.WithMaxRetries(0),
		httpkit.WithSkipNetworkValidation(true),
	}
	return httpkit.New(timeout, append(base, opts...)...)
}

// ProxyClient はバックエンド (POST /api/generate) 経由で画像を生成する GenerationClient です。
// プロンプトの組み立てとモデル選択はバックエンド側で行われます。
type ProxyClient struct {
	baseURL string
	http    RequestDoer
}

// NewProxyClient はバックエンドのベースURLと HTTP クライアントを受け取って初期化します。
// httpClient が nil の場合は NewBackendHTTPClient の既定値を使います。
func NewProxyClient(baseURL string, httpClient RequestDoer) (*ProxyClient, error) {
	base, err := normalizeBaseURL(baseURL)
	if err != nil {
		return nil, err
	}
	if httpClient == nil {
		httpClient = NewBackendHTTPClient(DefaultProxyTimeout)
	}
	return &ProxyClient{baseURL: base, http: httpClient}, nil
}

// SupportsMode はバックエンドが扱える生成モードかを返します。変換モードは扱えません。
func (c *ProxyClient) SupportsMode(mode domain.GenerationMode) bool {
	return mode != domain.ModeTransform
}

// Send はリクエストをバックエンドに送り、返された data URL を画像データに戻します。
// 401 は SessionExpired、それ以外の失敗は TransportFailure です。
func (c *ProxyClient) Send(ctx context.Context, call Call) (*domain.ImageResponse, error) {
	if call.Credentials.Token == "" {
		return nil, domain.NewError(domain.KindMissingCredentials, "not logged in: session token is missing", nil)
	}
	req := call.Request
	if req == nil {
		return nil, domain.NewValidationError("request is required")
	}
	if !c.SupportsMode(req.Mode) {
		return nil, domain.NewValidationError("transform mode is not supported by the backend proxy")
	}

	body := generateRequest{
		Prompt:     req.Prompt,
		Style:      string(req.EffectiveStyle()),
		ColorMode:  string(colorModeOrDefault(req.ColorMode)),
		OutputType: string(req.EffectiveOutputKind()),
	}

	var out generateResponse
	if err := c.postJSON(ctx, endpointGenerate, call.Credentials.Token, body, &out); err != nil {
		return nil, classifyBackendError(ctx, err)
	}

	if out.Image == "" {
		return nil, domain.NewError(domain.KindNoImage, "backend returned no image", nil)
	}
	mimeType, data, err := imgutil.DecodeDataURL(out.Image)
	if err != nil || len(data) == 0 {
		return nil, domain.NewError(domain.KindNoImage, "backend returned an invalid image data URL", err)
	}
	return &domain.ImageResponse{Data: data, MimeType: mimeType}, nil
}

// Login は認証サービスにログインし、トークンとユーザーを返します。保存は呼び出し側の責務です。
func (c *ProxyClient) Login(ctx context.Context, username, password string) (*domain.Session, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, domain.NewValidationError("username and password are required")
	}

	var out loginResponse
	if err := c.postJSON(ctx, endpointLogin, "", loginRequest{Username: username, Password: password}, &out); err != nil {
		var httpErr *httpkit.NonRetryableHTTPError
		if errors.As(err, &httpErr) {
			return nil, fmt.Errorf("ログインに失敗しました: %s", messageOr(errorField(httpErr.Body), fmt.Sprintf("HTTP %d", httpErr.StatusCode)))
		}
		return nil, fmt.Errorf("ログインリクエストに失敗しました: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("ログイン応答にトークンがありません")
	}

	user := domain.User{Username: out.User.Username, Email: out.User.Email}
	if out.User.ID != nil {
		user.ID = fmt.Sprint(out.User.ID)
	}
	if user.Username == "" {
		user.Username = username
	}
	return &domain.Session{Token: out.Token, User: user}, nil
}

// Health はバックエンドが応答可能かを返します。
func (c *ProxyClient) Health(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, joinEndpoint(c.baseURL, endpointHealth), nil)
	if err != nil {
		return false
	}
	if _, err := c.http.DoRequest(req); err != nil {
		slog.DebugContext(ctx, "ヘルスチェックに失敗しました", "error", err)
		return false
	}
	return true
}

// postJSON は JSON を POST し、2xx の応答ボディを out にデコードします。
// 非 2xx は httpkit のエラーをそのまま返します。
func (c *ProxyClient) postJSON(ctx context.Context, endpoint, token string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("リクエストのエンコードに失敗しました: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, joinEndpoint(c.baseURL, endpoint), bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	raw, err := c.http.DoRequest(req)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("応答のデコードに失敗しました: %w", err)
	}
	return nil
}

// classifyBackendError は httpkit のエラーを GenerationError に分類します。
func classifyBackendError(ctx context.Context, err error) error {
	var httpErr *httpkit.NonRetryableHTTPError
	if errors.As(err, &httpErr) {
		msg := errorField(httpErr.Body)
		if httpErr.StatusCode == http.StatusUnauthorized {
			slog.WarnContext(ctx, "バックエンドが401を返しました。セッションが期限切れの可能性があります")
			return domain.NewError(domain.KindSessionExpired, messageOr(msg, "session expired, please log in again"), nil)
		}
		return domain.NewError(domain.KindTransport, messageOr(msg, fmt.Sprintf("backend returned HTTP %d", httpErr.StatusCode)), nil)
	}

	text := err.Error()
	if m := serverErrorPattern.FindStringSubmatch(text); m != nil {
		code, _ := strconv.Atoi(m[1])
		msg := ""
		if i := strings.Index(text, "{"); i >= 0 {
			msg = errorField([]byte(text[i:]))
		}
		return domain.NewError(domain.KindTransport, messageOr(msg, fmt.Sprintf("backend returned HTTP %d", code)), nil)
	}
	return domain.NewError(domain.KindTransport, "backend request failed", err)
}

// errorField は {"error": "..."} 形式のボディからメッセージを取り出します。JSON でなければ空文字です。
func errorField(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	// 後続のテキストは無視する
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		return ""
	}
	return payload.Error
}

func colorModeOrDefault(m domain.ColorMode) domain.ColorMode {
	if m == "" {
		return domain.ColorModeMonochrome
	}
	return m
}

func messageOr(msg, fallback string) string {
	if strings.TrimSpace(msg) == "" {
		return fallback
	}
	return msg
}
