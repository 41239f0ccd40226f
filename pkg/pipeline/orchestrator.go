package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/generator"
	"github.com/shouni/gemini-icon-kit/pkg/imgutil"
	"github.com/shouni/gemini-icon-kit/pkg/prompt"
)

// Processor は生成された画像を成果物の data URL に変換します。
// エラーを返す場合も data URL は利用可能でなければなりません。
type Processor func(data []byte, mimeType string) (string, error)

// Orchestrator はプロンプト組み立てから透過処理までを1回の送信として実行します。
// 生成後は不変で、複数の goroutine から共有できます。
type Orchestrator struct {
	client       generator.GenerationClient
	credentials  domain.CredentialProvider
	defaultModel string
	now          func() time.Time
	process      Processor
}

// Option は Orchestrator の設定を変更します。
type Option func(*Orchestrator)

// WithClock は成果物の作成時刻に使う時計を差し替えます。
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithProcessor は後処理を差し替えます。
func WithProcessor(p Processor) Option {
	return func(o *Orchestrator) {
		if p != nil {
			o.process = p
		}
	}
}

// NewOrchestrator は依存関係を注入して Orchestrator を初期化します。
func NewOrchestrator(client generator.GenerationClient, credentials domain.CredentialProvider, defaultModel string, opts ...Option) (*Orchestrator, error) {
	if client == nil {
		return nil, fmt.Errorf("client is required")
	}
	if credentials == nil {
		return nil, fmt.Errorf("credentials is required")
	}
	if defaultModel == "" {
		defaultModel = generator.DefaultModel
	}

	o := &Orchestrator{
		client:       client,
		credentials:  credentials,
		defaultModel: defaultModel,
		now:          time.Now,
		process:      imgutil.RecoverTransparency,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run は1回の送信を実行し、終端状態 (Done または Failed) の Submission を返します。
// すべての失敗は分類済みの Failure として Result に格納されます。
func (o *Orchestrator) Run(ctx context.Context, req *domain.GenerationRequest) *Submission {
	sub := newSubmission(req)
	logger := slog.With("submission_id", sub.ID)

	sub.transition(StateBuilding)
	call, err := o.build(req)
	if err != nil {
		logger.WarnContext(ctx, "リクエストを組み立てられませんでした", "error", err)
		sub.fail(err)
		return sub
	}

	sub.transition(StateRequesting)
	logger.InfoContext(ctx, "画像生成をリクエストします", "mode", req.Mode, "model", call.Model, "color_mode", req.ColorMode)
	resp, err := o.client.Send(ctx, call)
	if err != nil {
		ge := domain.Classify(err)
		if ge.Kind == domain.KindSessionExpired {
			o.credentials.OnSessionExpired()
		}
		logger.ErrorContext(ctx, "画像生成に失敗しました", "kind", ge.Kind, "error", err)
		sub.fail(ge)
		return sub
	}
	if resp == nil || len(resp.Data) == 0 {
		sub.fail(domain.NewError(domain.KindNoImage, "no image data in response", nil))
		return sub
	}

	sub.transition(StatePostProcessing)
	sub.succeed(o.postProcess(ctx, logger, sub, req, resp))
	logger.InfoContext(ctx, "画像生成が完了しました", "bytes", len(resp.Data))
	return sub
}

// build は検証・資格情報の解決・ペイロードの組み立てを行います。ここでの失敗は通信前に確定します。
func (o *Orchestrator) build(req *domain.GenerationRequest) (generator.Call, error) {
	if req == nil {
		return generator.Call{}, domain.NewValidationError("request is required")
	}
	if err := req.Validate(); err != nil {
		return generator.Call{}, err
	}
	if ms, ok := o.client.(generator.ModeSupporter); ok && !ms.SupportsMode(req.Mode) {
		return generator.Call{}, domain.NewValidationError(fmt.Sprintf("%s mode is not supported by this provider", req.Mode))
	}

	creds, ok := o.credentials.Credentials()
	if !ok {
		return generator.Call{}, domain.NewError(domain.KindMissingCredentials, "no API key or session token is configured", nil)
	}

	directive := prompt.BuildStyleDirective(req.ColorMode, req.EffectiveOutputKind())
	payload, err := prompt.ComposeRequest(req, directive)
	if err != nil {
		return generator.Call{}, err
	}

	model := req.Model
	if model == "" {
		model = o.defaultModel
	}
	return generator.Call{Payload: payload, Request: req, Model: model, Credentials: creds}, nil
}

// postProcess は透過処理を行います。デコードできない場合も元画像で成果物を作ります。
func (o *Orchestrator) postProcess(ctx context.Context, logger *slog.Logger, sub *Submission, req *domain.GenerationRequest, resp *domain.ImageResponse) domain.Artifact {
	artifact := domain.Artifact{
		Prompt:    req.Prompt,
		Mode:      req.Mode,
		CreatedAt: o.now(),
	}

	dataURL, err := o.process(resp.Data, resp.MimeType)
	if err != nil {
		logger.WarnContext(ctx, "透過処理をスキップして元画像を返します", "error", err)
		sub.warning = err
		if dataURL == "" {
			dataURL = imgutil.EncodeDataURL(resp.MimeType, resp.Data)
		}
		artifact.DataURL = dataURL
		artifact.MimeType = resp.MimeType
		return artifact
	}

	artifact.DataURL = dataURL
	artifact.MimeType = "image/png"
	artifact.Transparent = true
	return artifact
}
