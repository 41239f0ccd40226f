package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/imgutil"
	"github.com/shouni/gemini-icon-kit/pkg/session"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func whitePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.Black)
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

// newBackend はログイン・生成・ヘルスチェックを持つ偽のバックエンドなのだ。
func newBackend(t *testing.T, imageData []byte) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.HandleFunc("/api/login", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"token": "jwt-cli", "user": map[string]any{"id": 1, "username": "arthur"}})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/generate", func(w http.ResponseWriter, req *http.Request) {
		if req.Header.Get("Authorization") != "Bearer jwt-cli" {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "invalid token"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"image": "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageData)})
	}).Methods(http.MethodPost)
	r.HandleFunc("/api/health", func(w http.ResponseWriter, req *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "running"})
	}).Methods(http.MethodGet)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func proxyEnv(t *testing.T, apiURL string) string {
	t.Helper()
	sessionFile := filepath.Join(t.TempDir(), "session.json")
	t.Setenv("ICONKIT_PROVIDER", "proxy")
	t.Setenv("ICONKIT_API_URL", apiURL)
	t.Setenv("ICONKIT_SESSION_FILE", sessionFile)
	t.Setenv("ICONKIT_LOG_LEVEL", "error")
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash-image")
	return sessionFile
}

func TestRun_ProxyFlow(t *testing.T) {
	ctx := context.Background()
	srv := newBackend(t, whitePNG(t))
	sessionFile := proxyEnv(t, srv.URL)
	out := filepath.Join(t.TempDir(), "icons", "cup.png")

	t.Run("未ログインではMissingCredentials", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, []string{"generate", "-prompt", "a tin cup", "-out", out}, strings.NewReader(""), &stdout, &stderr)

		assert.Equal(t, exitFailure, code)
		assert.Contains(t, stderr.String(), "missing credentials")
	})

	t.Run("ログインでセッションが保存されるのだ", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, []string{"login", "-username", "arthur"}, strings.NewReader("secret\n"), &stdout, &stderr)

		require.Equal(t, exitOK, code, stderr.String())
		assert.Contains(t, stdout.String(), "arthur")
		_, err := os.Stat(sessionFile)
		assert.NoError(t, err)
	})

	t.Run("生成した透過PNGがファイルに書き出される", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, []string{"generate", "-prompt", "a tin cup", "-color", "bw", "-out", out}, strings.NewReader(""), &stdout, &stderr)

		require.Equal(t, exitOK, code, stderr.String())
		assert.Equal(t, out, strings.TrimSpace(stdout.String()))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(t, uint8(0), color.NRGBAModel.Convert(img.At(1, 1)).(color.NRGBA).A)
		assert.Equal(t, uint8(255), color.NRGBAModel.Convert(img.At(0, 0)).(color.NRGBA).A)
	})

	t.Run("health", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, []string{"health"}, strings.NewReader(""), &stdout, &stderr)

		assert.Equal(t, exitOK, code)
		assert.Contains(t, stdout.String(), "running")
	})

	t.Run("ログアウトでセッションが消える", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		code := run(ctx, []string{"logout"}, strings.NewReader(""), &stdout, &stderr)

		require.Equal(t, exitOK, code)
		_, err := os.Stat(sessionFile)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestRun_SessionExpiredClearsStoredToken(t *testing.T) {
	srv := newBackend(t, whitePNG(t))
	sessionFile := proxyEnv(t, srv.URL)
	store, err := session.NewFileStore(sessionFile)
	require.NoError(t, err)
	require.NoError(t, store.Save(domain.Session{Token: "stale", User: domain.User{Username: "arthur"}}))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"generate", "-prompt", "a lantern"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "session expired")
	_, ok := store.Credentials()
	assert.False(t, ok)
}

func TestRun_UnknownModelIsLoggedToConfiguredHandler(t *testing.T) {
	srv := newBackend(t, whitePNG(t))
	proxyEnv(t, srv.URL)
	t.Setenv("ICONKIT_LOG_LEVEL", "warn")
	t.Setenv("GEMINI_MODEL", "gemini-9-ultra-image")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"health"}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitOK, code)
	assert.Contains(t, stderr.String(), "未確認のモデルが指定されました")
	assert.Contains(t, stderr.String(), "gemini-9-ultra-image")
}

func TestRun_ProxyTransformIsRejectedBeforeSending(t *testing.T) {
	srv := newBackend(t, whitePNG(t))
	sessionFile := proxyEnv(t, srv.URL)
	store, err := session.NewFileStore(sessionFile)
	require.NoError(t, err)
	require.NoError(t, store.Save(domain.Session{Token: "jwt-cli", User: domain.User{Username: "arthur"}}))
	src := filepath.Join(t.TempDir(), "cup.png")
	require.NoError(t, os.WriteFile(src, whitePNG(t), 0o600))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"transform", "-source", src}, strings.NewReader(""), &stdout, &stderr)

	assert.Equal(t, exitFailure, code)
	assert.Contains(t, stderr.String(), "not supported")
	_, ok := store.Credentials()
	assert.True(t, ok)
}

func TestRun_Usage(t *testing.T) {
	ctx := context.Background()
	var stdout, stderr bytes.Buffer

	assert.Equal(t, exitUsage, run(ctx, nil, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"paint"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitOK, run(ctx, []string{"help"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"generate", "-color", "sepia"}, strings.NewReader(""), &stdout, &stderr))
	assert.Equal(t, exitUsage, run(ctx, []string{"generate", "-unknown"}, strings.NewReader(""), &stdout, &stderr))
}

func TestDefaultFileName(t *testing.T) {
	created := time.UnixMilli(1760864400123)

	got := defaultFileName(domain.Artifact{MimeType: "image/png", CreatedAt: created}, domain.OutputKindIllustration)
	assert.Equal(t, "icon-illustration-1760864400123.png", got)

	got = defaultFileName(domain.Artifact{MimeType: "image/jpeg", CreatedAt: created}, domain.OutputKindIcon)
	assert.Equal(t, "icon-icon-1760864400123.jpg", got)
}

func TestWriteArtifact(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "out.png")
	a := domain.Artifact{DataURL: imgutil.EncodeDataURL("image/png", []byte{1, 2, 3})}
	w, err := newStorageIO().writer(ctx, path)
	require.NoError(t, err)

	require.NoError(t, writeArtifact(ctx, w, a, path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, data)

	err = writeArtifact(ctx, w, domain.Artifact{DataURL: "not a data url"}, path)
	assert.Error(t, err)
}

func TestOutputPath(t *testing.T) {
	a := domain.Artifact{MimeType: "image/png", CreatedAt: time.UnixMilli(42)}
	assert.Equal(t, "icon-icon-42.png", outputPath(a, "", domain.OutputKindIcon))
	assert.Equal(t, "gs://icons/cup.png", outputPath(a, "gs://icons/cup.png", domain.OutputKindIcon))
}

// fakeFactory は remoteio.IOFactory のテスト用実装なのだ。
type fakeFactory struct {
	written map[string][]byte
	closed  bool
}

func (f *fakeFactory) InputReader() (remoteio.InputReader, error) { return nil, errors.New("unused") }
func (f *fakeFactory) URLSigner() (remoteio.URLSigner, error)     { return nil, errors.New("unused") }
func (f *fakeFactory) OutputWriter() (remoteio.OutputWriter, error) {
	return f, nil
}

func (f *fakeFactory) Write(_ context.Context, uri string, r io.Reader, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.written[uri] = data
	return nil
}

func (f *fakeFactory) Close() error {
	f.closed = true
	return nil
}

func TestStorageIO(t *testing.T) {
	ctx := context.Background()

	t.Run("ローカルパスではクラウドクライアントを作らないのだ", func(t *testing.T) {
		s := newStorageIO()
		s.newGCS = func(context.Context) (remoteio.IOFactory, error) {
			t.Fatal("GCS クライアントは不要なのだ")
			return nil, nil
		}
		s.newS3 = s.newGCS

		_, err := s.writer(ctx, filepath.Join(t.TempDir(), "out.png"))
		require.NoError(t, err)
		_, err = s.reader(ctx, "cup.png")
		require.NoError(t, err)
		assert.Empty(t, s.factories)
	})

	t.Run("gs:// では一度だけファクトリを作って使い回すのだ", func(t *testing.T) {
		fake := &fakeFactory{written: map[string][]byte{}}
		created := 0
		s := newStorageIO()
		s.newGCS = func(context.Context) (remoteio.IOFactory, error) {
			created++
			return fake, nil
		}
		a := domain.Artifact{DataURL: imgutil.EncodeDataURL("image/png", []byte{9})}

		for i := 0; i < 2; i++ {
			w, err := s.writer(ctx, "gs://icons/cup.png")
			require.NoError(t, err)
			require.NoError(t, writeArtifact(ctx, w, a, "gs://icons/cup.png"))
		}

		assert.Equal(t, 1, created)
		assert.Equal(t, []byte{9}, fake.written["gs://icons/cup.png"])
		require.NoError(t, s.Close())
		assert.True(t, fake.closed)
	})

	t.Run("クライアント初期化の失敗はエラーになるのだ", func(t *testing.T) {
		s := newStorageIO()
		s.newS3 = func(context.Context) (remoteio.IOFactory, error) {
			return nil, errors.New("no credentials")
		}

		_, err := s.reader(ctx, "s3://icons/cup.png")
		assert.ErrorContains(t, err, "no credentials")
	})
}
