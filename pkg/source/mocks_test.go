package source

import (
	"bytes"
	"context"
	"io"
)

// mockHTTPClient は HTTPClient のテスト用モックなのだ。
type mockHTTPClient struct {
	fetchFunc func(ctx context.Context, url string) ([]byte, error)
	unsafe    bool
	calls     int
}

func (m *mockHTTPClient) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	m.calls++
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, url)
	}
	return nil, nil
}

func (m *mockHTTPClient) IsSafeURL(string) (bool, error) {
	return !m.unsafe, nil
}

// mockInputReader は remoteio.InputReader のテスト用モックなのだ。
type mockInputReader struct {
	data     []byte
	lastPath string
}

func (m *mockInputReader) Open(_ context.Context, path string) (io.ReadCloser, error) {
	m.lastPath = path
	return io.NopCloser(bytes.NewReader(m.data)), nil
}

func (m *mockInputReader) List(context.Context, string, func(string) error) error {
	return nil
}
