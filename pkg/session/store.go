package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
)

const (
	appDirName      = "gemini-icon-kit"
	sessionFileName = "session.json"
)

// DefaultPath はユーザー設定ディレクトリ配下のセッションファイルのパスを返します。
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("設定ディレクトリを特定できません: %w", err)
	}
	return filepath.Join(dir, appDirName, sessionFileName), nil
}

// FileStore はトークンとユーザーを JSON ファイルに保存する CredentialProvider です。
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore は path に保存する FileStore を生成します。
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	return &FileStore{path: path}, nil
}

// Path は保存先のファイルパスを返します。
func (s *FileStore) Path() string {
	return s.path
}

// Save はセッションを書き込みます。ファイルは所有者のみ読み書き可能です。
func (s *FileStore) Save(sess domain.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("token is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("セッションディレクトリの作成に失敗しました: %w", err)
	}
	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("セッションの書き込みに失敗しました: %w", err)
	}
	return os.Rename(tmp, s.path)
}

// Load は保存済みのセッションを返します。未ログインなら nil, nil です。
func (s *FileStore) Load() (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *FileStore) load() (*domain.Session, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("セッションの読み込みに失敗しました: %w", err)
	}
	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("セッションファイルが壊れています: %w", err)
	}
	if sess.Token == "" {
		return nil, nil
	}
	return &sess, nil
}

// Clear はセッションファイルを削除します。存在しなくてもエラーにしません。
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("セッションの削除に失敗しました: %w", err)
	}
	return nil
}

// Credentials は保存済みトークンを返します。
func (s *FileStore) Credentials() (domain.Credentials, bool) {
	sess, err := s.Load()
	if err != nil {
		slog.Warn("セッションを読み込めませんでした", "path", s.path, "error", err)
		return domain.Credentials{}, false
	}
	if sess == nil {
		return domain.Credentials{}, false
	}
	return domain.Credentials{Token: sess.Token}, true
}

// OnSessionExpired はトークンとユーザーを破棄します。
func (s *FileStore) OnSessionExpired() {
	if err := s.Clear(); err != nil {
		slog.Warn("期限切れセッションの削除に失敗しました", "path", s.path, "error", err)
		return
	}
	slog.Info("セッションの期限が切れたためログアウトしました", "path", s.path)
}

// MemoryStore はプロセス内だけでセッションを保持する CredentialProvider です。
type MemoryStore struct {
	mu   sync.RWMutex
	sess *domain.Session
}

// NewMemoryStore は空の MemoryStore を生成します。
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Save(sess domain.Session) error {
	if sess.Token == "" {
		return fmt.Errorf("token is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = &sess
	return nil
}

func (m *MemoryStore) Load() (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return nil, nil
	}
	cp := *m.sess
	return &cp, nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sess = nil
	return nil
}

func (m *MemoryStore) Credentials() (domain.Credentials, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.sess == nil {
		return domain.Credentials{}, false
	}
	return domain.Credentials{Token: m.sess.Token}, true
}

func (m *MemoryStore) OnSessionExpired() {
	_ = m.Clear()
}
