package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/shouni/go-remote-io/pkg/gcsfactory"
	"github.com/shouni/go-remote-io/pkg/remoteio"
	"github.com/shouni/go-remote-io/pkg/s3factory"
)

// storageIO は参照先のスキームに応じて remoteio の入出力を用意します。
// クラウドのクライアントは gs:// や s3:// が指定されたときだけ作ります。
type storageIO struct {
	factories map[string]remoteio.IOFactory
	newGCS    func(ctx context.Context) (remoteio.IOFactory, error)
	newS3     func(ctx context.Context) (remoteio.IOFactory, error)
}

func newStorageIO() *storageIO {
	return &storageIO{
		factories: make(map[string]remoteio.IOFactory),
		newGCS:    gcsfactory.New,
		newS3:     s3factory.New,
	}
}

// factory はクラウド URI に対応する IOFactory を返します。ローカルパスなら nil です。
func (s *storageIO) factory(ctx context.Context, ref string) (remoteio.IOFactory, error) {
	var (
		scheme string
		create func(ctx context.Context) (remoteio.IOFactory, error)
	)
	switch {
	case remoteio.IsGCSURI(ref):
		scheme, create = "gs", s.newGCS
	case remoteio.IsS3URI(ref):
		scheme, create = "s3", s.newS3
	default:
		return nil, nil
	}

	if f, ok := s.factories[scheme]; ok {
		return f, nil
	}
	f, err := create(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s:// のクライアント初期化に失敗しました: %w", scheme, err)
	}
	s.factories[scheme] = f
	return f, nil
}

// reader は ref を読むための InputReader を返します。
func (s *storageIO) reader(ctx context.Context, ref string) (remoteio.InputReader, error) {
	f, err := s.factory(ctx, ref)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return remoteio.NewUniversalInputReader(nil, nil), nil
	}
	return f.InputReader()
}

// writer は path に書き込むための OutputWriter を返します。
func (s *storageIO) writer(ctx context.Context, path string) (remoteio.OutputWriter, error) {
	f, err := s.factory(ctx, path)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return remoteio.NewUniversalIOWriter(nil, nil), nil
	}
	return f.OutputWriter()
}

// Close は作成したクライアントをすべて閉じます。
func (s *storageIO) Close() error {
	var errs []error
	for _, f := range s.factories {
		errs = append(errs, f.Close())
	}
	return errors.Join(errs...)
}
