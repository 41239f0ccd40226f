package main

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/shouni/gemini-icon-kit/pkg/domain"
	"github.com/shouni/gemini-icon-kit/pkg/imgutil"
	"github.com/shouni/go-remote-io/pkg/remoteio"
)

// defaultFileName は icon-<kind>-<unixmillis>.<ext> 形式のファイル名を返します。
func defaultFileName(a domain.Artifact, kind domain.OutputKind) string {
	return fmt.Sprintf("icon-%s-%d%s", kind, a.CreatedAt.UnixMilli(), extensionFor(a.MimeType))
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}

// outputPath は -out が空なら既定のファイル名を返します。
func outputPath(a domain.Artifact, out string, kind domain.OutputKind) string {
	if out == "" {
		return defaultFileName(a, kind)
	}
	return out
}

// writeArtifact は成果物の data URL をデコードして path (ローカル、gs://、s3://) に書き出します。
func writeArtifact(ctx context.Context, w remoteio.OutputWriter, a domain.Artifact, path string) error {
	mimeType, data, err := imgutil.DecodeDataURL(a.DataURL)
	if err != nil {
		return fmt.Errorf("成果物をデコードできません: %w", err)
	}
	if err := w.Write(ctx, path, bytes.NewReader(data), mimeType); err != nil {
		return fmt.Errorf("成果物の書き込みに失敗しました: %w", err)
	}
	return nil
}
