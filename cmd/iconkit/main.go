package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run はサブコマンドを振り分けて終了コードを返します。
func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printMainHelp(stderr)
		return exitUsage
	}

	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	switch args[0] {
	case "generate":
		return a.runGenerate(ctx, args[1:])
	case "transform":
		return a.runTransform(ctx, args[1:])
	case "login":
		return a.runLogin(ctx, args[1:])
	case "logout":
		return a.runLogout(ctx, args[1:])
	case "health":
		return a.runHealth(ctx, args[1:])
	case "help", "--help", "-h":
		printMainHelp(stdout)
		return exitOK
	}

	fmt.Fprintf(stderr, "unknown command: %s\n\n", args[0])
	printMainHelp(stderr)
	return exitUsage
}

func printMainHelp(w io.Writer) {
	fmt.Fprintln(w, "iconkit - Gemini で透過背景のアイコンを生成します")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate    テキストからアイコンを生成")
	fmt.Fprintln(w, "  transform   画像をアイコンに変換")
	fmt.Fprintln(w, "  login       バックエンドにログインしてセッションを保存 (proxy)")
	fmt.Fprintln(w, "  logout      保存済みのセッションを削除")
	fmt.Fprintln(w, "  health      バックエンドの稼働状況を確認 (proxy)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Examples:")
	fmt.Fprintln(w, "  iconkit generate -prompt \"a tin cup\" -color bw")
	fmt.Fprintln(w, "  iconkit transform -source ./lantern.jpg -color color -kind illustration")
	fmt.Fprintln(w, "  ICONKIT_PROVIDER=proxy iconkit login -username arthur")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'iconkit <command> -h' for command options.")
}

// newLogger はCLI用の slog ロガーを stderr に向けて作ります。
func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
