// Package cli 实现 yourls 命令行：全局参数决定连哪个实例、用什么凭证，
// 子命令对应 API 的各个 action，另外有 bulk/history/ingest/exporter 几个运维命令。
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"yourls.local/internal/platform/config"
	"yourls.local/yourls"
)

// 退出码
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// Env 是一次运行的外部环境。
type Env struct {
	Config  config.Config
	Stdout  io.Writer
	Stderr  io.Writer
	Logger  *slog.Logger
	Version string
}

// usageError 打印用法后以 exitUsage 退出。
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"shorten":        {"shorten URL [-keyword K] [-title T] [-simple] [-only-new]", runShorten},
	"expand":         {"expand SHORTURL", runExpand},
	"url-stats":      {"url-stats SHORTURL", runURLStats},
	"stats":          {"stats [-filter top|bottom|rand|last] [-limit N] [-start N]", runStats},
	"db-stats":       {"db-stats", runDBStats},
	"delete":         {"delete SHORTURL", runDelete},
	"geturl":         {"geturl URL", runGetURL},
	"update":         {"update SHORTURL URL [-title T] [-keep-title]", runUpdate},
	"change-keyword": {"change-keyword NEWKEYWORD [-old K] [-url U] [-title T] [-keep-title]", runChangeKeyword},
	"bulk":           {"bulk FILE [-keywords] [-seed N] [-title T]   (FILE=- reads stdin)", runBulk},
	"history":        {"history [-keyword K] [-limit N]", runHistory},
	"ingest":         {"ingest   (Kafka link events -> history table)", runIngest},
	"exporter":       {"exporter   (serve db-stats as Prometheus metrics)", runExporter},
}

// Run 解析 args（不含程序名）并执行子命令，返回退出码。
func Run(ctx context.Context, env Env, args []string) int {
	if env.Logger == nil {
		env.Logger = slog.Default()
	}
	cfg := env.Config

	fs := flag.NewFlagSet("yourls", flag.ContinueOnError)
	fs.SetOutput(env.Stderr)
	apiURL := fs.String("apiurl", cfg.APIURL, "YOURLS API URL (env YOURLS_APIURL)")
	username := fs.String("username", cfg.Username, "username (env YOURLS_USERNAME)")
	password := fs.String("password", cfg.Password, "password (env YOURLS_PASSWORD)")
	signature := fs.String("signature", cfg.Signature, "signature token (env YOURLS_SIGNATURE)")
	nonceLife := fs.String("nonce-life", "", `use timed signatures: "true" for the server default, or seconds / a duration (env YOURLS_NONCE_LIFE)`)
	fs.Usage = func() { printUsage(env.Stderr, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	rest := fs.Args()
	if len(rest) == 0 {
		printUsage(env.Stderr, fs)
		return exitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(env.Stderr, "Error: unknown command %q\n", rest[0])
		printUsage(env.Stderr, fs)
		return exitUsage
	}

	cfg.APIURL = *apiURL
	cfg.Username = *username
	cfg.Password = *password
	cfg.Signature = *signature
	if *nonceLife != "" {
		d, err := config.ParseNonceLife(*nonceLife)
		if err != nil {
			fmt.Fprintf(env.Stderr, "Error: %v\n", err)
			return exitUsage
		}
		cfg.NonceLife = d
	}

	a := &app{env: env, cfg: cfg}
	defer a.close()

	err := cmd.run(ctx, a, rest[1:])
	var uerr usageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &uerr):
		fmt.Fprintf(env.Stderr, "Usage: yourls [global flags] %s\n\nError: %s\n", cmd.summary, uerr.msg)
		return exitUsage
	case errors.Is(err, flag.ErrHelp):
		return exitOK
	default:
		fmt.Fprintf(env.Stderr, "Error: %s\n", err)
		return exitError
	}
}

func printUsage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Usage: yourls [global flags] COMMAND [args]")
	fmt.Fprintln(w, "\nCommands:")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].summary)
	}
	fmt.Fprintln(w, "\nGlobal flags:")
	fs.PrintDefaults()
}

// configUsage 把客户端的配置错误翻译成面向命令行用户的提示。
func configUsage(err error) error {
	switch {
	case errors.Is(err, yourls.ErrMissingAPIURL):
		return usagef("apiurl missing")
	case errors.Is(err, yourls.ErrCredentialConflict):
		return usagef("authentication parameters overspecified")
	case errors.Is(err, yourls.ErrNonceWithoutSignature):
		return usagef("nonce-life requires signature")
	case errors.Is(err, yourls.ErrConfig):
		return usagef("%v", err)
	}
	return err
}

// parseArgs 允许 flag 出现在位置参数之后，例如 "shorten URL -simple"。
func parseArgs(fs *flag.FlagSet, args []string) ([]string, error) {
	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return positional, nil
		}
		positional = append(positional, args[0])
		args = args[1:]
	}
}

func newFlagSet(a *app, name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.env.Stderr)
	return fs
}

// parseCommand 解析子命令参数并检查位置参数个数。
func parseCommand(fs *flag.FlagSet, args []string, min, max int) ([]string, error) {
	pos, err := parseArgs(fs, args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, err
		}
		return nil, usagef("%v", err)
	}
	if len(pos) < min {
		return nil, usagef("missing argument")
	}
	if max >= 0 && len(pos) > max {
		return nil, usagef("unexpected argument %q", pos[max])
	}
	return pos, nil
}

func newHTTPClient(cfg config.Config) *http.Client {
	c := &http.Client{Timeout: cfg.HTTPTimeout}
	if cfg.TracingEnabled {
		c.Transport = otelhttp.NewTransport(http.DefaultTransport)
	}
	return c
}

func newYOURLSClient(cfg config.Config, logger *slog.Logger) (*yourls.Client, error) {
	c, err := yourls.NewClient(yourls.Config{
		APIURL:     cfg.APIURL,
		Username:   cfg.Username,
		Password:   cfg.Password,
		Signature:  cfg.Signature,
		NonceLife:  cfg.NonceLife,
		HTTPClient: newHTTPClient(cfg),
		Logger:     logger,
	})
	if err != nil {
		return nil, configUsage(err)
	}
	return c, nil
}
