package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/config"
	"github.com/any-hub/wheelcache/internal/logging"
)

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
	stdIn  io.Reader = os.Stdin
)

// rootOptions 汇总所有子命令共享的全局标志，便于在测试中注入。
type rootOptions struct {
	configPath string
	cacheDir   string
	verbose    bool
	noInput    bool
}

// usageError 标记参数解析阶段的错误，run 据此返回退出码 2。
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }

func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:]))
}

// run 执行命令并返回退出码，方便测试。
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand()
	root.SetArgs(args)
	root.SetIn(stdIn)
	root.SetOut(stdOut)
	root.SetErr(stdErr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	fmt.Fprintf(stdErr, "ERROR: %s\n", userMessage(err))
	if isUsageError(err) {
		return 2
	}
	return 1
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "wheelcache",
		Short: "Inspect and manage a pip-style wheel cache",
		Long: `wheelcache lists, summarises and evicts the built wheels stored in a
pip-compatible cache directory. It can also expose the same inventory
over HTTP for dashboards and scrapers.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file path (overrides "+config.EnvConfigPath+")")
	root.PersistentFlags().StringVar(&opts.cacheDir, "cache-dir", "", "cache root directory (overrides config and PIP_CACHE_DIR)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&opts.noInput, "no-input", false, "never prompt; confirmations fail unless --yes is given")

	root.AddCommand(newCacheCommand(opts))
	root.AddCommand(newServeCommand(opts))
	root.AddCommand(newVersionCommand())
	return root
}

// environment 是一次命令执行所需的配置、日志与缓存存储。
type environment struct {
	cfg    *config.Config
	logger *logrus.Logger
	store  cache.Store
}

// setup 按“配置 → 命令行覆盖 → 日志 → 缓存存储”的顺序初始化运行环境。
func setup(opts *rootOptions, overrides config.Overrides) (*environment, error) {
	overrides.CacheDir = opts.cacheDir
	overrides.Verbose = opts.verbose
	overrides.NoInput = opts.noInput

	cfg, err := config.Load(config.ResolvePath(opts.configPath))
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "load configuration")
	}
	if err := cfg.Apply(overrides); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "apply command line overrides")
	}

	logger, err := logging.InitLogger(*cfg, stdErr)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidConfig, "initialise logger")
	}

	store, err := cache.NewStore(afero.NewOsFs(), cfg.WheelDir(), logger)
	if err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInternal, "open wheel cache")
	}
	return &environment{cfg: cfg, logger: logger, store: store}, nil
}

// userMessage 把错误链压缩成一行文本，去掉错误码前缀。
func userMessage(err error) string {
	var msg string
	if pe, ok := err.(platformerrors.PlatformError); ok {
		msg = pe.Message()
		if cause := pe.Unwrap(); cause != nil {
			msg += ": " + userMessage(cause)
		}
	} else {
		msg = err.Error()
	}
	return strings.Join(strings.Fields(msg), " ")
}

func isUsageError(err error) bool {
	var usage *usageError
	if errors.As(err, &usage) {
		return true
	}
	// cobra 对未知子命令与位置参数数量错误不经过 FlagErrorFunc。
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		(strings.HasPrefix(msg, "accepts ") && strings.Contains(msg, " arg(s)"))
}
