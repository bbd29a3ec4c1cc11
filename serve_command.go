package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/config"
	"github.com/any-hub/wheelcache/internal/logging"
	"github.com/any-hub/wheelcache/internal/server"
	"github.com/any-hub/wheelcache/internal/server/routes"
	"github.com/any-hub/wheelcache/internal/version"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var listenPort int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wheel cache inventory over HTTP",
		Long: `Start a read-only HTTP server exposing /-/wheels, /-/summary and
/metrics. Every request rescans the cache directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := setup(root, config.Overrides{ListenPort: listenPort})
			if err != nil {
				return err
			}
			return startHTTPServer(cmd, env)
		},
	}
	cmd.Flags().IntVar(&listenPort, "listen-port", 0, "HTTP listen port (overrides config)")
	return cmd
}

// startHTTPServer 装配 Fiber 应用与库存路由，阻塞直到收到退出信号。
func startHTTPServer(cmd *cobra.Command, env *environment) error {
	port := env.cfg.ListenPort
	app, err := server.NewApp(server.AppOptions{
		Logger:     env.logger,
		ListenPort: port,
	})
	if err != nil {
		return err
	}
	routes.RegisterInventoryRoutes(app, routes.Options{
		Scanner: env.store,
		Logger:  env.logger,
	})
	// 指标抓取时无效文件名只记 debug 级别。
	metricsStore, err := cache.NewStore(afero.NewOsFs(), env.store.Root(), env.logger,
		cache.WithInvalidNameLevel(logrus.DebugLevel))
	if err != nil {
		return err
	}
	collector := routes.NewInventoryCollector(metricsStore, env.logger, 0)
	if err := routes.RegisterMetricsRoute(app, collector); err != nil {
		return err
	}

	fields := logging.BaseFields("listen", env.cfg.Source)
	fields["port"] = port
	fields["root"] = env.store.Root()
	fields["version"] = version.Full()
	env.logger.WithFields(fields).Info("Fiber 服务启动")

	if err := server.Serve(cmd.Context(), app, port, env.cfg.ShutdownTimeout.DurationValue()); err != nil {
		return err
	}
	env.logger.WithFields(logging.BaseFields("shutdown", env.cfg.Source)).Info("Fiber 服务已停止")
	return nil
}
