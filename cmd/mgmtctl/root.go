package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/apimgmt/mgmtrepo/cache"
	"github.com/apimgmt/mgmtrepo/db"
	"github.com/apimgmt/mgmtrepo/internal/config"
	"github.com/apimgmt/mgmtrepo/internal/slogging"
	"github.com/apimgmt/mgmtrepo/internal/telemetry"
	"github.com/apimgmt/mgmtrepo/repository"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/metric"
)

type globalFlags struct {
	configFile string
	envFile    string
}

// session is everything a command needs once the datastore is open
type session struct {
	cfg       *config.Config
	gdb       *db.GormDB
	repos     *repository.Repositories
	backend   cache.Backend
	cacheOpts cache.Options
	telemetry *telemetry.Service
	closers   []func(context.Context) error
}

func (r *session) Close(ctx context.Context) error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i](ctx))
	}
	return errors.Join(errs...)
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}
	var cfg *config.Config

	root := &cobra.Command{
		Use:           "mgmtctl",
		Short:         "Maintenance CLI for the management datastore",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadEnvFile(flags.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return err
			}
			loaded, err := config.Load(flags.configFile)
			if err != nil {
				return err
			}
			if err := slogging.Initialize(loaded.SloggingConfig()); err != nil {
				return fmt.Errorf("failed to initialize logging: %w", err)
			}
			cfg = loaded
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "Path to the YAML configuration file")
	root.PersistentFlags().StringVar(&flags.envFile, "env-file", ".env", "Path to a .env file with MGMT_* overrides")

	cfgFn := func() *config.Config { return cfg }
	root.AddCommand(
		newMigrateCmd(cfgFn),
		newCheckCmd(cfgFn),
		newSeedCmd(cfgFn),
		newPurgeCmd(cfgFn),
		newConfigCmd(),
	)
	return root
}

// loadEnvFile loads path when it exists. A missing default file is ignored; a
// missing file passed explicitly is an error.
func loadEnvFile(path string, explicit bool) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("failed to load env file %s: %w", path, err)
}

// open connects everything the configuration asks for. Callers must Close the session.
func open(ctx context.Context, cfg *config.Config) (*session, error) {
	logger := slogging.Get()
	rt := &session{cfg: cfg}

	svc, err := telemetry.NewService(ctx, cfg.Telemetry)
	if err != nil {
		return nil, err
	}
	rt.telemetry = svc
	rt.closers = append(rt.closers, svc.Shutdown)

	plugins, err := svc.GormPlugins(cfg.Database.Type)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}

	gcfg := db.NewGormConfig(cfg.Database)
	gcfg.LogQueries = cfg.Logging.LogQueries
	gcfg.Plugins = plugins
	gdb, err := db.NewGormDB(gcfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.gdb = gdb
	rt.closers = append(rt.closers, func(context.Context) error { return gdb.Close() })

	if cfg.Database.AutoMigrate {
		if err := gdb.AutoMigrate(); err != nil {
			_ = rt.Close(ctx)
			return nil, err
		}
	}

	if sqlDB, err := gdb.DB().DB(); err == nil {
		reg, err := telemetry.RegisterPoolMetrics(svc.MeterProvider().Meter("github.com/apimgmt/mgmtrepo"), sqlDB)
		if err != nil {
			logger.Warn("Pool metrics unavailable: %v", err)
		} else {
			rt.closers = append(rt.closers, unregister(reg))
		}
	}

	if handler := svc.MetricsHandler(); handler != nil && cfg.Telemetry.MetricsAddr != "" {
		rt.closers = append(rt.closers, serveMetrics(cfg.Telemetry.MetricsAddr, handler))
	}

	backend, err := cache.NewBackend(ctx, cfg)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, err
	}
	rt.backend = backend
	if backend != nil {
		rt.closers = append(rt.closers, func(context.Context) error { return backend.Close() })
	}
	rt.cacheOpts = cache.Options{TTL: cfg.Cache.TTL, KeyPrefix: cfg.Cache.KeyPrefix}
	rt.repos = cache.Wrap(repository.NewGormRepositories(gdb.DB()), backend, rt.cacheOpts)

	return rt, nil
}

func unregister(reg metric.Registration) func(context.Context) error {
	return func(context.Context) error { return reg.Unregister() }
}

func serveMetrics(addr string, handler http.Handler) func(context.Context) error {
	logger := slogging.Get()
	mux := http.NewServeMux()
	mux.Handle("/metrics", handler)
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		logger.Info("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server stopped: %v", err)
		}
	}()
	return srv.Shutdown
}

// withSession opens the datastore around fn
func withSession(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, rt *session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	rt, err := open(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(context.Background()); err != nil {
			slogging.Get().Warn("Shutdown: %v", err)
		}
	}()
	return fn(ctx, rt)
}
