package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"electrohub/backend/libs/db"
	"electrohub/backend/libs/logging"
	"electrohub/backend/services/electrohub/internal/app"
	"electrohub/backend/services/electrohub/internal/auth"
	"electrohub/backend/services/electrohub/internal/config"
)

type options struct {
	configPath string
}

func (o *options) load() (*config.Config, *zap.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFrom(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(logging.Options{Level: cfg.Log.Level, Encoding: cfg.Log.Encoding})
	if err != nil {
		return nil, nil, err
	}
	zap.ReplaceGlobals(logger)
	return cfg, logger, nil
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	serve := serveCmd(opts)

	cmd := &cobra.Command{
		Use:          "electrohub",
		Short:        "Electronics engineering toolkit server",
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (defaults to $CONFIG_FILE)")
	cmd.AddCommand(serve, migrateCmd(opts), simulateCmd(opts), hashKeyCmd())
	return cmd
}

func serveCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server and scheduled jobs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			application, err := app.New(cfg, logger)
			if err != nil {
				logger.Error("failed to init application", zap.Error(err))
				return err
			}
			defer application.Close()

			if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("application stopped with error", zap.Error(err))
				return err
			}
			return nil
		},
	}
}

func migrateCmd(opts *options) *cobra.Command {
	var down bool

	c := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			if down {
				if err := db.Rollback(cfg.Database.Driver, cfg.Database.DSN); err != nil {
					return err
				}
				logger.Info("migrations rolled back", zap.String("driver", cfg.Database.Driver))
				return nil
			}
			if err := db.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
				return err
			}
			logger.Info("migrations applied", zap.String("driver", cfg.Database.Driver))
			return nil
		},
	}
	c.Flags().BoolVar(&down, "down", false, "roll back every applied migration")
	return c
}

func simulateCmd(opts *options) *cobra.Command {
	var readings int

	c := &cobra.Command{
		Use:   "simulate",
		Short: "Store simulated readings for every device",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			defer logger.Sync()

			application, err := app.New(cfg, logger)
			if err != nil {
				return err
			}
			defer application.Close()

			res, err := application.Simulate(cmd.Context(), readings)
			if err != nil {
				return err
			}
			alerts := 0
			for _, r := range res {
				if r.Alert {
					alerts++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %d readings, %d alerts\n", len(res), alerts)
			return nil
		},
	}
	c.Flags().IntVarP(&readings, "readings", "n", 10, "rounds of readings per device")
	return c
}

func hashKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-key <key>",
		Short: "Print the bcrypt hash of a device key for iot.deviceKeys",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.NewKeyVerifier(nil, 0).Hash(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
