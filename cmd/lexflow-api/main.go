package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/LexFlowLab/lexflow/backend/internal/broadcast"
	"github.com/LexFlowLab/lexflow/backend/internal/config"
	"github.com/LexFlowLab/lexflow/backend/internal/draft"
	"github.com/LexFlowLab/lexflow/backend/internal/draftgen"
	"github.com/LexFlowLab/lexflow/backend/internal/export"
	"github.com/LexFlowLab/lexflow/backend/internal/logging"
	"github.com/LexFlowLab/lexflow/backend/internal/server"
	"github.com/LexFlowLab/lexflow/backend/internal/storage"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "lexflow-api",
		Short: "LexFlow draft collaboration backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("redis-address", defaults.GetString("redis.address"), "Redis address for cross-process sync (optional)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Duration("autosave-interval", defaults.GetDuration("draft.autosave_interval"), "Autosave period")
	cmd.PersistentFlags().Duration("presence-interval", defaults.GetDuration("draft.presence_interval"), "Presence broadcast period")
	cmd.PersistentFlags().Duration("debounce-window", defaults.GetDuration("draft.debounce_window"), "Outbound sync debounce window")
	cmd.PersistentFlags().String("export-url", defaults.GetString("export.base_url"), "Document export service base URL (optional)")
	cmd.PersistentFlags().String("draftgen-url", defaults.GetString("draftgen.base_url"), "Draft generation API base URL (optional)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "redis.address", "redis-address")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "draft.autosave_interval", "autosave-interval")
	bindFlag(cmd, "draft.presence_interval", "presence-interval")
	bindFlag(cmd, "draft.debounce_window", "debounce-window")
	bindFlag(cmd, "export.base_url", "export-url")
	bindFlag(cmd, "draftgen.base_url", "draftgen-url")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	var store draft.Store
	if appConfig.DatabasePath != "" {
		db, err := storage.OpenSQLite(appConfig.DatabasePath, logger)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		sqliteStore, err := storage.NewSQLiteStore(storage.SQLiteStoreConfig{Database: db})
		if err != nil {
			return err
		}
		store = sqliteStore
	}

	var channel draft.Channel
	if appConfig.RedisAddress != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: appConfig.RedisAddress})
		redisChannel, err := broadcast.NewRedisChannel(broadcast.RedisChannelConfig{
			Client: redisClient,
			Logger: logger,
		})
		if err != nil {
			return err
		}
		channel = redisChannel
		if store == nil {
			redisStore, err := storage.NewRedisStore(redisClient)
			if err != nil {
				return err
			}
			store = redisStore
		}
	} else {
		channel = broadcast.NewMemoryHub()
	}

	var exporter export.Exporter
	if appConfig.ExportBaseURL != "" {
		exporter, err = export.NewHTTPExporter(export.HTTPExporterConfig{BaseURL: appConfig.ExportBaseURL})
		if err != nil {
			return err
		}
	}

	var generator *draftgen.Client
	if appConfig.DraftgenBaseURL != "" {
		generator, err = draftgen.NewClient(draftgen.ClientConfig{BaseURL: appConfig.DraftgenBaseURL})
		if err != nil {
			return err
		}
	}

	sessions, err := server.NewSessionManager(server.SessionManagerConfig{
		Factory: func(caseID draft.CaseID, clientID draft.ClientID, initialDraft string) (*draft.Session, error) {
			if initialDraft == "" && generator != nil {
				fetchCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				fetched, fetchErr := generator.FetchDraft(fetchCtx, caseID.String())
				cancel()
				if fetchErr != nil {
					logger.Warn("generated draft fetch failed",
						zap.String("case_id", caseID.String()),
						zap.Error(fetchErr))
				} else {
					initialDraft = fetched
				}
			}
			return draft.NewSession(draft.SessionConfig{
				CaseID:           caseID,
				ClientID:         clientID,
				InitialDraft:     initialDraft,
				Store:            store,
				Channel:          channel,
				Exporter:         exporter,
				Logger:           logger,
				AutosaveInterval: appConfig.AutosaveInterval,
				PresenceInterval: appConfig.PresenceInterval,
				DebounceWindow:   appConfig.DebounceWindow,
				HistoryLimit:     appConfig.HistoryLimit,
				ChangeLogLimit:   appConfig.ChangeLogLimit,
			})
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer sessions.CloseAll()

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions: sessions,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
