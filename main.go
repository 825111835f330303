package main

import (
	"cms/cache"
	"cms/config"
	"cms/db"
	"cms/handlers"
	"cms/live"
	"cms/logger"
	"cms/mail"
	"cms/models"
	"cms/ordering"
	"cms/push"
	"cms/seed"
	"cms/siteconfig"
	"cms/storage"
	"cms/web"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/autotls"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// rendered public views are dropped on mutation, the TTL only bounds memory
const renderCacheTTL = 10 * time.Minute

var rootCmd = &cobra.Command{
	Use:          "cms",
	Short:        "Personal blog content server",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Init(config.DEBUG_MODE); err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		db.Init()
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logger.Sync()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server (default)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve()
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.Migrate(db.Instance); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.L().Info("migration complete")
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the administrator and starter content",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := models.Migrate(db.Instance); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		siteconfig.Init(db.Instance)
		return seed.Run(cmd.Context(), db.Instance)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, seedCmd)
}

func serve() error {
	models.Init()
	if err := storage.Init(db.Instance); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	siteconfig.Init(db.Instance)

	renderCache := cache.New(renderCacheTTL)
	hub := live.NewHub()
	invalidator := cache.Fanout{
		renderCache,
		hub,
		push.NewRevalidator(),
		ordering.InvalidatorFunc(siteconfig.Invalidate),
	}
	handlers.Init(invalidator, mail.FromConfig())
	web.Init(renderCache)

	router := setupRouter(hub)
	var err error
	if config.TLS_DOMAINS != "" {
		logger.L().Info("serving with TLS", zap.String("domains", config.TLS_DOMAINS))
		err = autotls.Run(router, strings.Split(config.TLS_DOMAINS, ",")...)
	} else {
		logger.L().Info("serving", zap.String("address", config.BIND_ADDRESS))
		err = router.Run(config.BIND_ADDRESS)
	}
	return fmt.Errorf("server stopped: %w", err)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
