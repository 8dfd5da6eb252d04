package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"mysql-mcp-gateway/internal/config"
	"mysql-mcp-gateway/internal/controller"
	"mysql-mcp-gateway/internal/database"
	"mysql-mcp-gateway/internal/database/metadata"
	"mysql-mcp-gateway/internal/logging"
	mcpserver "mysql-mcp-gateway/internal/mcp"
	"mysql-mcp-gateway/internal/metrics"
	"mysql-mcp-gateway/internal/middleware"
	"mysql-mcp-gateway/internal/schema"
	"mysql-mcp-gateway/internal/service"
	"mysql-mcp-gateway/internal/snapshot"
)

const version = "1.0.0"

var (
	configPath string
	transport  string
	host       string
	port       int
	httpPort   int
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "mysql-mcp-server",
		Short:         "Read-only MySQL access and schema introspection over MCP",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ./configs/config.yaml or ./config.yaml)")
	rootCmd.Flags().StringVar(&transport, "transport", "", "MCP transport: sse, stdio or http")
	rootCmd.Flags().StringVar(&host, "host", "", "listen host")
	rootCmd.Flags().IntVar(&port, "port", 0, "MCP listen port")
	rootCmd.Flags().IntVar(&httpPort, "http-port", 0, "REST, health and metrics listen port")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "refresh-schema",
		Short: "Regenerate the persisted schema document and exit",
		RunE:  runRefresh,
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app holds everything built from the configuration
type app struct {
	cfg     *config.Config
	logger  *logrus.Logger
	checker *database.HealthChecker
	cache   *schema.CacheManager
	tables  service.TableService
	close   func()
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("transport") {
		cfg.Server.Transport = transport
	}
	if flags.Changed("host") {
		cfg.Server.Host = host
	}
	if flags.Changed("port") {
		cfg.Server.Port = port
	}
	if flags.Changed("http-port") {
		cfg.Server.HTTPPort = httpPort
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, err
	}
	if cfg.File != "" {
		logger.WithField("file", cfg.File).Info("Loaded configuration")
	}

	metrics.InitMetrics()

	db, err := config.InitDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	client := database.NewMySQLClient(sqlDB, logging.WithComponent(logger, "database"))
	extractor := metadata.NewMetadataExtractor(client)

	managerCfg := schema.ManagerConfig{
		SchemaPath:     cfg.Cache.SchemaFile,
		SchemaTTL:      cfg.Cache.SchemaTTL,
		QueryTTL:       cfg.Cache.QueryTTL,
		QueryCacheSize: cfg.Cache.QueryCacheSize,
	}
	if cfg.Snapshot.Enabled {
		publisher, err := snapshot.NewMinIOPublisher(cfg.Snapshot)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		managerCfg.Publisher = publisher
		logger.WithField("target", publisher.Target()).Info("Schema snapshots enabled")
	}

	generator := schema.NewGenerator(extractor, logging.WithComponent(logger, "generator"), nil)
	detector := schema.NewStalenessDetector(extractor, cfg.Cache.SchemaFile, logging.WithComponent(logger, "detector"))
	manager, err := schema.NewCacheManager(managerCfg, generator, detector, client, logging.WithComponent(logger, "cache"))
	if err != nil {
		sqlDB.Close()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		checker: database.NewHealthChecker(sqlDB, cfg.Database.ConnectTimeout),
		cache:   manager,
		tables:  service.NewTableService(extractor, logging.WithComponent(logger, "tables")),
		close:   func() { sqlDB.Close() },
	}, nil
}

func runRefresh(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := buildApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer a.close()

	fmt.Fprintln(cmd.OutOrStdout(), a.cache.Refresh(cmd.Context()))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()

	logger := a.logger
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	var rateLimiter *middleware.RateLimiter
	if cfg.Security.EnableRateLimit {
		rateLimiter = middleware.NewRateLimiter(middleware.RateLimiterConfigFrom(cfg.Security))
		defer rateLimiter.Stop()
	}

	router := controller.NewRouter(controller.RouterDeps{
		Cache:       a.cache,
		Tables:      a.tables,
		Checker:     a.checker,
		RateLimiter: rateLimiter,
		Logger:      logging.WithComponent(logger, "http"),
		Version:     version,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	mcpServer := mcpserver.NewMCPServer(a.cache, a.tables, logging.WithComponent(logger, "mcp"))

	errCh := make(chan error, 2)
	go func() {
		logger.WithField("addr", httpServer.Addr).Info("Starting REST server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("rest server: %w", err)
		}
	}()

	go func() {
		var err error
		switch cfg.Server.Transport {
		case config.TransportStdio:
			logger.Info("Starting MCP stdio transport")
			err = mcpServer.StartStdio()
			if err == nil {
				stop()
			}
		case config.TransportHTTP:
			err = mcpServer.StartStreamableHTTP(cfg.Server.Addr())
		default:
			err = mcpServer.StartSSE(cfg.Server.Addr(), cfg.Server.BaseURL)
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("mcp %s transport: %w", cfg.Server.Transport, err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("Shutting down")
	case runErr = <-errCh:
		logger.WithError(runErr).Error("Server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mcpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("MCP transport shutdown failed")
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("REST server shutdown failed")
	}
	return runErr
}
