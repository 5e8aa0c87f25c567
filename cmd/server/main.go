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
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"homease-backend/internal/config"
	"homease-backend/internal/database"
	"homease-backend/internal/gemini"
	"homease-backend/internal/handlers"
	"homease-backend/internal/logging"
	"homease-backend/internal/models"
	"homease-backend/internal/payments"
	"homease-backend/internal/services"
	"homease-backend/internal/supabase"
	"homease-backend/internal/web"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var skipMigrations bool

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context(), skipMigrations)
		},
	}
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "do not apply pending migrations on startup")

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := bootstrap()
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck
			return migrate(cmd.Context(), cfg, logger)
		},
	}

	root := &cobra.Command{
		Use:           "homease",
		Short:         "HOMEase accessibility marketplace backend",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serveCmd.RunE,
	}
	root.Flags().AddFlagSet(serveCmd.Flags())
	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func migrate(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	migrator, err := database.NewMigrator(cfg.DatabaseURL, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize migrator: %w", err)
	}
	defer migrator.Close()

	if err := migrator.Run(ctx); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("migrations completed")
	return nil
}

// app holds every wired component the router needs.
type app struct {
	cfg         *config.Config
	logger      *zap.Logger
	db          *supabase.DatabaseClient
	auth        *services.AuthService
	assessments *services.AssessmentService
	leads       *services.LeadService
	contractors *services.ContractorService
	webhooks    *services.WebhookService
	frames      *gemini.Client
}

func newApp(ctx context.Context, cfg *config.Config, db *supabase.DatabaseClient, logger *zap.Logger) (*app, error) {
	sb, err := supabase.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, sb.StorageKey(), cfg.SupabaseStorageBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage client: %w", err)
	}
	realtimeClient := supabase.NewRealtimeClient(cfg.SupabaseURL, sb.StorageKey())

	ai, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiAnalysisModel, cfg.GeminiImageModel, logger)
	if err != nil {
		return nil, err
	}
	stripeClient := payments.NewClient(cfg.StripeSecretKey, cfg.StripeWebhookSecret, cfg.BaseURL)

	media := services.NewStorageService(storageClient, logger)
	return &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		auth:   services.NewAuthService(supabase.NewAuthClient(sb), db, logger),
		assessments: services.NewAssessmentService(db, ai, media, realtimeClient, models.NewValidator(), services.AssessmentOptions{
			LeadPriceCents: cfg.LeadPriceCents,
			VisualizeTopN:  cfg.VisualizeTopN,
		}, logger),
		leads:       services.NewLeadService(db, stripeClient, logger),
		contractors: services.NewContractorService(db, stripeClient, logger),
		webhooks:    services.NewWebhookService(db, stripeClient, logger),
		frames:      ai,
	}, nil
}

func serve(ctx context.Context, skipMigrations bool) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := handlers.RegisterValidators(); err != nil {
		return err
	}

	shutdownTracing, err := initTracer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracing: %w", err)
	}
	defer shutdownTracing()

	if !skipMigrations {
		if err := migrate(ctx, cfg, logger); err != nil {
			return err
		}
	}

	db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize database client: %w", err)
	}
	defer db.Close()

	a, err := newApp(ctx, cfg, db, logger)
	if err != nil {
		return err
	}

	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("failed to parse templates: %w", err)
	}
	router := newRouter(a)
	router.SetHTMLTemplate(tmpl)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Port), zap.String("environment", cfg.Environment))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
