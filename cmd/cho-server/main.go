package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/config"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/account"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/appointment"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/barangay"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/reminder"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/domain/report"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/auth"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/db"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/metrics"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/middleware"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/notification"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/runlock"
	"github.com/xChronoa/CHO1HealthcareAnalytics-sub002/internal/platform/validate"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "cho-server",
		Short:        "City Health Office reporting API",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(remindersCmd())
	return rootCmd
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// loadConfig loads and validates settings and builds the matching logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger := newLogger(cfg.Env)
	if err := cfg.Validate(); err != nil {
		return nil, logger, err
	}
	return cfg, logger, nil
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				count, err := db.NewMigrator(pool, dir).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
				return nil
			})
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")
			return withPool(cmd.Context(), func(ctx context.Context, pool *pgxpool.Pool) error {
				statuses, err := db.NewMigrator(pool, dir).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}
				printMigrationStatus(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
}

func printMigrationStatus(w io.Writer, statuses []db.MigrationStatus) {
	fmt.Fprintf(w, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
	for _, s := range statuses {
		status := "pending"
		appliedAt := ""
		if s.Applied {
			status = "applied"
			if s.AppliedAt != nil {
				appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
			}
		}
		fmt.Fprintf(w, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
	}
}

func withPool(ctx context.Context, fn func(ctx context.Context, pool *pgxpool.Pool) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	pool, err := db.NewPool(ctx, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(ctx, pool)
}

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Email barangays about pending reports that are due soon or overdue",
		Long: "Looks at every pending submission, picks the ones due in 7, 3 or 1 day(s) or already overdue,\n" +
			"and emails one digest per barangay to its active accounts. --check also prints what was found.",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, today, err := reminderArgs(cmd)
			if err != nil {
				return err
			}
			return runReminders(cmd.Context(), cmd.OutOrStdout(), mode, today)
		},
	}
	cmd.Flags().Bool("check", false, "Print the pending-report report (digests are still sent)")
	cmd.Flags().Bool("send", false, "Send digests without printing the report")
	cmd.Flags().String("date", "", "Run as if today were this date (YYYY-MM-DD)")
	return cmd
}

// reminderArgs resolves the run mode and optional date override. A zero
// time means today in the configured zone.
func reminderArgs(cmd *cobra.Command) (reminder.Mode, time.Time, error) {
	check, _ := cmd.Flags().GetBool("check")
	send, _ := cmd.Flags().GetBool("send")
	mode := reminder.ModeFromFlags(check, send)

	raw, _ := cmd.Flags().GetString("date")
	if raw == "" {
		return mode, time.Time{}, nil
	}
	day, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return mode, time.Time{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	return mode, day, nil
}

func runReminders(ctx context.Context, out io.Writer, mode reminder.Mode, today time.Time) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	loc, _ := cfg.Location()

	pool, err := db.NewPool(ctx, cfg.PoolOptions())
	if err != nil {
		return err
	}
	defer pool.Close()

	mail, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeLocker()

	reports := report.NewService(report.NewRepoPG(pool), txRunner(pool), loc)
	accounts := account.NewService(account.NewRepoPG(pool))
	rec := reminder.NewReconciler(reports, accounts, mail,
		reminder.WithLocation(loc),
		reminder.WithOutput(out),
		reminder.WithLogger(logger),
		reminder.WithLocker(locker),
	)

	if today.IsZero() {
		_, err = rec.Run(ctx, mode)
	} else {
		_, err = rec.RunOn(ctx, mode, today)
	}
	return err
}

func newDispatcher(cfg *config.Config, logger zerolog.Logger) (notification.Dispatcher, error) {
	return notification.New(notification.Options{
		Provider:    cfg.MailProvider,
		APIKey:      cfg.SendGridAPIKey,
		FromAddress: cfg.MailFromAddress,
		FromName:    cfg.MailFromName,
		SMTPURL:     cfg.SMTPURL,
		Timeout:     cfg.MailTimeout,
	}, logger)
}

// newLocker returns the redis run lock when REDIS_URL is set.
func newLocker(ctx context.Context, cfg *config.Config) (runlock.Locker, func(), error) {
	if cfg.RedisURL == "" {
		return runlock.NoopLocker{}, func() {}, nil
	}
	rdb, err := runlock.Connect(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	return runlock.NewRedisLocker(rdb, cfg.ReminderLockTTL), func() { _ = rdb.Close() }, nil
}

func txRunner(pool *pgxpool.Pool) report.TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return db.WithTx(ctx, pool, fn)
	}
}

func runServer() error {
	cfg, logger, err := loadConfig()
	if err != nil {
		logger.Error().Err(err).Msg("invalid configuration")
		return err
	}
	loc, _ := cfg.Location()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.PoolOptions())
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to database")
		return err
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	mail, err := newDispatcher(cfg, logger)
	if err != nil {
		return err
	}
	locker, closeLocker, err := newLocker(ctx, cfg)
	if err != nil {
		logger.Error().Err(err).Msg("failed to connect to redis")
		return err
	}
	defer closeLocker()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	reminderMetrics, err := metrics.NewReminderMetrics(reg)
	if err != nil {
		return err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validate.New()

	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(middleware.SecurityHeaders(!cfg.IsDev()))
	e.Use(echomw.BodyLimit("2M"))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok", "version": version})
	})
	e.GET("/health/db", db.HealthHandler(pool))
	e.GET("/metrics", metrics.Handler(reg))

	rateCfg := middleware.DefaultRateLimitConfig()
	if cfg.PublicRateRPS > 0 {
		rateCfg.RequestsPerSecond = cfg.PublicRateRPS
	}
	if cfg.PublicRateBurst > 0 {
		rateCfg.BurstSize = cfg.PublicRateBurst
	}
	public := e.Group("/api/v1/public", middleware.RateLimit(rateCfg))
	apiV1 := e.Group("/api/v1")
	if cfg.IsDev() {
		apiV1.Use(auth.DevAuthMiddleware())
	} else {
		apiV1.Use(auth.JWTMiddleware(auth.JWTConfig{
			Issuer:     cfg.AuthIssuer,
			Audience:   cfg.AuthAudience,
			SigningKey: []byte(cfg.AuthSigningKey),
		}))
	}

	barangaySvc := barangay.NewService(barangay.NewRepoPG(pool))
	barangay.NewHandler(barangaySvc).RegisterRoutes(apiV1)

	accountSvc := account.NewService(account.NewRepoPG(pool))
	account.NewHandler(accountSvc).RegisterRoutes(apiV1)

	reportSvc := report.NewService(report.NewRepoPG(pool), txRunner(pool), loc)
	report.NewHandler(reportSvc).RegisterRoutes(apiV1)

	rec := reminder.NewReconciler(reportSvc, accountSvc, mail,
		reminder.WithLocation(loc),
		reminder.WithLogger(logger),
		reminder.WithObserver(reminderMetrics),
		reminder.WithLocker(locker),
	)
	reminder.NewHandler(rec).RegisterRoutes(apiV1)

	appointmentSvc := appointment.NewService(appointment.NewRepoPG(pool), mail, cfg.OTPTTL, logger)
	appointment.NewHandler(appointmentSvc).RegisterRoutes(public, apiV1)

	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
