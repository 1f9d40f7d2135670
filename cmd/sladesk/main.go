// Command sladesk runs the SLA compliance engine: a scheduled sweep loop
// with a metrics endpoint, or a one-shot sweep for operators.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/sladesk-io/sladesk/internal/config"
	"github.com/sladesk-io/sladesk/internal/database"
	"github.com/sladesk-io/sladesk/internal/models"
	"github.com/sladesk-io/sladesk/internal/notifications"
	"github.com/sladesk-io/sladesk/internal/repository"
	"github.com/sladesk-io/sladesk/internal/services/scheduler"
	"github.com/sladesk-io/sladesk/internal/services/sla"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:   "sladesk",
		Short: "SLA compliance engine for ticketing backends",
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", ".", "directory containing config.yaml")

	var dryRun bool
	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run a single compliance sweep and print the summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context(), dryRun)
		},
	}
	sweepCmd.Flags().BoolVar(&dryRun, "dry-run", false, "report would-have-fired counts without writing or notifying")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduled sweep loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}

	root.AddCommand(sweepCmd, serveCmd)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.Fatalf("sladesk: %v", err)
	}
}

// engine bundles the wired collaborators behind the two commands.
type engine struct {
	cfg     *config.Config
	sweeper *sla.Sweeper
	tracker *sla.TrackerService
	logger  *log.Logger
}

func buildEngine(ctx context.Context) (*engine, error) {
	config.MustLoad(configPath)
	cfg := config.Get()
	logger := log.New(os.Stdout, "sladesk ", log.LstdFlags)

	db, err := database.Open(&cfg.Database)
	if err != nil {
		return nil, err
	}
	if err := repository.EnsureSchema(ctx, db); err != nil {
		return nil, err
	}

	slaRepo := repository.NewMemorySLARepository()
	itemRepo := repository.NewMemoryItemRepository()
	trackerRepo := repository.NewSQLTrackerRepository(db)
	violationRepo := repository.NewSQLViolationRepository(db)

	if cfg.SLA.CalendarSeed != "" {
		hours, holidays, err := config.LoadCalendarSeed(cfg.SLA.CalendarSeed, models.DefaultScope)
		if err != nil {
			return nil, fmt.Errorf("failed to load calendar seed: %w", err)
		}
		if err := slaRepo.ReplaceWorkingHours(ctx, models.DefaultScope, hours); err != nil {
			return nil, err
		}
		for i := range holidays {
			if err := slaRepo.AddHoliday(ctx, &holidays[i]); err != nil {
				return nil, err
			}
		}
		logger.Printf("Loaded calendar seed: %d working-hour rows, %d holidays", len(hours), len(holidays))
	}

	var dispatcher notifications.Dispatcher
	if cfg.Email.Enabled {
		dispatcher = notifications.NewEmailDispatcher(notifications.NewSMTPProvider(&cfg.Email), &cfg.Email, logger)
	} else {
		logger.Printf("Email disabled; notifications are recorded only")
		dispatcher = notifications.NewMemoryDispatcher()
	}

	var lock sla.SweepLock = sla.NoopLock{}
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.GetRedisAddr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		hostname, _ := os.Hostname()
		lock = sla.NewRedisLock(client, fmt.Sprintf("%s-%d", hostname, os.Getpid()), cfg.SLA.SweepLockTTL)
	}

	tracker := sla.NewTrackerService(slaRepo, itemRepo, trackerRepo, violationRepo, &cfg.SLA,
		sla.WithTrackerLogger(logger))
	sweeper := sla.NewSweeper(slaRepo, itemRepo, trackerRepo, violationRepo, tracker, dispatcher, &cfg.SLA,
		sla.WithSweepLogger(logger),
		sla.WithSweepLock(lock))

	return &engine{cfg: cfg, sweeper: sweeper, tracker: tracker, logger: logger}, nil
}

func runSweep(ctx context.Context, dryRun bool) error {
	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	summary, err := eng.sweeper.Run(ctx, dryRun)
	if err != nil {
		return err
	}
	fmt.Printf("monitored=%d paused=%d violations=%d reminders=%d escalations=%d first_response_notices=%d errors=%d duration=%s\n",
		summary.Monitored, summary.PausedSkipped, summary.Violations, summary.Reminders,
		summary.Escalations, summary.FirstResponseNotices, summary.Errors, summary.Duration)
	return nil
}

func serve(ctx context.Context) error {
	eng, err := buildEngine(ctx)
	if err != nil {
		return err
	}

	sched := scheduler.NewService(
		scheduler.WithLogger(eng.logger),
		scheduler.WithJobs([]*models.ScheduledJob{scheduler.SweepJob(&eng.cfg.Scheduler)}),
	)
	sched.RegisterHandler(scheduler.JobSweep, func(jobCtx context.Context, _ *models.ScheduledJob) error {
		_, err := eng.sweeper.Run(jobCtx, false)
		return err
	})

	if eng.cfg.Metrics.Enabled {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			srv := &http.Server{
				Addr:              eng.cfg.Metrics.Addr,
				Handler:           mux,
				ReadHeaderTimeout: 5 * time.Second,
			}
			eng.logger.Printf("Metrics listening on %s", eng.cfg.Metrics.Addr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				eng.logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	eng.logger.Printf("Scheduler starting (sweep schedule %q)", eng.cfg.Scheduler.SweepSchedule)
	return sched.Run(ctx)
}
