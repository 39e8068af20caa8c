package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xavierca1/leadflow/internal/config"
	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/infra/database"
	"github.com/xavierca1/leadflow/internal/infra/http/handlers"
	"github.com/xavierca1/leadflow/internal/infra/http/middleware"
	"github.com/xavierca1/leadflow/internal/infra/integration/crm"
	"github.com/xavierca1/leadflow/internal/infra/logger"
	"github.com/xavierca1/leadflow/internal/infra/mail"
	"github.com/xavierca1/leadflow/internal/infra/queue"
	"github.com/xavierca1/leadflow/internal/infra/worker"
	"github.com/xavierca1/leadflow/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.New(cfg.App.Env)
	if err != nil {
		log.Fatalf("build logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Journal
	var (
		journal   entity.TransitionJournal = usecase.NewMemoryJournal()
		journalDB handlers.JournalReader
		healthDB  handlers.Pinger
	)
	if cfg.Postgres.DSN != "" {
		db, err := database.NewDBConnection(cfg.Postgres.DSN)
		if err != nil {
			zl.Fatal("database connection failed", zap.Error(err))
		}
		defer db.Close()

		if err := database.Migrate(db); err != nil {
			zl.Fatal("database migration failed", zap.Error(err))
		}
		repo := database.NewTransitionRepository(db)
		journal, journalDB, healthDB = repo, repo, db
	} else {
		zl.Warn("postgres not configured, transition journal kept in memory")
	}

	// 2. Messaging
	var (
		producer  usecase.QueueProducerInterface
		healthMQ  handlers.BrokerConn
		notifiers []queue.WonNotifier
	)
	if cfg.Mail.Host != "" {
		notifiers = append(notifiers, mail.NewEmailSender(
			cfg.Mail.Host, cfg.Mail.Port, cfg.Mail.User, cfg.Mail.Password, cfg.Mail.From, cfg.Mail.To,
		))
	}
	if cfg.Telegram.Token != "" {
		tg, err := mail.NewTelegramSender(cfg.Telegram.Token, cfg.Telegram.ChatID)
		if err != nil {
			zl.Warn("telegram notifier disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, tg)
		}
	}

	if cfg.RabbitMQ.URL != "" {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQ.URL)
		if err != nil {
			zl.Fatal("rabbitmq connection failed", zap.Error(err))
		}
		defer rabbitMQ.Close()

		producer = queue.NewProducer(rabbitMQ.Ch)
		healthMQ = rabbitMQ.Conn

		w := queue.NewWorker(rabbitMQ.Ch, zl, notifiers...)
		go func() {
			if err := w.Start(ctx, queue.QueueName); err != nil {
				zl.Error("worker stopped", zap.Error(err))
			}
		}()
	} else {
		zl.Warn("rabbitmq not configured, stage events are not published")
	}

	// 3. CRM and sessions
	crmClient := crm.NewClient(cfg.CRM.BaseURL, cfg.CRM.Timeout, zl)
	// Requests reach the CRM only with the caller's own bearer token.
	gateways := func(credential string) usecase.CRMGateway {
		return crmClient.WithToken(credential)
	}

	sessions := usecase.NewSessionRegistry(func(lead entity.LeadSnapshot, credential string, actorID int) *usecase.ProgressionController {
		return usecase.NewProgressionController(usecase.ProgressionDeps{
			Gateway: gateways(credential),
			Journal: journal,
			Queue:   producer,
			Logger:  zl,
		}, lead, actorID)
	}, cfg.Session.TTL, zl)

	go worker.NewSessionSweeper(sessions, journal, cfg.Session.JournalRetention, zl).Start(ctx)

	limiter := middleware.NewRateLimiter(30, time.Minute)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Cleanup()
			}
		}
	}()

	// 4. Handlers
	progressHandler := handlers.NewProgressHandler(sessions, zl)
	leadHandler := handlers.NewLeadHandler(gateways, journalDB, zl)
	healthHandler := handlers.NewHealthHandler(healthDB, healthMQ, crmClient.Configured())

	// 5. Router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "X-User-Id"},
	}))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics)
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/health", healthHandler.Handle)
	r.Get("/users/active", leadHandler.ActiveUsers)

	r.Route("/leads/{leadId}", func(r chi.Router) {
		r.With(limiter.Limit).Post("/progress", progressHandler.Open)
		r.Get("/progress", progressHandler.Get)
		r.Post("/progress/advance", progressHandler.Advance)
		r.Post("/progress/demo-session", progressHandler.SubmitDemoSession)
		r.Post("/progress/amount", progressHandler.SubmitAmount)
		r.Post("/progress/remark", progressHandler.SubmitRemark)
		r.Post("/progress/cancel", progressHandler.Cancel)

		r.Get("/demo-sessions", progressHandler.DemoSessions)
		r.Get("/remarks", leadHandler.Remarks)
		r.Get("/remarks/export", leadHandler.ExportRemarks)
		r.Get("/transitions", leadHandler.Transitions)
	})

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zl.Info("leadflow api listening", zap.String("addr", cfg.HTTP.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
