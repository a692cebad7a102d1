package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"redressal/internal/audit"
	"redressal/internal/auth"
	authhandler "redressal/internal/auth/handler"
	"redressal/internal/complaint"
	complainthandler "redressal/internal/complaint/handler"
	complaintmetrics "redressal/internal/complaint/metrics"
	complaintstore "redressal/internal/complaint/store"
	"redressal/internal/locker"
	"redressal/internal/platform/config"
	"redressal/internal/platform/httpserver"
	"redressal/internal/platform/logger"
	platformmetrics "redressal/internal/platform/metrics"
	platformredis "redressal/internal/platform/redis"
	"redressal/internal/rbac"
	rbachandler "redressal/internal/rbac/handler"
	rbacstore "redressal/internal/rbac/store"
	"redressal/internal/timeline"
	adminmw "redressal/pkg/platform/middleware/admin"
	authmw "redressal/pkg/platform/middleware/auth"
	requestmw "redressal/pkg/platform/middleware/request"
	requesttimemw "redressal/pkg/platform/middleware/requesttime"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal services packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		complaintStore complaint.Store
		complaintTx    complaint.StoreTx
		timelineStore  timeline.Store
		lockerStore    locker.Store
		roleStore      rbac.Store
		auditStore     audit.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err)
			os.Exit(1)
		}
		complaintStore = complaintstore.NewPostgres(db)
		complaintTx = complaintstore.NewPostgresTx(db)
		timelineStore = timeline.NewPostgres(db)
		lockerStore = locker.NewPostgres(db)
		roleStore = rbacstore.NewPostgres(db)
		auditStore = audit.NewPostgres(db)
	} else {
		log.Warn("no POSTGRES_DSN configured, using in-memory stores")
		complaintStore = complaintstore.NewInMemory()
		complaintTx = complaint.NewInMemoryTx()
		timelineStore = timeline.NewInMemoryStore()
		lockerStore = locker.NewInMemoryStore()
		roleStore = rbacstore.NewInMemory()
		auditStore = audit.NewInMemoryStore()
	}

	// Optional Redis-backed token revocation list.
	var (
		revocationChecker authmw.TokenRevocationChecker
		revocationList    *auth.RedisTRL
	)
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		revocationList = auth.NewRedisTRL(redisClient.Client)
		revocationChecker = revocationList
		log.Info("token revocation list enabled")
	}

	// Audit pipeline: services publish, the worker persists.
	inbox := make(chan audit.Event, cfg.AuditInboxSize)
	publisher := audit.NewPublisher(inbox)
	worker := audit.NewWorker(auditStore, inbox)

	roleService := rbac.NewService(roleStore,
		rbac.WithLogger(log),
		rbac.WithAuditPublisher(publisher),
	)
	lockerService := locker.NewService(lockerStore)
	recorder := timeline.NewRecorder(timelineStore)
	complaintService := complaint.NewService(complaintStore, roleService, recorder, lockerService,
		complaint.WithLogger(log),
		complaint.WithAuditPublisher(publisher),
		complaint.WithMetrics(complaintmetrics.New()),
		complaint.WithTx(complaintTx),
	)

	jwtService := auth.NewJWTService(cfg.JWTSigningKey, "redressal", "redressal-api")

	complaintHandler := complainthandler.New(complaintService, log)
	roleHandler := rbachandler.New(roleService, log)
	tokenHandler := authhandler.New(jwtService, revocationList, log)

	router := chi.NewRouter()
	router.Use(chimw.Recoverer)
	router.Use(requestmw.Middleware)
	router.Use(requesttimemw.Middleware)
	router.Use(platformmetrics.Middleware)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Handle("/metrics", promhttp.Handler())

	router.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(auth.NewJWTServiceAdapter(jwtService), revocationChecker, log))
		complaintHandler.Register(r)
		roleHandler.Register(r)
		if revocationList != nil {
			tokenHandler.Register(r)
		}
	})

	router.Group(func(r chi.Router) {
		r.Use(adminmw.RequireBootstrapToken(cfg.AdminTokenHash, log))
		roleHandler.RegisterBootstrap(r)
		tokenHandler.RegisterTokenMint(r)
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting redressal server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
