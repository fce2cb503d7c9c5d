// Command server wires the rehabilitation filing backend: stores (postgres
// or in-memory), the redis or in-memory session store, the audit pipeline
// (kafka or a buffered in-process worker), and the HTTP router.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"rehabdocs/internal/audit"
	authhandler "rehabdocs/internal/auth/handler"
	authservice "rehabdocs/internal/auth/service"
	sessionstore "rehabdocs/internal/auth/store/session"
	userstore "rehabdocs/internal/auth/store/user"
	casehandler "rehabdocs/internal/casefile/handler"
	caseservice "rehabdocs/internal/casefile/service"
	casestore "rehabdocs/internal/casefile/store"
	checklistservice "rehabdocs/internal/checklist/service"
	checkliststore "rehabdocs/internal/checklist/store"
	clienthandler "rehabdocs/internal/client/handler"
	clientservice "rehabdocs/internal/client/service"
	clientstore "rehabdocs/internal/client/store"
	documenthandler "rehabdocs/internal/document/handler"
	documentservice "rehabdocs/internal/document/service"
	documentstore "rehabdocs/internal/document/store"
	"rehabdocs/internal/issuer"
	issuerhandler "rehabdocs/internal/issuer/handler"
	issuerservice "rehabdocs/internal/issuer/service"
	"rehabdocs/internal/jwttoken"
	"rehabdocs/internal/platform/config"
	"rehabdocs/internal/platform/crypto"
	"rehabdocs/internal/platform/httpserver"
	"rehabdocs/internal/platform/logger"
	"rehabdocs/internal/platform/metrics"
	"rehabdocs/internal/platform/middleware"
	"rehabdocs/internal/platform/postgres"
	platformredis "rehabdocs/internal/platform/redis"
	"rehabdocs/internal/storage"
	"rehabdocs/pkg/platform/tx"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)

	sealer, err := crypto.NewSealer(cfg.EncryptionKey)
	if err != nil {
		return err
	}

	// Persistence. Empty DATABASE_URL keeps everything in memory for local
	// development.
	var (
		users      authservice.UserStore
		clients    clientservice.Store
		cases      interface {
			caseservice.Store
			clientservice.CaseCounter
		}
		checklists checklistservice.Store
		documents  documentservice.Store
		runner     tx.Runner
	)
	if cfg.DatabaseURL != "" {
		db, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			return err
		}
		users = userstore.NewPostgres(db)
		clients = clientstore.NewPostgres(db)
		cases = casestore.NewPostgres(db)
		checklists = checkliststore.NewPostgres(db)
		documents = documentstore.NewPostgres(db)
		runner = tx.NewSQLRunner(db)
		log.Info("using postgres stores")
	} else {
		users = userstore.New()
		clients = clientstore.NewMemory()
		cases = casestore.NewMemory()
		checklists = checkliststore.NewMemory()
		documents = documentstore.NewMemory()
		runner = tx.NewMemoryRunner()
		log.Info("using in-memory stores")
	}

	var sessions authservice.SessionStore
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		sessions = sessionstore.NewRedis(redisClient.Client)
		log.Info("using redis session store")
	} else {
		sessions = sessionstore.NewMemory()
	}

	files, err := storage.NewFilesystem(cfg.UploadDir)
	if err != nil {
		return err
	}

	// Audit pipeline: kafka when brokers are configured, otherwise a
	// buffered in-process worker draining into a bounded memory store.
	g, ctx := errgroup.WithContext(ctx)
	var recorder audit.Recorder
	kafkaPub, err := audit.NewKafkaPublisher(cfg.Kafka, log)
	if err != nil {
		return err
	}
	if kafkaPub != nil {
		recorder = kafkaPub
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	} else {
		buffered := audit.NewBufferedRecorder(256, log)
		worker := audit.NewWorker(audit.NewMemoryStore(1024), buffered.Inbox(), log)
		g.Go(func() error { return worker.Run(ctx) })
		recorder = buffered
	}

	// Services.
	jwt := jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTIssuer)
	authSvc := authservice.New(users, sessions, jwt, cfg.TokenTTL, log)
	if err := authSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}

	clientSvc := clientservice.New(clients, cases, sealer, recorder, m, log)
	checklistSvc := checklistservice.New(checklists, log)
	documentSvc := documentservice.New(documents, caseFinder{store: cases}, checklistSvc, files, runner, recorder, m, log)
	caseSvc := caseservice.New(cases, clientSvc, checklistSvc, documentSvc, runner, recorder, m, log)
	gateway := issuer.NewClient(cfg.Issuer)
	issueSvc := issuerservice.New(gateway, clientSvc, caseSvc, checklistSvc, documentSvc, recorder, m, log)

	// Handlers.
	authH := authhandler.New(authSvc, log)
	clientH := clienthandler.New(clientSvc, log, cfg.MaxUploadSize)
	caseH := casehandler.New(caseSvc, log)
	documentH := documenthandler.New(documentSvc, log, cfg.MaxUploadSize)
	issueH := issuerhandler.New(issueSvc, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(m))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.ContentTypeJSON)
			authH.RegisterPublic(r)
		})
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(authSvc, log))
			r.Use(middleware.Timeout(2 * time.Minute))
			r.Use(middleware.ContentTypeJSON)
			authH.RegisterProtected(r)
			clientH.Register(r)
			caseH.Register(r)
			documentH.Register(r)
			issueH.Register(r)
		})
	})

	srv := httpserver.New(cfg.Addr, r)

	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		if kafkaPub != nil {
			// Flush buffered audit events before the process exits.
			if flushErr := kafkaPub.Close(shutdownCtx); flushErr != nil {
				log.Warn("audit flush on shutdown failed", "error", flushErr)
			}
		}
		return err
	})

	return g.Wait()
}
