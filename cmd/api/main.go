package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	appanalysis "github.com/guardline/incident-ai/internal/application/analysis"
	"github.com/guardline/incident-ai/internal/config"
	domain "github.com/guardline/incident-ai/internal/domain/analysis"
	"github.com/guardline/incident-ai/internal/infra/aiclient"
	aivision "github.com/guardline/incident-ai/internal/infra/ai/openai"
	mysqlp "github.com/guardline/incident-ai/internal/infra/db/mysql"
	postgresp "github.com/guardline/incident-ai/internal/infra/db/postgres"
	"github.com/guardline/incident-ai/internal/infra/httpserver"
	minioStore "github.com/guardline/incident-ai/internal/infra/storage"
	"github.com/guardline/incident-ai/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database (analysis history)
	var db *sql.DB
	var history domain.Repository
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		history = postgresp.NewAnalysisRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		history = mysqlp.NewAnalysisRepository(db)
	}
	defer db.Close()

	// attachment URL resolver: MinIO when enabled, plain base path otherwise
	var resolve domain.URLResolver
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		resolve = store.Resolver(cfg.Minio.Presign, time.Duration(cfg.Minio.PresignExpiry)*time.Minute)
	} else {
		base := strings.TrimRight(cfg.Storage.AttachmentBaseURL, "/")
		resolve = func(incidentID, filename string) string {
			return fmt.Sprintf("%s/%s/%s", base, incidentID, filename)
		}
	}

	// OCR provider: remote image text service or direct vision model
	var ocr domain.TextExtractor
	switch cfg.AI.OCR.Provider {
	case "openai":
		ocr = aivision.NewClient(cfg.AI.OCR.OpenAIAPIKey, cfg.AI.OCR.OpenAIModel)
	default:
		ocr = aiclient.NewImageTextClient(cfg.AI.OCR.BaseURL, cfg.OCRTimeout())
	}

	classifier := aiclient.NewClassifierClient(cfg.AI.Classifier.BaseURL, cfg.ClassifierTimeout())

	// init service
	svc := appanalysis.NewService(ocr, classifier, history, resolve, cfg.Auth.AllowedRoles)

	// auth credentials
	clients := make(map[string]middleware.Credential, len(cfg.Auth.Clients))
	for _, c := range cfg.Auth.Clients {
		clients[c.APIKey] = middleware.Credential{Tenant: c.Tenant, Role: c.Role}
	}

	// rate limit defaults
	capacity, refill := cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate
	if capacity <= 0 {
		capacity = 30
	}
	if refill <= 0 {
		refill = 1
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.APIKeyAuth(clients))
	mux.Use(middleware.RateLimitMiddleware(capacity, refill))
	mux.Mount("/", httpserver.NewRouter(svc, cfg.Server.AllowedOrigins, map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:        addr,
		Handler:     mux,
		ReadTimeout: 15 * time.Second,
		// analyze runs two sequential downstream calls of up to 30s each
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
