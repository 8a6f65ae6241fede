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

	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"portrait-studio-server/modules/billing"
	"portrait-studio-server/modules/common/api"
	"portrait-studio-server/modules/common/config"
	"portrait-studio-server/modules/common/credit"
	"portrait-studio-server/modules/common/database"
	"portrait-studio-server/modules/common/gemini"
	"portrait-studio-server/modules/common/hub"
	"portrait-studio-server/modules/common/logger"
	redisClient "portrait-studio-server/modules/common/redis"
	"portrait-studio-server/modules/common/storage"
	"portrait-studio-server/modules/gallery"
	"portrait-studio-server/modules/portrait"
	"portrait-studio-server/modules/worker"
)

const shutdownTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, websocket hub and queue worker",
	RunE:  runServe,
}

var workerConcurrency int

func init() {
	serveCmd.Flags().IntVar(&workerConcurrency, "concurrency", worker.DefaultConcurrency, "number of queue jobs processed in parallel")
	rootCmd.AddCommand(serveCmd)
}

var startTime = time.Now()

// healthCheck - GET /, /health
func healthCheck(w http.ResponseWriter, r *http.Request) {
	api.JSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": "portrait-studio-server",
		"uptime":  time.Since(startTime).Round(time.Second).String(),
	})
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb := redisClient.Connect(cfg)
	if rdb == nil {
		return errors.New("failed to connect to Redis")
	}
	defer rdb.Close()
	logger.L().Infof("✅ Redis connected successfully")

	db := database.NewClient()
	if db == nil {
		return errors.New("failed to initialize database client")
	}

	queue := redisClient.NewQueue(rdb)
	images := storage.NewClient(cfg, db)
	credits := credit.NewClient(db.Supabase())
	progress := hub.New()

	svc := portrait.NewService(cfg, portrait.Dependencies{
		Generator: gemini.NewClient(cfg.GeminiAPIKeys, cfg.GeminiModel),
		Credits:   credits,
		Images:    images,
		Repo:      db,
		Cancels:   queue,
		Publisher: progress,
	})

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(api.CORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.HandleFunc("/ws", progress.ServeWS)
	r.HandleFunc("/metrics", progress.HandleMetrics).Methods("GET")

	portrait.NewHandler(svc).RegisterRoutes(r)
	gallery.NewHandler(db, cfg.StorageURL).RegisterRoutes(r)
	billing.NewHandler(credits, cfg.WebhookSecret).RegisterRoutes(r)
	worker.NewEnqueueHandler(queue, db, images, progress, cfg.ImagePerPrice).RegisterRoutes(r)
	worker.NewCancelHandler(queue, db).RegisterRoutes(r)

	if cfg.WebhookSecret == "" {
		logger.L().Warnf("⚠️  WEBHOOK_SECRET not set, /api/credits/webhook will reject all calls")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		progress.Run(egCtx)
		return nil
	})

	eg.Go(func() error {
		return worker.NewWorker(queue, db, svc, workerConcurrency).StartWorker(egCtx)
	})

	eg.Go(func() error {
		logger.L().Infof("🚀 Portrait Studio Server starting on port %s", cfg.Port)
		logger.L().Infof("📡 WebSocket endpoint: ws://localhost:%s/ws?user={userId}", cfg.Port)
		logger.L().Infof("❤️  Health check: http://localhost:%s/health", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		<-egCtx.Done()
		logger.L().Infof("🛑 Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return eg.Wait()
}
