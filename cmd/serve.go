package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"jobmate/intake-service/internal/config"
	"jobmate/intake-service/internal/db"
	"jobmate/intake-service/internal/grpcserver"
	"jobmate/intake-service/internal/intake"
	"jobmate/intake-service/internal/scheduler"
	"jobmate/intake-service/internal/wizard"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and gRPC intake servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	// ── Config ──────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	// ── Catalog ──────────────────────────────────────────────────────────────
	cat, err := loadCatalog(ctx, cfg)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	log.Printf("[intake-service] Catalog ready ✓ (%d departments)", len(cat.Departments))

	rules := intake.NewRules(cat, intake.WithPhoneRegion(cfg.PhoneRegion))
	opts := []wizard.Option{
		wizard.WithTTL(cfg.SessionTTL),
		wizard.WithMetrics(wizard.NewMetrics(prometheus.DefaultRegisterer)),
	}

	// ── Redis ────────────────────────────────────────────────────────────────
	if cfg.RedisURL != "" {
		log.Println("[intake-service] Connecting to Redis…")
		rdb, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("redis: %w", err)
		}
		defer rdb.Close()
		opts = append(opts, wizard.WithPublisher(rdb))
		log.Println("[intake-service] Redis connected ✓")
	} else {
		log.Println("[intake-service] REDIS_URL not set, events disabled")
	}

	svc := wizard.NewService(intake.NewController(rules), opts...)

	// ── Sweeper ──────────────────────────────────────────────────────────────
	sweeper := scheduler.New(svc, cfg.SweepSpec)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}
	defer sweeper.Stop()

	// ── HTTP server ──────────────────────────────────────────────────────────
	mux := http.NewServeMux()
	mux.HandleFunc("/health", healthHandler)
	mux.Handle("/metrics", promhttp.Handler())
	wizard.NewHandler(svc).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// ── gRPC server ──────────────────────────────────────────────────────────
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}
	gsrv := grpc.NewServer()
	grpcserver.Register(gsrv, grpcserver.NewServer(svc))

	errc := make(chan error, 2)
	go func() {
		log.Printf("[intake-service] v%s listening on :%s", version, cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- fmt.Errorf("HTTP server: %w", err)
		}
	}()
	go func() {
		log.Printf("[intake-service] gRPC listening on :%s", cfg.GRPCPort)
		if err := gsrv.Serve(lis); err != nil {
			errc <- fmt.Errorf("gRPC server: %w", err)
		}
	}()

	// ── Graceful shutdown ────────────────────────────────────────────────────
	select {
	case <-ctx.Done():
	case err = <-errc:
		log.Printf("[intake-service] %v", err)
	}

	log.Println("[intake-service] Shutting down…")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[intake-service] Shutdown error: %v", err)
	}
	gsrv.GracefulStop()
	log.Println("[intake-service] Stopped.")
	return err
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "intake-service",
		"version": version,
	})
}
