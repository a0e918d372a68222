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

	"github.com/fieldforce-api/internal/application/attendance"
	"github.com/fieldforce-api/internal/config"
	jwtinfra "github.com/fieldforce-api/internal/infrastructure/jwt"
	"github.com/fieldforce-api/internal/infrastructure/postgres"
	"github.com/fieldforce-api/internal/pkg/businesstime"
	transporthttp "github.com/fieldforce-api/internal/transport/http"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()
	zone := businesstime.NewZone(cfg.BusinessUTCOffsetMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := postgres.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	if err := postgres.Bootstrap(ctx, pool); err != nil {
		log.Fatalf("schema bootstrap: %v", err)
	}

	// JWT auth is optional; without a public key the routes stay open.
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available, auth disabled: %v", err)
	}

	attendanceSvc := attendance.NewService(attendance.ServiceDeps{
		Repo:              postgres.NewSessionRepo(pool, zone),
		Zone:              zone,
		CutoffHour:        cfg.CutoffHour,
		MaxSessionMinutes: cfg.MaxSessionMinutes,
		MaxQueryLimit:     cfg.SessionQueryMaxLimit,
	})

	scheduler := attendance.NewScheduler(attendanceSvc, zone, cfg.AutoClockoutHour)
	go scheduler.Run(ctx)

	router := transporthttp.NewRouter(cfg, &transporthttp.Deps{
		Attendance:  attendanceSvc,
		JWTProvider: jwtProvider,
		DB:          pool,
		Zone:        zone,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s, timezone=%s)", cfg.AppPort, cfg.AppEnv, zone.Name())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel() // stops the scheduler
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
