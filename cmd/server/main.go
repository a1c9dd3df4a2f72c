package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/kringle-dev/kringle/config"
	"github.com/kringle-dev/kringle/internal/database"
	"github.com/kringle-dev/kringle/internal/events"
	"github.com/kringle-dev/kringle/internal/lifecycle"
	"github.com/kringle-dev/kringle/internal/matching"
	"github.com/kringle-dev/kringle/internal/web/handlers"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("kringle-server %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", buildDate)
		os.Exit(0)
	}

	cfg := config.Load()

	if cfg.Auth.JWTSecret == "" {
		log.Println("WARNING: JWT_SECRET is empty, admin routes will reject every token")
	}

	db, err := database.New(cfg.DB.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	var pub events.Publisher = events.Nop{}
	if cfg.Kafka.Enabled {
		kp := events.NewKafka(cfg.Kafka.Brokers)
		defer kp.Close()
		pub = kp
		log.Printf("Publishing lifecycle events to %v", cfg.Kafka.Brokers)
	}

	matcher := matching.New(db)
	lc := lifecycle.New(db, pub)
	h := handlers.New(db, cfg, matcher, lc)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.New(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	// Health check.
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Admin API (bearer token with admin role required).
	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.AdminMiddleware(cfg.Auth.JWTSecret, cfg.Auth.Issuer))

		r.Get("/matches", h.ListMatches)
		r.Post("/matches", h.AssignSanta)
		r.Post("/matches/auto", h.AutoMatch)
		r.Post("/matches/publish", h.PublishMatches)
		r.Delete("/matches/drafts", h.DeleteDrafts)
		r.Post("/matches/{id}/reassign", h.Reassign)
		r.Post("/matches/{id}/deactivate", h.DeactivateMatch)
		r.Post("/matches/{id}/sorted", h.MarkSorted)
		r.Post("/matches/{id}/contacted", h.MarkContacted)

		r.Get("/players", h.ListPlayers)
		r.Get("/players/{handle}", h.GetPlayer)
	})

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("Kringle server starting on %s (env: %s)", addr, cfg.Server.Env)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
	log.Println("Server stopped")
}
