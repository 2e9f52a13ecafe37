// Copyright (c) 2026 John Earle
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Auto Ankauf Franken — Lead Relay Service
//
// Entry point for the inquiry relay. It:
//  1. Loads configuration from config.yaml and the environment
//  2. Connects to Postgres and Redis when configured (both optional)
//  3. Builds the image uploader and the two delivery channel clients
//  4. Serves the submission endpoint plus /health and /metrics
//  5. Handles graceful shutdown on SIGTERM/SIGINT
//
// Every outbound integration is optional: a missing credential disables
// that channel only, never the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/frankenauto/leadrelay/internal/config"
	"github.com/frankenauto/leadrelay/internal/images"
	"github.com/frankenauto/leadrelay/internal/inquiry"
	"github.com/frankenauto/leadrelay/internal/leadstore"
	"github.com/frankenauto/leadrelay/internal/notify"
)

func main() {
	// Structured JSON logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	slog.Info("starting lead relay service")

	// Local development convenience; production sets real env vars.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	// --- Load Configuration ---
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"email_configured", cfg.EmailConfigured(),
		"sheets_configured", cfg.SheetsConfigured(),
		"uploads_configured", cfg.UploadsConfigured(),
		"postgres_archive", cfg.DatabaseURL != "",
		"file_archive", cfg.LeadsDir != "",
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// --- Optional Postgres (lead archive) ---
	var pgPool *pgxpool.Pool
	var archives []leadstore.Archive
	if cfg.DatabaseURL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to create Postgres pool", "error", err)
			os.Exit(1)
		}
		defer pgPool.Close()

		store, err := leadstore.NewPostgresStore(ctx, pgPool)
		if err != nil {
			slog.Error("failed to initialise postgres lead archive", "error", err)
			os.Exit(1)
		}
		archives = append(archives, store)
	}

	// --- Optional file archive (writable-filesystem deployments only) ---
	if cfg.LeadsDir != "" {
		store, err := leadstore.NewFileStore(cfg.LeadsDir)
		if err != nil {
			slog.Error("failed to initialise file lead archive", "error", err)
			os.Exit(1)
		}
		archives = append(archives, store)
		slog.Info("file lead archive initialised", "dir", cfg.LeadsDir)
	}

	// --- Optional Redis (upload quota guard) ---
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			slog.Error("invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opt)
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			// Quota fails open, so a down Redis degrades, not aborts.
			slog.Warn("redis unreachable at startup, quota guard will fail open", "error", err)
		} else {
			slog.Info("connected to Redis")
		}
	}
	quota := images.NewQuota(rdb, cfg.UploadQuota)

	// --- Image Uploader ---
	uploader := images.NewUploader(
		&http.Client{Timeout: cfg.UploadTimeout},
		cfg.ImageHostURL,
		cfg.ImgBBAPIKey,
		cfg.MaxImageBytes,
		quota,
	)

	// --- Delivery Channels ---
	emailClient := notify.NewEmailClient(
		&http.Client{Timeout: cfg.DeliveryTimeout},
		cfg.EmailRelayURL,
		cfg.ResendAPIKey,
		cfg.FromEmail,
		cfg.RecipientEmail,
	)

	sheetsHTTP := &http.Client{Timeout: cfg.DeliveryTimeout}
	if cfg.SheetsOAuth.Enabled() {
		creds := &clientcredentials.Config{
			ClientID:     cfg.SheetsOAuth.ClientID,
			ClientSecret: cfg.SheetsOAuth.ClientSecret,
			TokenURL:     cfg.SheetsOAuth.TokenURL,
			Scopes:       cfg.SheetsOAuth.Scopes,
		}
		sheetsHTTP = creds.Client(ctx)
		sheetsHTTP.Timeout = cfg.DeliveryTimeout
		slog.Info("sheets webhook using oauth2 client credentials")
	}
	sheetsClient := notify.NewWebhookClient(sheetsHTTP, cfg.SheetsWebhookURL)

	// --- Pipeline + Handler ---
	pipeline := &inquiry.Pipeline{
		Uploader:         uploader,
		Email:            emailClient,
		Sheets:           sheetsClient,
		Archives:         archives,
		DashboardBaseURL: cfg.DashboardBaseURL,
	}
	handler := inquiry.NewHandler(pipeline, cfg.MaxImages, cfg.MaxImageBytes, cfg.FallbackPhone)

	// --- HTTP Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/api/send-inquiry", handler.ServeInquiry)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if pgPool != nil {
			if err := pgPool.Ping(r.Context()); err != nil {
				http.Error(w, "postgres unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		if rdb != nil {
			if err := rdb.Ping(r.Context()).Err(); err != nil {
				http.Error(w, "redis unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  60 * time.Second, // photo uploads can be slow on mobile
		WriteTimeout: 60 * time.Second,
	}

	// --- Graceful Shutdown ---
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		sig := <-sigCh

		slog.Info("received shutdown signal", "signal", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("lead relay listening", "addr", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("lead relay stopped")
}
