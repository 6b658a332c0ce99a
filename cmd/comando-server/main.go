/*-------------------------------------------------------------------------
 *
 * main.go
 *    Main entry point for the Centro de Comando server
 *
 * Copyright (c) 2024-2026, Zyra Tecnologia Ltda. <dev@zyra.app.br>
 *
 * IDENTIFICATION
 *    cmd/comando-server/main.go
 *
 *-------------------------------------------------------------------------
 */

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"github.com/victorbarbieri91/zyra-comando/internal/agentclient"
	"github.com/victorbarbieri91/zyra-comando/internal/api"
	"github.com/victorbarbieri91/zyra-comando/internal/auth"
	"github.com/victorbarbieri91/zyra-comando/internal/config"
	"github.com/victorbarbieri91/zyra-comando/internal/datastore"
	"github.com/victorbarbieri91/zyra-comando/internal/db"
	"github.com/victorbarbieri91/zyra-comando/internal/humanloop"
	"github.com/victorbarbieri91/zyra-comando/internal/metrics"
	"github.com/victorbarbieri91/zyra-comando/internal/orchestrator"
	"github.com/victorbarbieri91/zyra-comando/internal/session"
	"github.com/victorbarbieri91/zyra-comando/internal/stager"
)

var (
	version   = "dev"
	buildDate = "unknown"
	gitCommit = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help message")
	)
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Centro de Comando - conversational action server for Zyra\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nConfiguration is read from environment variables; see internal/config.\n")
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("comando-server version %s\n", version)
		fmt.Printf("Build date: %s\n", buildDate)
		fmt.Printf("Git commit: %s\n", gitCommit)
		os.Exit(0)
	}
	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	/* Load configuration */
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	/* Initialize logging */
	metrics.InitLogging(cfg.Logging.Level, cfg.Logging.Format)

	/* Connect to database */
	database, err := db.NewDBWithRetry(cfg.Database.ConnString(), db.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
	}, 5, 2*time.Second)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer database.Close()

	/* Initialize components */
	queries := db.NewQueries(database.DB)
	store := datastore.NewPostgresStore(database.DB, cfg.Database.Schema)
	actionLog := stager.NewDBAudit(queries)
	actionStager := stager.New(stager.NewStoreExecutor(store), actionLog)

	backend := agentclient.NewClient(cfg.Agent.BaseURL, cfg.Agent.APIKey, cfg.Agent.RequestTimeout)
	hub := orchestrator.NewHub()
	orch := orchestrator.New(queries, backend, actionStager, hub, cfg.Agent.MaxHistory)
	feedback := humanloop.NewFeedbackManager(queries, orch)

	/* Session management */
	sessionCache := session.NewCache(1024)
	sessionManager := session.NewManager(queries, sessionCache)
	sessionCleanup := session.NewCleanupService(queries, cfg.Session.CleanupInterval, cfg.Session.MaxIdleAge)
	sessionCleanup.Start(context.Background())
	defer sessionCleanup.Stop()

	/* Auth */
	validator, err := auth.NewValidator(cfg.Auth.JWTSecret)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		os.Exit(1)
	}

	/* API */
	handlers := api.NewHandlers(queries, sessionManager, orch, feedback, hub, cfg.Render.MaxRows)

	/* Setup router */
	router := mux.NewRouter()
	router.Use(api.RequestIDMiddleware)
	router.Use(api.SecurityHeadersMiddleware)
	router.Use(api.CORSMiddleware)
	router.Use(api.LoggingMiddleware)
	router.Use(auth.Middleware(validator))

	/* API routes */
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.HandleFunc("/sessoes", handlers.CreateSession).Methods("POST")
	apiRouter.HandleFunc("/sessoes", handlers.ListSessions).Methods("GET")
	apiRouter.HandleFunc("/sessoes/ativa", handlers.SwitchSession).Methods("POST")
	apiRouter.HandleFunc("/sessoes/{id}/mensagens", handlers.SendMessage).Methods("POST")
	apiRouter.HandleFunc("/sessoes/{id}/mensagens", handlers.GetMessages).Methods("GET")
	apiRouter.HandleFunc("/sessoes/{id}/limpar", handlers.ClearChat).Methods("POST")
	apiRouter.HandleFunc("/sessoes/{id}/parar", handlers.StopTurn).Methods("POST")
	apiRouter.HandleFunc("/sessoes/{id}/stream", handlers.StreamSession).Methods("GET")
	apiRouter.HandleFunc("/acoes", handlers.ListActions).Methods("GET")
	apiRouter.HandleFunc("/acoes/atual", handlers.CurrentAction).Methods("GET")
	apiRouter.HandleFunc("/acoes/{id}/confirmar", handlers.ConfirmAction).Methods("POST")
	apiRouter.HandleFunc("/acoes/{id}/cancelar", handlers.CancelAction).Methods("POST")
	apiRouter.HandleFunc("/mensagens/{id}/feedback", handlers.SubmitFeedback).Methods("POST")
	apiRouter.HandleFunc("/mensagens/{id}/feedback", handlers.GetFeedback).Methods("GET")
	router.HandleFunc("/ws", handlers.HandleWebSocket).Methods("GET")

	/* Health check */
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := database.HealthCheck(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods("GET")

	/* Metrics endpoint (no auth required) */
	router.Handle("/metrics", metrics.Handler()).Methods("GET")

	/* Start server */
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		metrics.InfoWithContext(context.Background(), "Server starting", map[string]interface{}{
			"addr":    addr,
			"version": version,
		})
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(os.Stderr, "FATAL: Server failed: %v\n", err)
			os.Exit(1)
		}
	}()

	/* Wait for shutdown signal */
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	metrics.InfoWithContext(context.Background(), "Server shutting down", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Shutdown error: %v\n", err)
	}
}
