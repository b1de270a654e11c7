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

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"

	"mentorlink/auth"
	"mentorlink/internal"
	"mentorlink/repositories"
	"mentorlink/runtime"
	"mentorlink/runtime/workers"
	"mentorlink/services"
	"mentorlink/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	level, err := internal.ParseLogLevel(config.LogLevel)
	if err != nil {
		return err
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	// Defer will be executed before run() returned anything to main()
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & services
	userRepository := repositories.NewUserRepository(db)
	connectionRepository := repositories.NewConnectionRepository(db)
	messageRepository := repositories.NewMessageRepository(db, log, config.LimitMessages)

	registry := runtime.NewRegistry(log, config.PresenceBufferSize)
	dispatcher := runtime.NewDispatcher(registry, log)

	tokens := auth.NewTokenIssuer(config.JWTSecret)
	authService := services.NewAuthService(userRepository, tokens, config.AuthTokenDuration)
	connectionService := services.NewConnectionService(userRepository, connectionRepository, log)
	guard := services.NewAccessGuard(connectionRepository)
	chatService := services.NewChatService(guard, messageRepository, dispatcher, log)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers under supervision
	supervisor := workers.NewSupervisor(log, config.RestartInterval)
	supervisor.Add(
		workers.NewPresenceBroadcastWorker(registry, registry.Changes(), log),
		workers.NewHealthWorker(log, registry, config.HealthInterval),
		workers.NewChannelCapacityWorker(log, []workers.NamedChannel{
			{Name: "presence_changes", Channel: registry.Changes()},
		}, config.HealthInterval),
	)
	supervisorDone := make(chan struct{})
	go func() {
		supervisor.Run(ctx)
		close(supervisorDone)
	}()

	// 6. HTTP server
	server := transport.NewServer(log, tokens, authService, connectionService,
		chatService, registry, transport.Config{
			SessionBufferSize: config.SessionBufferSize,
			KeepAliveInterval: config.SessionKeepAlive,
		})
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Handler()}

	// Use an error channel to capture Serve() issues
	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown incomplete", "error", err)
	}
	supervisor.Stop()
	<-supervisorDone
	log.Info("Program stopped cleanly")

	return nil
}
