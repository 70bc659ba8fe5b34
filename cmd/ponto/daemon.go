package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vleiria/ponto/internal/audit"
	"github.com/vleiria/ponto/internal/controlplane"
	"github.com/vleiria/ponto/internal/store"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the scheduler backend",
	Long:  `Starts the backend which provides the HTTP API for schedule coordination.`,
	RunE:  runDaemon,
}

func init() {
	homeDir, _ := os.UserHomeDir()
	defaultDB := filepath.Join(homeDir, ".ponto", "ponto.db")

	daemonCmd.Flags().StringVar(&listenAddr, "listen", "127.0.0.1:8000", "Listen address for the API server")
	daemonCmd.Flags().StringVar(&dbPath, "db", defaultDB, "Path to SQLite database")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	log.Println("Starting ponto backend...")

	s, err := store.New(dbPath)
	if err != nil {
		return err
	}

	service := controlplane.NewService(s, audit.NewTrail(s))
	server := controlplane.NewServer(service, s, listenAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Printf("Received signal %v, initiating graceful shutdown...", sig)
	case err := <-serverErr:
		if err != nil {
			log.Printf("Server error: %v", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Println("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	if err := s.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}

	log.Println("Backend stopped.")
	return nil
}
