package main

import (
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/joho/godotenv"

	"github.com/kpauljoseph/md2anki/internal/config"
	"github.com/kpauljoseph/md2anki/internal/export"
	"github.com/kpauljoseph/md2anki/internal/server"
	"github.com/kpauljoseph/md2anki/pkg/logger"
	"github.com/kpauljoseph/md2anki/pkg/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	verbose := flag.Bool("verbose", false, "enable verbose logging")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.New(logger.WithPrefix("[md2anki-server] "))
	log.SetVerbose(*verbose)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal("Error loading config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: %v", err)
	}

	builder := export.NewBuilder(log)
	srv := server.New(builder, log)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	log.Info("%s listening on %s", version.GetVersionInfo(), addr)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatal("Server error: %v", err)
	}
}
