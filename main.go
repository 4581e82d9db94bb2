package main

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"

	"marsvandals/internal/archive"
	"marsvandals/internal/game"
	"marsvandals/internal/server"
	"marsvandals/internal/store"
)

func main() {
	// .env is optional; environment variables win either way.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	addr := envOr("ADDR", ":8080")
	dataDir := envOr("DATA_DIR", "./data")
	staticDir := envOr("STATIC_DIR", "./static")

	cfg := game.DefaultConfig()
	if raw := os.Getenv("SAVE_PROBABILITY"); raw != "" {
		if p, err := strconv.ParseFloat(raw, 64); err == nil && p >= 0 && p <= 1 {
			cfg.SaveProbability = p
		} else {
			log.Printf("Ignoring invalid SAVE_PROBABILITY %q", raw)
		}
	}

	st := store.New(dataDir)

	ar, err := archive.Open(filepath.Join(dataDir, "history.db"))
	if err != nil {
		log.Printf("Event archive disabled: %v", err)
		ar = nil
	}
	defer ar.Close()

	world := game.NewWorld(cfg, st, ar)
	srv := server.NewServer(world, staticDir)

	log.Println("Starting Vandals on Mars sync server...")
	if err := srv.Start(addr); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
