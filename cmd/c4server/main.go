// Command c4server runs the Connect Four analysis REST API server.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/yourusername/c4engine/internal/ttable"
	"github.com/yourusername/c4engine/pkg/api"
)

const version = "0.1.0"

func main() {
	host := flag.String("host", "localhost", "Host to bind to (use 0.0.0.0 for all interfaces)")
	port := flag.Int("port", 8080, "Port to listen on")
	hashMB := flag.Int("hash", 64, "Transposition table size in megabytes")
	maxSearches := flag.Int("max-searches", 2, "Max concurrent search requests")
	readTimeout := flag.Duration("read-timeout", 30*time.Second, "HTTP read timeout")
	writeTimeout := flag.Duration("write-timeout", 120*time.Second, "HTTP write timeout")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Parse()

	if *showVersion {
		fmt.Printf("c4engine API Server v%s\n", version)
		os.Exit(0)
	}

	if *hashMB < 1 || *hashMB > 1<<14 {
		log.Fatalf("hash size must be in 1..16384 MB, got %d", *hashMB)
	}

	log.Printf("c4engine API Server v%s", version)

	tt := ttable.New(*hashMB << 20)
	log.Printf("Transposition table: %d MB requested, %d slots allocated", *hashMB, tt.Slots())

	config := api.ServerConfig{
		Host:         *host,
		Port:         *port,
		ReadTimeout:  *readTimeout,
		WriteTimeout: *writeTimeout,
		IdleTimeout:  60 * time.Second,
		MaxSearches:  *maxSearches,
	}

	server := api.NewServer(tt, config, version)

	if err := server.ListenAndServeWithGracefulShutdown(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
