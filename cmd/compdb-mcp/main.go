package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dshills/compdb-filter/internal/mcp"
	"github.com/dshills/compdb-filter/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		printVersion(os.Stdout)
		return
	}

	// stdout carries the MCP protocol
	log.SetOutput(os.Stderr)

	if err := serve(); err != nil {
		log.Fatalf("compdb-mcp: %v", err)
	}
	log.Println("compdb-mcp: stopped")
}

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "%s MCP server %s (built %s)\n", mcp.ServerName, version, buildTime)
	fmt.Fprintf(w, "history store: %s via %s\n", storage.DriverName, storage.BuildMode)
	fmt.Fprintf(w, "environment: %s, %s, %s\n", mcp.EnvHistoryPath, mcp.EnvWorkers, mcp.EnvWorkingDir)
}

// serve runs the server until stdin closes or SIGINT/SIGTERM arrives
func serve() error {
	config, err := mcp.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	server, err := mcp.NewServer(config)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("compdb-mcp %s: history=%s workers=%d cwd=%s",
		version, config.HistoryPath, config.Workers, config.WorkingDir)
	return server.Serve(ctx)
}
