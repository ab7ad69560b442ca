// akademik-server exposes the academic database over MCP stdio. It is
// spawned by the orchestrator (or any MCP client) as a subprocess.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agenkampus/agenkampus/internal/akademik"
)

const version = "0.1.0"

func main() {
	// stdout carries the MCP stream, so logs go to a file (or stderr).
	logPath := os.Getenv("AKADEMIK_LOG_FILE")
	logFile := os.Stderr
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			defer f.Close()
			logFile = f
		}
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	ctx := context.Background()

	store, err := akademik.Open(os.Getenv("AKADEMIK_DB"), logger)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	if err := store.Init(ctx); err != nil {
		logger.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}

	server := akademik.NewServer(store, version)
	logger.Info("Starting Akademik MCP server over stdio", "version", version)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
