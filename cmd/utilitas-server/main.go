// utilitas-server exposes the utility tools (current time, calculator)
// over MCP stdio.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/agenkampus/agenkampus/internal/utilitas"
)

const version = "0.1.0"

func main() {
	logPath := os.Getenv("UTILITAS_LOG_FILE")
	logFile := os.Stderr
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			defer f.Close()
			logFile = f
		}
	}
	logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelInfo}))

	server := utilitas.NewServer(version, nil)
	logger.Info("Starting Utilitas MCP server over stdio", "version", version)
	if err := server.Run(context.Background(), &mcp.StdioTransport{}); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
