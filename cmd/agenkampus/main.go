// agenkampus is the interactive agent CLI: it connects to the configured
// MCP servers, builds the retrieval index over the tool catalog, and feeds
// each input line through the query loop.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/agenkampus/agenkampus/internal/agent"
	"github.com/agenkampus/agenkampus/internal/catalog"
	"github.com/agenkampus/agenkampus/internal/config"
	"github.com/agenkampus/agenkampus/internal/index"
	"github.com/agenkampus/agenkampus/internal/retriever"
	"github.com/agenkampus/agenkampus/internal/session"
)

func main() {
	var (
		configPath string
		noRAG      bool
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "agenkampus",
		Short: "RAG-narrowed MCP tool agent",
		Long: `agenkampus answers natural-language queries by retrieving the most
relevant tools from the catalog and letting the decision model call them
over MCP sessions.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, noRAG, verbose)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")
	cmd.Flags().BoolVar(&noRAG, "no-rag", false, "present the full tool table instead of retrieval narrowing")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, configPath string, noRAG, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	cat, err := catalog.Load(cfg.Catalog)
	if err != nil {
		return err
	}
	logger.Info("Catalog loaded", "tools", cat.Len())

	client := openai.NewClient(os.Getenv("OPENAI_API_KEY"))

	ret := buildRetriever(ctx, cfg, cat, client, logger)

	registry := session.NewRegistry(logger, cfg.Agent.CallTimeoutDuration())
	if err := registry.ConnectAll(ctx, cfg.ServerSpecs()); err != nil {
		return err
	}
	defer registry.DisconnectAll()

	model := agent.NewOpenAIModel(client, cfg.Agent.Model, "")
	loop := agent.New(ret, registry, model, cfg.LoopOptions(), logger)

	return repl(ctx, loop, !noRAG)
}

// buildRetriever sets up the embedding index. Failures disable RAG
// narrowing instead of aborting: the agent still works with the full tool
// table.
func buildRetriever(ctx context.Context, cfg *config.Config, cat *catalog.Catalog, client *openai.Client, logger *slog.Logger) *retriever.Retriever {
	var embedding index.EmbeddingFunc
	switch cfg.Index.Embedding {
	case "local":
		embedding = index.NewLocalEmbedding()
	default:
		embedding = index.NewOpenAIEmbedding(client, cfg.Index.EmbeddingModel)
	}

	ix, err := index.New(index.Options{
		PersistPath: cfg.Index.Path,
		Collection:  cfg.Index.Collection,
		Embedding:   embedding,
	}, logger)
	if err != nil {
		logger.Warn("Vector store unavailable, retrieval narrowing disabled", "error", err)
		return nil
	}

	ret := retriever.New(cat, ix, logger)
	if err := ret.BuildIndex(ctx); err != nil {
		logger.Warn("Index build failed, retrieval narrowing disabled", "error", err)
		return nil
	}
	return ret
}

// repl reads query lines until an explicit quit token or end-of-input. A
// failing query is reported and the session continues.
func repl(ctx context.Context, loop *agent.Loop, useRAG bool) error {
	fmt.Println("AgenKampus interactive mode. Type 'exit' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch strings.ToLower(line) {
		case "exit", "quit", "q":
			return nil
		}

		result := runQuery(ctx, loop, line, useRAG)
		if result.Success {
			fmt.Println(result.Answer)
		} else {
			fmt.Printf("error: %s\n", result.Err)
		}

		if ctx.Err() != nil {
			break
		}
	}
	return scanner.Err()
}

// runQuery isolates one query so an uncaught fault reports as a failed
// result instead of terminating the session.
func runQuery(ctx context.Context, loop *agent.Loop, text string, useRAG bool) (result *agent.Result) {
	defer func() {
		if r := recover(); r != nil {
			result = &agent.Result{Success: false, Err: fmt.Sprintf("query panicked: %v", r)}
		}
	}()
	return loop.Query(ctx, text, useRAG)
}
