package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/compdb-filter/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "compdb-filter"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
	// DefaultHistoryPath is the default location for the run history database
	DefaultHistoryPath = "~/.compdb-filter"
	// HistoryFileName is the database file created inside the history path
	HistoryFileName = "history.db"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp        *server.MCPServer
	storage    storage.Storage
	workers    int
	workingDir string
	writeLock  runLock
}

// NewServer creates a new MCP server instance.
// A nil config is loaded from the environment.
func NewServer(config *Config) (*Server, error) {
	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}

	historyPath := config.HistoryPath
	if historyPath == "" {
		historyPath = DefaultHistoryPath
	}
	historyPath, err := expandHome(historyPath)
	if err != nil {
		return nil, err
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(historyPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(filepath.Join(historyPath, HistoryFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	workingDir := config.WorkingDir
	if workingDir == "" {
		workingDir, err = os.Getwd()
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:        mcpServer,
		storage:    store,
		workers:    config.Workers,
		workingDir: workingDir,
	}

	s.registerTools()

	return s, nil
}

// Serve runs the MCP server on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.storage.Close() }()
	return s.Listen(ctx, os.Stdin, os.Stdout)
}

// Listen serves MCP requests read from in, writing responses to out.
// Cancellation of ctx is a clean shutdown.
func (s *Server) Listen(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(log.New(os.Stderr, "mcp: ", log.LstdFlags))

	if err := stdio.Listen(ctx, in, out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// Close releases the history database
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(filterTool(), s.handleFilter)
	s.mcp.AddTool(filterBatchTool(), s.handleFilterBatch)
	s.mcp.AddTool(previewFilterTool(), s.handlePreviewFilter)
	s.mcp.AddTool(getHistoryTool(), s.handleGetHistory)
}
