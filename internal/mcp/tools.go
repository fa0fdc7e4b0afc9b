package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/compdb-filter/internal/compdb"
	"github.com/dshills/compdb-filter/internal/pathfilter"
	"github.com/dshills/compdb-filter/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeInvalidInput  = -32001 // Input file is not a valid compilation database
	ErrorCodeFilterFailed  = -32002 // Reading or writing a database failed
	ErrorCodeRunInProgress = -32003 // Another filter call is writing output
)

// Parameter limits
const (
	MaxWorkers          = 64
	DefaultPreviewLimit = 20
	MaxPreviewLimit     = 1000
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// handleFilter handles the filter_compile_commands tool invocation
func (s *Server) handleFilter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	srcDir, err := requireAbsolute(args, "src_dir")
	if err != nil {
		return nil, err
	}
	job, err := parseJob(args)
	if err != nil {
		return nil, err
	}

	if !s.writeLock.TryAcquire() {
		return nil, errRunInProgress()
	}
	defer s.writeLock.Release()

	result, runErr := pathfilter.Run(srcDir, s.workingDir, job)

	run := &storage.Run{
		Root:    pathfilter.Resolve(srcDir, s.workingDir),
		Infile:  job.Infile,
		Outfile: job.Outfile,
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	} else {
		run.TotalEntries = result.Total
		run.KeptEntries = result.Kept
		run.Duration = result.Duration
	}
	s.recordRuns(ctx, run)

	if runErr != nil {
		return nil, filterError(runErr)
	}

	response := map[string]interface{}{
		"run_id":          run.ID,
		"src_dir":         result.Root,
		"infile":          job.Infile,
		"outfile":         job.Outfile,
		"total_entries":   result.Total,
		"kept_entries":    result.Kept,
		"dropped_entries": result.Dropped(),
		"duration_ms":     result.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleFilterBatch handles the filter_compile_commands_batch tool invocation
func (s *Server) handleFilterBatch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	srcDir, err := requireAbsolute(args, "src_dir")
	if err != nil {
		return nil, err
	}

	rawJobs, ok := args["jobs"].([]interface{})
	if !ok || len(rawJobs) == 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "jobs parameter is required", map[string]interface{}{
			"param":  "jobs",
			"reason": "missing or empty",
		})
	}

	jobs := make([]pathfilter.Job, 0, len(rawJobs))
	for i, raw := range rawJobs {
		jobArgs, ok := raw.(map[string]interface{})
		if !ok {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid job", map[string]interface{}{
				"param":  fmt.Sprintf("jobs[%d]", i),
				"reason": "must be an object",
			})
		}
		job, err := parseJob(jobArgs)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	workers := getIntDefault(args, "workers", s.workers)
	if workers < 1 || workers > MaxWorkers {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("workers must be between 1 and %d", MaxWorkers), map[string]interface{}{
			"param": "workers",
			"value": workers,
		})
	}

	if !s.writeLock.TryAcquire() {
		return nil, errRunInProgress()
	}
	defer s.writeLock.Release()

	results, err := pathfilter.RunBatch(ctx, srcDir, s.workingDir, jobs, &pathfilter.Config{Workers: workers})
	if errors.Is(err, pathfilter.ErrDuplicateOutput) {
		return nil, newMCPError(ErrorCodeInvalidParams, "duplicate outfile", map[string]interface{}{
			"param":  "jobs",
			"reason": err.Error(),
		})
	}

	runs := make([]*storage.Run, 0, len(results))
	for _, res := range results {
		run := &storage.Run{
			Root:         res.Root,
			Infile:       res.Job.Infile,
			Outfile:      res.Job.Outfile,
			TotalEntries: res.Total,
			KeptEntries:  res.Kept,
			Duration:     res.Duration,
		}
		if res.Err != nil {
			msg := res.Err.Error()
			run.Error = &msg
		}
		runs = append(runs, run)
	}
	s.recordRuns(ctx, runs...)

	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "batch interrupted", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var (
		totalEntries int
		keptEntries  int
		failed       int
	)
	jobResults := make([]map[string]interface{}, 0, len(results))
	for i, res := range results {
		entry := map[string]interface{}{
			"run_id":  runs[i].ID,
			"infile":  res.Job.Infile,
			"outfile": res.Job.Outfile,
		}
		if res.Err != nil {
			failed++
			entry["error"] = res.Err.Error()
		} else {
			totalEntries += res.Total
			keptEntries += res.Kept
			entry["total_entries"] = res.Total
			entry["kept_entries"] = res.Kept
			entry["duration_ms"] = res.Duration.Milliseconds()
		}
		jobResults = append(jobResults, entry)
	}

	response := map[string]interface{}{
		"src_dir":       pathfilter.Resolve(srcDir, s.workingDir),
		"jobs":          jobResults,
		"jobs_total":    len(results),
		"jobs_failed":   failed,
		"total_entries": totalEntries,
		"kept_entries":  keptEntries,
	}
	if len(runs) > 0 {
		response["batch_id"] = runs[0].BatchID
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handlePreviewFilter handles the preview_filter tool invocation
func (s *Server) handlePreviewFilter(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	srcDir, err := requireAbsolute(args, "src_dir")
	if err != nil {
		return nil, err
	}
	infile, err := requireAbsolute(args, "infile")
	if err != nil {
		return nil, err
	}
	if err := validateInputFile(infile); err != nil {
		return nil, invalidPathError("infile", err)
	}

	limit := getIntDefault(args, "limit", DefaultPreviewLimit)
	if limit < 0 || limit > MaxPreviewLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 0 and %d", MaxPreviewLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	db, err := compdb.ReadFile(infile)
	if err != nil {
		return nil, filterError(err)
	}

	filter := pathfilter.New(srcDir, s.workingDir)
	kept := filter.Apply(db)

	files := kept.Files()
	truncated := len(files) > limit
	if truncated {
		files = files[:limit]
	}

	response := map[string]interface{}{
		"src_dir":         filter.Root(),
		"infile":          infile,
		"total_entries":   len(db),
		"kept_entries":    len(kept),
		"dropped_entries": len(db) - len(kept),
		"kept_files":      files,
		"truncated":       truncated,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetHistory handles the get_history tool invocation
func (s *Server) handleGetHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		// All parameters are optional
		args = map[string]interface{}{}
	}

	if runID := getStringDefault(args, "run_id", ""); runID != "" {
		return s.getRun(ctx, runID)
	}

	filter := &storage.RunFilter{
		FailedOnly: getBoolDefault(args, "failed_only", false),
		Limit:      getIntDefault(args, "limit", DefaultHistoryLimit),
	}
	if filter.Limit < 1 || filter.Limit > MaxHistoryLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", MaxHistoryLimit), map[string]interface{}{
			"param": "limit",
			"value": filter.Limit,
		})
	}

	if srcDir := getStringDefault(args, "src_dir", ""); srcDir != "" {
		if !filepath.IsAbs(srcDir) {
			return nil, invalidPathError("src_dir", ErrPathNotAbsolute)
		}
		filter.Root = pathfilter.Resolve(srcDir, s.workingDir)
	}

	runs, err := s.storage.ListRuns(ctx, filter)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	status, err := s.storage.GetStatus(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get status", map[string]interface{}{
			"error": err.Error(),
		})
	}

	runList := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		runList = append(runList, formatRun(run))
	}

	statistics := map[string]interface{}{
		"runs_count":       status.RunsCount,
		"failed_count":     status.FailedCount,
		"entries_read":     status.EntriesRead,
		"entries_kept":     status.EntriesKept,
		"history_size_mb":  fmt.Sprintf("%.2f", status.DatabaseSize),
		"database_healthy": status.Health.DatabaseAccessible,
	}
	if !status.LastRunAt.IsZero() {
		statistics["last_run_at"] = status.LastRunAt.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"runs":       runList,
		"statistics": statistics,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// getRun answers get_history for a single run_id
func (s *Server) getRun(ctx context.Context, runID string) (*mcp.CallToolResult, error) {
	run, err := s.storage.GetRun(ctx, runID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, newMCPError(ErrorCodeInvalidParams, "run not found", map[string]interface{}{
			"param": "run_id",
			"value": runID,
		})
	}
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to get run", map[string]interface{}{
			"error": err.Error(),
		})
	}

	response := map[string]interface{}{
		"run": formatRun(run),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// recordRuns stores runs in the history. History is informational, so a
// failure is logged rather than failing the tool call.
func (s *Server) recordRuns(ctx context.Context, runs ...*storage.Run) {
	var err error
	switch len(runs) {
	case 0:
		return
	case 1:
		err = s.storage.RecordRun(ctx, runs[0])
	default:
		err = s.storage.RecordRuns(ctx, runs)
	}
	if err != nil {
		log.Printf("Failed to record filter history: %v", err)
	}
}

// parseJob extracts and validates infile/outfile
func parseJob(args map[string]interface{}) (pathfilter.Job, error) {
	infile, err := requireAbsolute(args, "infile")
	if err != nil {
		return pathfilter.Job{}, err
	}
	if err := validateInputFile(infile); err != nil {
		return pathfilter.Job{}, invalidPathError("infile", err)
	}

	outfile, err := requireAbsolute(args, "outfile")
	if err != nil {
		return pathfilter.Job{}, err
	}
	if err := validateOutputFile(outfile); err != nil {
		return pathfilter.Job{}, invalidPathError("outfile", err)
	}

	return pathfilter.Job{Infile: infile, Outfile: outfile}, nil
}

// requireAbsolute extracts a required absolute path parameter
func requireAbsolute(args map[string]interface{}, param string) (string, error) {
	value, ok := args[param].(string)
	if !ok || value == "" {
		return "", newMCPError(ErrorCodeInvalidParams, param+" parameter is required", map[string]interface{}{
			"param":  param,
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(value) {
		return "", invalidPathError(param, ErrPathNotAbsolute)
	}
	return value, nil
}

func invalidPathError(param string, err error) error {
	return newMCPError(ErrorCodeInvalidParams, "invalid path", map[string]interface{}{
		"param":  param,
		"reason": err.Error(),
	})
}

// filterError maps a run failure onto an MCP error
func filterError(err error) error {
	code := ErrorCodeFilterFailed
	if errors.Is(err, compdb.ErrInvalidDatabase) ||
		errors.Is(err, compdb.ErrNotObject) ||
		errors.Is(err, compdb.ErrMissingFile) ||
		errors.Is(err, compdb.ErrInvalidFile) {
		code = ErrorCodeInvalidInput
	}
	return newMCPError(code, "filter failed", map[string]interface{}{
		"error": err.Error(),
	})
}

func errRunInProgress() error {
	return newMCPError(ErrorCodeRunInProgress, "another filter run is in progress", nil)
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// validateInputFile checks that path names a readable regular file
func validateInputFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if info.IsDir() {
		return ErrIsDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()
	return nil
}

// validateOutputFile checks that path can be created or replaced
func validateOutputFile(path string) error {
	info, err := os.Stat(filepath.Dir(path))
	if os.IsNotExist(err) {
		return ErrParentNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}
	if !info.IsDir() {
		return ErrParentNotFound
	}

	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return ErrIsDirectory
	}
	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrIsDirectory     = errors.New("path is a directory")
	ErrParentNotFound  = errors.New("parent directory does not exist")
)

// formatRun converts a stored run into its tool response form
func formatRun(run *storage.Run) map[string]interface{} {
	entry := map[string]interface{}{
		"run_id":        run.ID,
		"src_dir":       run.Root,
		"infile":        run.Infile,
		"outfile":       run.Outfile,
		"total_entries": run.TotalEntries,
		"kept_entries":  run.KeptEntries,
		"duration_ms":   run.Duration.Milliseconds(),
		"created_at":    run.CreatedAt.Format(time.RFC3339),
	}
	if run.BatchID != "" {
		entry["batch_id"] = run.BatchID
	}
	if run.Error != nil {
		entry["error"] = *run.Error
	}
	return entry
}
