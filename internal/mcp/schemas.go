package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names
const (
	ToolFilter        = "filter_compile_commands"
	ToolFilterBatch   = "filter_compile_commands_batch"
	ToolPreviewFilter = "preview_filter"
	ToolGetHistory    = "get_history"
)

func srcDirProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute root directory; entries whose resolved file path starts with it (as a plain string) are kept",
	}
}

// filterTool returns the tool definition for filter_compile_commands
func filterTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolFilter,
		Description: "Filter a compile_commands.json down to entries under a source directory and write the result",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"src_dir": srcDirProperty(),
				"infile": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the input compilation database",
				},
				"outfile": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to write the filtered database to (overwritten)",
				},
			},
			Required: []string{"src_dir", "infile", "outfile"},
		},
	}
}

// filterBatchTool returns the tool definition for filter_compile_commands_batch
func filterBatchTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolFilterBatch,
		Description: "Filter several compilation databases against the same source directory concurrently",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"src_dir": srcDirProperty(),
				"jobs": map[string]interface{}{
					"type":        "array",
					"description": "Databases to filter; every outfile must be distinct",
					"minItems":    1,
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"infile": map[string]interface{}{
								"type":        "string",
								"description": "Absolute path to the input compilation database",
							},
							"outfile": map[string]interface{}{
								"type":        "string",
								"description": "Absolute path to write the filtered database to",
							},
						},
						"required": []string{"infile", "outfile"},
					},
				},
				"workers": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum concurrent jobs (defaults to the server setting)",
					"minimum":     1,
					"maximum":     MaxWorkers,
				},
			},
			Required: []string{"src_dir", "jobs"},
		},
	}
}

// previewFilterTool returns the tool definition for preview_filter
func previewFilterTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolPreviewFilter,
		Description: "Report which entries of a compilation database would be kept, without writing anything",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"src_dir": srcDirProperty(),
				"infile": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the input compilation database",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of kept file paths to list (0-1000)",
					"default":     DefaultPreviewLimit,
					"minimum":     0,
					"maximum":     MaxPreviewLimit,
				},
			},
			Required: []string{"src_dir", "infile"},
		},
	}
}

// getHistoryTool returns the tool definition for get_history
func getHistoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetHistory,
		Description: "List recent filter runs and aggregate history statistics, or look up one run by run_id",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"run_id": map[string]interface{}{
					"type":        "string",
					"description": "Return only this run, as reported by a filter tool",
				},
				"src_dir": map[string]interface{}{
					"type":        "string",
					"description": "Only list runs for this absolute root directory",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-100)",
					"default":     DefaultHistoryLimit,
					"minimum":     1,
					"maximum":     MaxHistoryLimit,
				},
				"failed_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, only list runs that ended with an error",
					"default":     false,
				},
			},
		},
	}
}
