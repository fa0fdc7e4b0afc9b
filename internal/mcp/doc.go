// Package mcp exposes compilation database filtering as Model Context
// Protocol tools over stdio.
//
// # Tools
//
// filter_compile_commands filters one database and writes the result:
//
//	{
//	  "src_dir": "/proj/src",
//	  "infile":  "/proj/build/compile_commands.json",
//	  "outfile": "/proj/compile_commands.json"
//	}
//
// filter_compile_commands_batch runs several such jobs against one src_dir
// concurrently. A failing job is reported in its own entry and does not
// fail the call; two jobs naming the same outfile do.
//
// preview_filter reports kept and dropped counts plus a sample of kept file
// paths without writing anything.
//
// get_history lists recent runs, newest first, with aggregate statistics.
//
// All paths passed to tools must be absolute. Relative "file" values inside a
// database are resolved against the configured working directory
// (COMPDB_WORKING_DIR, defaulting to the server's cwd).
//
// # Configuration
//
//	COMPDB_HISTORY_PATH  directory for history.db (default ~/.compdb-filter)
//	COMPDB_WORKERS       default batch concurrency (default NumCPU)
//	COMPDB_WORKING_DIR   base for relative entry paths
//
// Values may also come from a .env file; the process environment wins.
//
// # Errors
//
// Handlers return *MCPError with JSON-RPC style codes:
//
//	-32602  invalid parameters (missing, relative or unusable paths)
//	-32603  internal error (history database, cancelled batch)
//	-32001  input is not a valid compilation database
//	-32002  reading the input or writing the output failed
//	-32003  another filter call is already writing output
package mcp
