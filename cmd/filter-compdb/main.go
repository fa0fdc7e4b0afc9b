// Command filter-compdb keeps the compile_commands.json entries whose source
// file lies under a directory.
//
//	filter-compdb <src_dir> <infile> <outfile>
//
// Matching is a plain string-prefix test on absolute paths, so a src_dir of
// /proj/src also keeps /proj/srcextra/x.c.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/dshills/compdb-filter/internal/pathfilter"
)

// Exit codes
const (
	exitOK    = 0
	exitUsage = 1
	exitError = 2
)

func main() {
	cwd, err := os.Getwd()
	if err != nil {
		log.SetOutput(os.Stderr)
		log.Fatalf("Failed to get working directory: %v", err)
	}

	os.Exit(run(os.Args, cwd, os.Stdout, os.Stderr))
}

// run executes one filter invocation and returns the process exit code
func run(args []string, cwd string, stdout, stderr io.Writer) int {
	if len(args) != 4 {
		program := "filter-compdb"
		if len(args) > 0 {
			program = args[0]
		}
		fmt.Fprintf(stdout, "Usage: %s <src_dir> <infile> <outfile>\n", program)
		return exitUsage
	}

	logger := log.New(stderr, "", 0)

	job := pathfilter.Job{Infile: args[2], Outfile: args[3]}
	if _, err := pathfilter.Run(args[1], cwd, job); err != nil {
		logger.Printf("Error: %v", err)
		return exitError
	}

	return exitOK
}
