// Package pathfilter narrows a compilation database to the entries whose
// source file lies under a root directory.
//
// # Matching
//
// Both the root and each entry's "file" attribute are resolved to absolute
// paths before comparison. Absolute paths are cleaned lexically; relative
// paths are joined to the caller-supplied working directory first. Symlinks
// are never followed.
//
// An entry is kept when its resolved path starts with the resolved root as a
// plain string. The test is not aware of path segments:
//
//	root:  /proj/src
//	keep:  /proj/src/a.c
//	keep:  /proj/srcextra/c.c   (shares the string prefix)
//	drop:  /proj/other/b.c
//
// Existing callers depend on this, so it must not be tightened to a
// segment-aware comparison.
//
// # Basic Usage
//
//	cwd, _ := os.Getwd()
//	kept := pathfilter.Apply(db, "src", cwd)
//
// For file-to-file runs use Run, and RunBatch to filter several databases
// against the same root concurrently:
//
//	results, err := pathfilter.RunBatch(ctx, "/proj/src", cwd, []pathfilter.Job{
//	    {Infile: "build/debug/compile_commands.json", Outfile: "debug.json"},
//	    {Infile: "build/release/compile_commands.json", Outfile: "release.json"},
//	}, &pathfilter.Config{Workers: 2})
//
// Apply and Filter.Apply never mutate the input and never fail; all I/O and
// every error live in Run and RunBatch.
package pathfilter
