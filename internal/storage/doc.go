// Package storage provides SQLite-based persistence for filter run history.
//
// Every filter run, whether started on its own or as part of a batch, is
// recorded with its root directory, input and output paths, entry counts,
// duration and any error. The history is informational only; nothing reads
// it back to skip or cache work.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migration versions
//   - filter_runs: one row per filter run
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "history.db"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	run := &storage.Run{
//	    Root:         "/proj/src",
//	    Infile:       "/proj/build/compile_commands.json",
//	    Outfile:      "/proj/compile_commands.json",
//	    TotalEntries: 120,
//	    KeptEntries:  87,
//	}
//	err = store.RecordRun(ctx, run) // run.ID is assigned
//
//	runs, err := store.ListRuns(ctx, &storage.RunFilter{Root: "/proj/src", Limit: 10})
//
// # Batches
//
// RecordRuns stores all runs of a batch in one transaction, tagging them
// with a shared batch ID:
//
//	err := store.RecordRuns(ctx, runs)
//
// # Drivers
//
// The default build uses modernc.org/sqlite (pure Go). Building with the
// sqlite_cgo tag switches to github.com/mattn/go-sqlite3:
//
//	CGO_ENABLED=1 go build -tags sqlite_cgo ./...
package storage
