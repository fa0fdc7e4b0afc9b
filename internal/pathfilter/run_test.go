package pathfilter

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/compdb-filter/internal/compdb"
)

const inputDatabase = `[
  {"directory": "/proj/build", "command": "cc -c /proj/src/a.c", "file": "/proj/src/a.c"},
  {"directory": "/proj/build", "command": "cc -c /proj/other/b.c", "file": "/proj/other/b.c"},
  {"directory": "/proj/build", "command": "cc -c /proj/srcextra/c.c", "file": "/proj/srcextra/c.c"}
]`

const expectedOutput = `[
  {
    "directory": "/proj/build",
    "command": "cc -c /proj/src/a.c",
    "file": "/proj/src/a.c"
  },
  {
    "directory": "/proj/build",
    "command": "cc -c /proj/srcextra/c.c",
    "file": "/proj/srcextra/c.c"
  }
]
`

func writeInput(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "compile_commands.json", inputDatabase)
	out := filepath.Join(dir, "filtered.json")

	result, err := Run("/proj/src", dir, Job{Infile: in, Outfile: out})
	require.NoError(t, err)

	assert.Equal(t, "/proj/src", result.Root)
	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 2, result.Kept)
	assert.Equal(t, 1, result.Dropped())
	assert.NoError(t, result.Err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, expectedOutput, string(written))
}

func TestRun_RelativeJobPaths(t *testing.T) {
	dir := t.TempDir()
	writeInput(t, dir, "compile_commands.json", `[
  {"file": "src/a.c"},
  {"file": "./src/b.c"},
  {"file": "tests/t.c"}
]`)

	result, err := Run("src", dir, Job{Infile: "compile_commands.json", Outfile: "out.json"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "src"), result.Root)
	assert.Equal(t, 2, result.Kept)

	db, err := compdb.ReadFile(filepath.Join(dir, "out.json"))
	require.NoError(t, err)
	// Entries are written as they were read, not rewritten to absolute paths
	assert.Equal(t, []string{"src/a.c", "./src/b.c"}, db.Files())
}

func TestRun_EmptyDatabase(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", "[]")
	out := filepath.Join(dir, "out.json")

	result, err := Run("/anything", dir, Job{Infile: in, Outfile: out})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Total)
	assert.Equal(t, 0, result.Kept)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(written))
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", inputDatabase)
	first := filepath.Join(dir, "first.json")
	second := filepath.Join(dir, "second.json")

	_, err := Run("/proj/src", dir, Job{Infile: in, Outfile: first})
	require.NoError(t, err)
	result, err := Run("/proj/src", dir, Job{Infile: first, Outfile: second})
	require.NoError(t, err)
	assert.Equal(t, result.Total, result.Kept)

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing input", func(t *testing.T) {
		out := filepath.Join(dir, "never.json")
		_, err := Run("/proj", dir, Job{Infile: filepath.Join(dir, "missing.json"), Outfile: out})
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.NoFileExists(t, out)
	})

	t.Run("malformed input leaves output alone", func(t *testing.T) {
		in := writeInput(t, dir, "bad.json", `[{"command": "cc"}]`)
		out := writeInput(t, dir, "existing.json", "previous")

		_, err := Run("/proj", dir, Job{Infile: in, Outfile: out})
		require.Error(t, err)
		assert.ErrorIs(t, err, compdb.ErrMissingFile)

		content, readErr := os.ReadFile(out)
		require.NoError(t, readErr)
		assert.Equal(t, "previous", string(content))
	})

	t.Run("unwritable output", func(t *testing.T) {
		in := writeInput(t, dir, "good.json", inputDatabase)
		_, err := Run("/proj", dir, Job{Infile: in, Outfile: filepath.Join(dir, "no", "such", "dir.json")})
		require.Error(t, err)
	})
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()

	var jobs []Job
	for i := 0; i < 8; i++ {
		in := writeInput(t, dir, fmt.Sprintf("in%d.json", i), inputDatabase)
		jobs = append(jobs, Job{Infile: in, Outfile: filepath.Join(dir, fmt.Sprintf("out%d.json", i))})
	}

	results, err := RunBatch(context.Background(), "/proj/src", dir, jobs, &Config{Workers: 3})
	require.NoError(t, err)
	require.Len(t, results, len(jobs))

	for i, res := range results {
		require.NotNil(t, res)
		assert.NoError(t, res.Err)
		assert.Equal(t, jobs[i], res.Job, "results keep job order")
		assert.Equal(t, 3, res.Total)
		assert.Equal(t, 2, res.Kept)

		written, err := os.ReadFile(jobs[i].Outfile)
		require.NoError(t, err)
		assert.Equal(t, expectedOutput, string(written))
	}
}

func TestRunBatch_DefaultConfig(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", inputDatabase)

	results, err := RunBatch(context.Background(), "/proj/src", dir, []Job{
		{Infile: in, Outfile: filepath.Join(dir, "out.json")},
	}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Kept)
}

func TestRunBatch_FailuresDoNotStopOthers(t *testing.T) {
	dir := t.TempDir()
	good := writeInput(t, dir, "good.json", inputDatabase)
	bad := writeInput(t, dir, "bad.json", `{"not": "an array"}`)

	jobs := []Job{
		{Infile: bad, Outfile: filepath.Join(dir, "bad-out.json")},
		{Infile: good, Outfile: filepath.Join(dir, "good-out.json")},
		{Infile: filepath.Join(dir, "missing.json"), Outfile: filepath.Join(dir, "missing-out.json")},
	}

	results, err := RunBatch(context.Background(), "/proj/src", dir, jobs, &Config{Workers: 1})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.ErrorIs(t, results[0].Err, compdb.ErrInvalidDatabase)
	assert.NoFileExists(t, jobs[0].Outfile)

	assert.NoError(t, results[1].Err)
	assert.Equal(t, 2, results[1].Kept)
	assert.FileExists(t, jobs[1].Outfile)

	assert.ErrorIs(t, results[2].Err, os.ErrNotExist)
	assert.Equal(t, "/proj/src", results[2].Root)
}

func TestRunBatch_DuplicateOutput(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", inputDatabase)

	jobs := []Job{
		{Infile: in, Outfile: "out.json"},
		{Infile: in, Outfile: filepath.Join(dir, "out.json")},
	}

	results, err := RunBatch(context.Background(), "/proj/src", dir, jobs, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateOutput)
	assert.Nil(t, results)
	assert.NoFileExists(t, filepath.Join(dir, "out.json"))
}

func TestRunBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	in := writeInput(t, dir, "in.json", inputDatabase)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	jobs := []Job{
		{Infile: in, Outfile: filepath.Join(dir, "a.json")},
		{Infile: in, Outfile: filepath.Join(dir, "b.json")},
	}

	results, err := RunBatch(ctx, "/proj/src", dir, jobs, &Config{Workers: 1})
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
		assert.NoFileExists(t, res.Job.Outfile)
	}
}

func TestRunBatch_Empty(t *testing.T) {
	results, err := RunBatch(context.Background(), "/proj", "/", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}
