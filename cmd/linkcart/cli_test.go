package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"LinkCart/internal/kv"
	"LinkCart/internal/links"
)

func run(t *testing.T, dir string, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{
		"--env-file", filepath.Join(dir, "missing.env"),
		"--store", "badger",
		"--badger-dir", filepath.Join(dir, "data"),
		"--log-level", "error",
	}, args...))

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCLI_AddListDelete(t *testing.T) {
	dir := t.TempDir()

	for _, l := range []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"} {
		out, err := run(t, dir, "", "add", l, "--price", "9.99")
		require.NoError(t, err, out)
	}

	_, err := run(t, dir, "", "add", "https://a.example/2")
	require.ErrorIs(t, err, links.ErrDuplicateRecord)

	out, err := run(t, dir, "", "delete", "1")
	require.NoError(t, err, out)

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "1 "))
	assert.Contains(t, lines[1], "https://a.example/2")
	assert.Contains(t, lines[2], "https://a.example/3")

	_, err = run(t, dir, "", "delete", "9")
	require.ErrorIs(t, err, links.ErrNotFound)
}

func TestCLI_ExpandAndExport(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "add", "https://a.example/1", "--product", "Red, large", "--count", "2")
	require.NoError(t, err)

	out, err := run(t, dir, "", "expand", "buy", "$1", "not", "$7")
	require.NoError(t, err)
	assert.Equal(t, "buy https://a.example/1 not $7\n", out)

	out, err = run(t, dir, "first $1\nsecond $1\n", "expand", "--watch")
	require.NoError(t, err)
	assert.Contains(t, out, "second https://a.example/1")

	csvPath := filepath.Join(dir, "links.csv")
	_, err = run(t, dir, "", "export", "-o", csvPath)
	require.NoError(t, err)

	b, err := os.ReadFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, "Product Name,Link,Price,Image,Count\n\"Red, large\",https://a.example/1,,,2\n", string(b))

	out, err = run(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "no links saved")
}

func TestCLI_ClearNeedsYes(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "add", "https://a.example/1")
	require.NoError(t, err)

	_, err = run(t, dir, "", "clear")
	require.Error(t, err)

	_, err = run(t, dir, "", "clear", "--yes")
	require.NoError(t, err)

	backend, err := kv.OpenBadger(filepath.Join(dir, "data"))
	require.NoError(t, err)
	defer backend.Close()
	n, err := links.NewStore(backend).Len(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestCLI_ExportFailureKeepsLinks(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, dir, "", "add", "https://a.example/1")
	require.NoError(t, err)

	_, err = run(t, dir, "", "export", "-o", filepath.Join(dir, "no-such-dir", "links.csv"))
	require.Error(t, err)

	out, err := run(t, dir, "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "https://a.example/1")
}
