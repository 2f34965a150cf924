package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammiranda/repose/repository"
	"github.com/ammiranda/repose/storage"
)

// run executes one command line against a sqlite database in dir
func run(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	return runContext(context.Background(), t, dir, args...)
}

func runContext(ctx context.Context, t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	base := []string{"--env-file", filepath.Join(dir, "missing.env")}
	if dir != "" {
		base = append(base, "--driver", "sqlite", "--data-dir", dir)
	}
	cmd.SetArgs(append(args, base...))
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func mustRun(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := run(t, dir, args...)
	require.NoError(t, err, out)
	return strings.TrimSpace(out)
}

func TestCollectionTree(t *testing.T) {
	dir := t.TempDir()

	collectionID := mustRun(t, dir, "collections", "create", "Test collection")
	folderID := mustRun(t, dir, "nodes", "add-folder", "dir1", "--collection", collectionID)
	mustRun(t, dir, "nodes", "add-request", "req1", "--collection", collectionID, "--url", "http://foo.com")
	mustRun(t, dir, "nodes", "add-request", "dir1 req1", "--parent", folderID, "--url", "http://foo.com/1", "-X", "POST")

	out := mustRun(t, dir, "collections", "list")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 4, out)
	assert.True(t, strings.HasPrefix(lines[0], "Test collection  "+collectionID))
	assert.True(t, strings.HasPrefix(lines[1], "  dir1/  "+folderID))
	assert.True(t, strings.HasPrefix(lines[2], "    dir1 req1  POST http://foo.com/1  "))
	assert.True(t, strings.HasPrefix(lines[3], "  req1  GET http://foo.com  "))

	out = mustRun(t, dir, "collections", "list", "--json")
	var collections []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &collections))
	require.Len(t, collections, 1)
	assert.Equal(t, collectionID, collections[0]["id"])
	assert.Len(t, collections[0]["nodes"], 2)
}

func TestScratchNodes(t *testing.T) {
	dir := t.TempDir()

	assert.Equal(t, "", mustRun(t, dir, "nodes", "scratch"))
	assert.Equal(t, "[]", mustRun(t, dir, "nodes", "scratch", "--json"))

	folderID := mustRun(t, dir, "nodes", "add-folder", "scratch")
	mustRun(t, dir, "nodes", "add-request", "ping", "--parent", folderID, "--url", "http://localhost/ping")

	out := mustRun(t, dir, "nodes", "scratch")
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 2, out)
	assert.Equal(t, "scratch/  "+folderID, lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "  ping  GET http://localhost/ping  "))

	assert.Equal(t, "", mustRun(t, dir, "collections", "list"))
}

func TestCommandErrors(t *testing.T) {
	dir := t.TempDir()
	leafID := mustRun(t, dir, "nodes", "add-request", "leaf", "--url", "http://foo.com")
	missing := "5d3f1d6e-1f5a-4b43-9d43-0d0c6f0a9b11"

	_, err := run(t, dir, "nodes", "add-folder", "x", "--parent", missing)
	assert.ErrorIs(t, err, storage.ErrParentNotFound)

	_, err = run(t, dir, "nodes", "add-folder", "x", "--collection", missing)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)

	_, err = run(t, dir, "nodes", "add-folder", "x", "--parent", leafID)
	assert.Error(t, err)

	_, err = run(t, dir, "nodes", "add-request", "bad", "-X", "FETCH")
	assert.Error(t, err)

	_, err = run(t, dir, "nodes", "add-folder", "x", "--parent", "not-a-uuid")
	assert.Error(t, err)

	_, err = run(t, dir, "collections", "create")
	assert.Error(t, err)

	_, err = run(t, dir, "collections", "list", "--driver", "mongodb")
	assert.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "data")
	cfgFile := filepath.Join(dir, "repose.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte("storage_driver: sqlite\ndata_dir: "+data+"\n"), 0o644))

	id := mustRun(t, "", "collections", "create", "from config", "--config", cfgFile)
	assert.NotEmpty(t, id)

	_, err := os.Stat(filepath.Join(data, repository.SQLiteFileName))
	assert.NoError(t, err)

	_, err = run(t, "", "collections", "list", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvironment(t *testing.T) {
	dir := t.TempDir()

	t.Run("prefixed variables", func(t *testing.T) {
		data := filepath.Join(dir, "env")
		t.Setenv("REPOSE_STORAGE_DRIVER", "sqlite")
		t.Setenv("REPOSE_DATA_DIR", data)

		mustRun(t, "", "collections", "create", "from env")
		_, err := os.Stat(data)
		assert.NoError(t, err)
	})

	t.Run("dotenv file", func(t *testing.T) {
		data := filepath.Join(dir, "dotenv")
		envFile := filepath.Join(dir, "test.env")
		require.NoError(t, os.WriteFile(envFile, []byte("REPOSE_STORAGE_DRIVER=sqlite\nREPOSE_DATA_DIR="+data+"\n"), 0o644))
		for _, key := range []string{"REPOSE_STORAGE_DRIVER", "REPOSE_DATA_DIR"} {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}

		var out bytes.Buffer
		cmd := NewRootCommand()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"collections", "create", "from dotenv", "--env-file", envFile})
		require.NoError(t, cmd.Execute(), out.String())

		_, err := os.Stat(data)
		assert.NoError(t, err)
	})
}

func TestServeStopsOnCancel(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		_, err := runContext(ctx, t, dir, "serve", "--addr", "127.0.0.1:0")
		done <- err
	}()

	time.Sleep(200 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("serve did not stop")
	}
}

func TestBindMissingFlagPanics(t *testing.T) {
	a := &app{v: viper.New()}
	assert.Panics(t, func() { a.bind("HTTP_ADDR", nil) })

	root := NewRootCommand()
	a.bind("LOG_LEVEL", root.PersistentFlags().Lookup("log-level"))
	assert.Equal(t, "warn", a.v.GetString("LOG_LEVEL"))
}
