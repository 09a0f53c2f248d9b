package main

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testdata = "../../netfile/testdata/"

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check", testdata+"adder.hcl", testdata+"counter.hcl")
	require.NoError(t, err)
	assert.Contains(t, out, "adder.hcl: 3 chips, 2 simulations")
	assert.Contains(t, out, "counter.hcl: 1 chips, 1 simulations")

	_, err = execute(t, "check", testdata+"nope.hcl")
	require.Error(t, err)
}

func TestRun(t *testing.T) {
	out, err := execute(t, "run", "--sim", "half_adder", "--trace-nets", testdata+"adder.hcl")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS half_adder (3 steps, 0 ticks)")
	assert.Contains(t, out, "half_adder: tick ")
	assert.NotContains(t, out, "add2")

	_, err = execute(t, "run", "--sim", "nope", testdata+"adder.hcl")
	require.Error(t, err)
}

func TestTest(t *testing.T) {
	out, err := execute(t, "test", testdata+"adder.hcl", testdata+"counter.hcl")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS half_adder")
	assert.Contains(t, out, "PASS add2")
	assert.Contains(t, out, "PASS count (4 steps, 12 ticks)")

	out, err = execute(t, "test", testdata+"errors.hcl")
	require.Error(t, err)
	assert.Contains(t, out, "ERROR "+testdata+"errors.hcl: oscillate")
	assert.Contains(t, out, "FAIL mismatch")
	assert.Contains(t, out, "step 0: out: expected 0, got 1")
}

func TestConfigFlags(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "cfg.yaml")
	require.NoError(t, os.WriteFile(fn, []byte("simulation:\n  iteration_limit: 20\n  parallelism: 2\n"), 0o644))

	out, err := execute(t, "--config", fn, "--log-level", "debug", "--log-format", "json", "test", testdata+"adder.hcl")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS add2")

	_, err = execute(t, "--log-level", "loud", "check", testdata+"adder.hcl")
	require.Error(t, err)

	out, err = execute(t, "--metrics-addr", "127.0.0.1:0", "--trace", "run", "--sim", "add2", testdata+"adder.hcl")
	require.NoError(t, err)
	assert.Contains(t, out, "PASS add2")
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "w.hcl")
	require.NoError(t, os.WriteFile(fn, []byte("# empty\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watch(ctx, []string{fn}, slog.New(slog.DiscardHandler), func() { calls.Add(1) })
	}()

	// wait for the watcher to be set up, then modify the file
	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		require.NoError(t, os.WriteFile(fn, []byte("# changed\n"), 0o644))
		time.Sleep(3 * debounce)
	}
	assert.NotZero(t, calls.Load())

	// other files in the directory are ignored
	n := calls.Load()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.hcl"), nil, 0o644))
	time.Sleep(3 * debounce)
	assert.Equal(t, n, calls.Load())

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not return")
	}
}
