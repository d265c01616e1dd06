package remote_test

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/junioryono/bindr"
	"github.com/junioryono/bindr/remote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := remote.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8765", cfg.Addr)
	assert.Equal(t, "http://localhost:8765", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 30*time.Second, cfg.CallTimeout)
	assert.Equal(t, int64(1<<20), cfg.MaxBodyBytes)
}

func TestLoadConfig_FileAndEnvironment(t *testing.T) {
	// Restored after the test; unset so the file can provide it.
	t.Setenv("BINDR_REMOTE_CALL_TIMEOUT", "")
	require.NoError(t, os.Unsetenv("BINDR_REMOTE_CALL_TIMEOUT"))

	t.Setenv("BINDR_REMOTE_ADDR", "127.0.0.1:9000")

	file := filepath.Join(t.TempDir(), "remote.env")
	require.NoError(t, os.WriteFile(file, []byte(
		"BINDR_REMOTE_ADDR=0.0.0.0:1\nBINDR_REMOTE_CALL_TIMEOUT=5s\n",
	), 0o600))

	cfg, err := remote.LoadConfig(file)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr, "the environment wins over files")
	assert.Equal(t, 5*time.Second, cfg.CallTimeout)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("BINDR_REMOTE_READ_TIMEOUT", "soon")

	_, err := remote.LoadConfig(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestServe(t *testing.T) {
	c := bindr.New()
	bindr.For[Inventory](c).Return(&warehouse{stock: map[string]int{"fig": 7}})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	cfg := remote.Config{
		URL:             "http://" + ln.Addr().String(),
		ReadTimeout:     time.Second,
		WriteTimeout:    time.Second,
		ShutdownTimeout: time.Second,
		CallTimeout:     time.Second,
		MaxBodyBytes:    1 << 10,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- remote.Serve(ctx, ln, c, cfg) }()

	client := bindr.New().ProxyTo(remote.NewClientFromConfig(cfg).Handle)
	bindr.For[Inventory](client).AsProxy(func(s *bindr.Stub) Inventory { return remoteInventory{s: s} })

	inv := bindr.MustInject[Inventory](client)
	n, err := inv.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddress(t *testing.T) {
	err := remote.ListenAndServe(context.Background(), bindr.New(), remote.Config{Addr: "not-an-address"})
	assert.Error(t, err)
}
