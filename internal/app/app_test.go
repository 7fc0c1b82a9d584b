package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/notealign/internal/align"
	"github.com/chrissnell/notealign/pkg/config"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestOpenStore(t *testing.T) {
	logger := zap.NewNop().Sugar()

	_, _, err := OpenStore(context.Background(), config.StorageData{}, logger)
	assert.Error(t, err)

	store, backend, err := OpenStore(context.Background(), config.StorageData{
		SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "runs.db")},
	}, logger)
	require.NoError(t, err)
	defer store.Close()
	assert.Equal(t, "sqlite", backend)
}

func TestRunServesUntilCancelled(t *testing.T) {
	port := freePort(t)
	cfg := &config.ConfigData{
		Storage: config.StorageData{SQLite: &config.SQLiteData{Path: filepath.Join(t.TempDir(), "runs.db")}},
		Server:  config.ServerData{ListenAddr: "127.0.0.1", Port: port},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New(cfg, align.DefaultParams(), zap.NewNop().Sugar()).Run(ctx) }()

	url := fmt.Sprintf("http://127.0.0.1:%d/healthz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(15 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestRunWithoutStore(t *testing.T) {
	err := New(&config.ConfigData{}, align.DefaultParams(), zap.NewNop().Sugar()).Run(context.Background())
	assert.Error(t, err)
}
