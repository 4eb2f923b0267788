package transport

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartHTTPServer_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() {
		done <- StartHTTPServer(ctx, "127.0.0.1:0", http.NotFoundHandler(), time.Second)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("servidor não encerrou")
	}
}

func TestStartHTTPServer_ListenError(t *testing.T) {
	err := StartHTTPServer(context.Background(), "invalid-addr", http.NotFoundHandler(), time.Second)
	require.Error(t, err)
}
