package http

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/KeyIP-MolData/internal/interfaces/http/handlers"
)

func TestNewServer(t *testing.T) {
	s := NewServer(":9091", http.NewServeMux(), nil)
	assert.Equal(t, ":9091", s.Addr())
}

func TestServer_ServeAndStop(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	s := NewServer(ln.Addr().String(), NewRouter(RouterConfig{HealthHandler: handlers.NewHealthHandler("dev")}), nil)
	done := make(chan error, 1)
	go func() { done <- s.Serve(ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "alive")

	require.NoError(t, s.Stop(context.Background()))
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Stop")
	}
}

func TestServer_StopBeforeStart(t *testing.T) {
	s := NewServer(":0", http.NewServeMux(), nil)
	assert.NoError(t, s.Stop(context.Background()))
}

//Personal.AI order the ending
