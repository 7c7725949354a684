package app

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/dujiao-next/cartflow/internal/config"
)

func TestHTTPServiceServesAndShutsDown(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "0"}, handler)

	errCh := make(chan error, 1)
	go func() { errCh <- svc.Start(context.Background()) }()

	select {
	case <-svc.Ready():
	case err := <-errCh:
		t.Fatalf("start failed: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("http service not ready")
	}

	resp, err := http.Get("http://" + svc.Addr() + "/ping")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(body) != "pong" {
		t.Fatalf("body want pong got %q", string(body))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop failed: %v", err)
	}
	if err := <-errCh; err != nil {
		t.Fatalf("start should return nil after shutdown, got %v", err)
	}
}

func TestHTTPServiceStartReportsListenError(t *testing.T) {
	svc := NewHTTPService(config.ServerConfig{Host: "127.0.0.1", Port: "not-a-port"}, http.NotFoundHandler())
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("invalid port should fail to listen")
	}
}

func TestServerConfigTimeoutDefaults(t *testing.T) {
	cfg := config.ServerConfig{WriteTimeoutSeconds: 5}
	if cfg.ReadTimeout() != 15*time.Second {
		t.Fatalf("read timeout want 15s got %v", cfg.ReadTimeout())
	}
	if cfg.WriteTimeout() != 5*time.Second {
		t.Fatalf("write timeout want 5s got %v", cfg.WriteTimeout())
	}
}
