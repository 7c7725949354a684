package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestKeyByIPAndMethod(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var key string
	r := gin.New()
	r.POST("/order", func(c *gin.Context) {
		key = KeyByIPAndMethod(c)
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/order", nil)
	req.RemoteAddr = "1.2.3.4:5678"
	r.ServeHTTP(httptest.NewRecorder(), req)

	if key != "1.2.3.4|POST|/order" {
		t.Fatalf("key want 1.2.3.4|POST|/order got %s", key)
	}
}

func TestRateLimitMiddlewareWithoutClient(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, KeyByIP))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("status want 200 got %d", w.Code)
		}
		if !strings.Contains(w.Body.String(), `"ok":true`) {
			t.Fatalf("expected handler response body, got %s", w.Body.String())
		}
	}
}

func TestRateLimitRuleEnabled(t *testing.T) {
	if (RateLimitRule{WindowSeconds: 60}).Enabled() {
		t.Fatalf("rule without max requests should be disabled")
	}
	if !(RateLimitRule{WindowSeconds: 60, MaxRequests: 10}).Enabled() {
		t.Fatalf("rule with window and max should be enabled")
	}
}

type fakeCounter struct {
	hits map[string]int64
	err  error
}

func (f *fakeCounter) Hit(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	if f.err != nil {
		return 0, 0, f.err
	}
	f.hits[key]++
	return f.hits[key], window / 2, nil
}

func TestRateLimitHandlerRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	counter := &fakeCounter{hits: map[string]int64{}}
	r := gin.New()
	r.POST("/order", newRateLimitHandler(counter, RateLimitRule{Prefix: "cf:rate", WindowSeconds: 60, MaxRequests: 2}, KeyByIPAndMethod), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/order", nil)
		req.RemoteAddr = "1.2.3.4:5678"
		r.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusCreated {
			t.Fatalf("request %d want 201 got %d", i, last.Code)
		}
	}
	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("third request want 429 got %d", last.Code)
	}
	if got := last.Header().Get("Retry-After"); got != "30" {
		t.Fatalf("retry-after want 30 got %s", got)
	}
	if got := last.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("remaining want 0 got %s", got)
	}
	if !strings.Contains(last.Body.String(), "retry in 30 seconds") {
		t.Fatalf("body should carry wait time, got %s", last.Body.String())
	}
	if counter.hits["cf:rate:1.2.3.4|POST|/order"] != 3 {
		t.Fatalf("key should carry prefix and route, got %+v", counter.hits)
	}
}

func TestRateLimitHandlerFailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/ping", newRateLimitHandler(&fakeCounter{err: errors.New("redis down")}, RateLimitRule{WindowSeconds: 60, MaxRequests: 1}, nil), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("redis failure should pass through, got %d", w.Code)
		}
	}
}
