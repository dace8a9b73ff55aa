package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

func TestHealthHandler_Liveness(t *testing.T) {
	c, rec := newTestContext(http.MethodGet, "/health", "")
	if err := NewHealthHandler(nil).Liveness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := NewHealthHandler(map[string]Checker{
		"redis": RedisChecker(rdb),
		"mongodb": func(ctx context.Context) error {
			return errors.New("connection refused")
		},
	})

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h.Readiness(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}

	var resp readinessResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if resp.Status != "degraded" || len(resp.Dependencies) != 2 {
		t.Fatalf("unexpected payload: %+v", resp)
	}
	if resp.Dependencies[0].Name != "mongodb" || resp.Dependencies[0].Status != "unhealthy" {
		t.Fatalf("unexpected mongodb status: %+v", resp.Dependencies[0])
	}
	if resp.Dependencies[1].Status != "ok" {
		t.Fatalf("unexpected redis status: %+v", resp.Dependencies[1])
	}
}
