package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Checker reports whether a dependency is reachable.
type Checker func(ctx context.Context) error

// MongoChecker pings the database with a server round-trip.
func MongoChecker(db *mongo.Database) Checker {
	return func(ctx context.Context) error {
		return db.RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
	}
}

// RedisChecker pings the redis server.
func RedisChecker(rdb redis.UniversalClient) Checker {
	return func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}
}

// HealthHandler serves the liveness and readiness probes.
type HealthHandler struct {
	checks  map[string]Checker
	timeout time.Duration
}

func NewHealthHandler(checks map[string]Checker) *HealthHandler {
	return &HealthHandler{checks: checks, timeout: 3 * time.Second}
}

type dependencyStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type readinessResponse struct {
	Status       string             `json:"status"`
	Dependencies []dependencyStatus `json:"dependencies"`
}

// Liveness godoc
//
// @Summary  Liveness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  messageResponse
// @Router   /health [get]
func (h *HealthHandler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, messageResponse{Message: "ok"})
}

// Readiness godoc
//
// @Summary  Readiness probe
// @Tags     health
// @Produce  json
// @Success  200  {object}  readinessResponse
// @Failure  503  {object}  readinessResponse
// @Router   /health/ready [get]
func (h *HealthHandler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	resp := readinessResponse{Status: "ok", Dependencies: make([]dependencyStatus, 0, len(names))}
	code := http.StatusOK
	for _, name := range names {
		st := dependencyStatus{Name: name, Status: "ok"}
		if err := h.checks[name](ctx); err != nil {
			st.Status = "unhealthy"
			st.Error = err.Error()
			resp.Status = "degraded"
			code = http.StatusServiceUnavailable
		}
		resp.Dependencies = append(resp.Dependencies, st)
	}

	return c.JSON(code, resp)
}
