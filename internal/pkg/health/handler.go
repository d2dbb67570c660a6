package health

import (
	"context"
	"net/http"
	"os"
	"runtime"
	"sort"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/piresc/dogwalker/internal/pkg/logger"
)

// BuildInfo contains information about the build
type BuildInfo struct {
	Version     string    `json:"version"`
	GitCommit   string    `json:"git_commit"`
	BuildTime   string    `json:"build_time"`
	ServiceName string    `json:"service_name"`
	GoVersion   string    `json:"go_version"`
	Hostname    string    `json:"hostname"`
	ServerTime  time.Time `json:"server_time"`
}

// DefaultBuildInfo contains default build information
var DefaultBuildInfo = BuildInfo{
	Version:   "development",
	GitCommit: "unknown",
	BuildTime: "unknown",
	GoVersion: runtime.Version(),
}

// CheckFunc reports whether a dependency is reachable
type CheckFunc func(ctx context.Context) error

// Handler serves liveness, readiness and status endpoints
type Handler struct {
	serviceName string
	startedAt   time.Time
	checks      map[string]CheckFunc
	stats       map[string]func() int
	timeout     time.Duration
}

// NewHandler creates a health handler. startedAt anchors the reported uptime.
func NewHandler(serviceName string, startedAt time.Time) *Handler {
	return &Handler{
		serviceName: serviceName,
		startedAt:   startedAt,
		checks:      make(map[string]CheckFunc),
		stats:       make(map[string]func() int),
		timeout:     2 * time.Second,
	}
}

// AddCheck registers a dependency probed by /ready
func (h *Handler) AddCheck(name string, check CheckFunc) {
	h.checks[name] = check
}

// AddStat registers a gauge reported by /api/health
func (h *Handler) AddStat(name string, stat func() int) {
	h.stats[name] = stat
}

// Ping returns build information
func (h *Handler) Ping(c echo.Context) error {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	buildInfo := DefaultBuildInfo
	buildInfo.ServiceName = h.serviceName
	if version := os.Getenv("VERSION"); version != "" {
		buildInfo.Version = version
	}
	if gitCommit := os.Getenv("GIT_COMMIT"); gitCommit != "" {
		buildInfo.GitCommit = gitCommit
	}
	if buildTime := os.Getenv("BUILD_TIME"); buildTime != "" {
		buildInfo.BuildTime = buildTime
	}
	buildInfo.Hostname = hostname
	buildInfo.ServerTime = time.Now()

	return c.JSON(http.StatusOK, buildInfo)
}

// Status reports uptime and registered gauges
func (h *Handler) Status(c echo.Context) error {
	body := map[string]interface{}{
		"status":    "OK",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.startedAt).Seconds(),
	}
	for name, stat := range h.stats {
		body[name] = stat()
	}
	return c.JSON(http.StatusOK, body)
}

// Ready probes every registered dependency
func (h *Handler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.timeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			logger.Warn("Readiness check failed", logger.String("dependency", name), logger.Err(err))
			results[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	return c.JSON(status, map[string]interface{}{
		"status":       http.StatusText(status),
		"dependencies": results,
	})
}

// RegisterHealthEndpoints registers the health check endpoints
func (h *Handler) RegisterHealthEndpoints(e *echo.Echo) {
	e.GET("/ping", h.Ping)

	live := func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	}
	e.GET("/health", live)
	e.GET("/healthz", live)
	e.GET("/ready", h.Ready)
	e.GET("/api/health", h.Status)
}
