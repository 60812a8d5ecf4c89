// Package server exposes a read-only HTTP API over the monitor's most
// recent results.
package server

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AmirGHaghighi/kuma-proxy-checker/monitor"
)

const defaultResultLimit = 50

// Source is the part of the monitor the API reads from.
type Source interface {
	ListTargets() []monitor.ProxyTarget
	GetResults(id string, limit int) []monitor.Result
	Latest(id string) (monitor.Result, bool)
}

type TargetResponse struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Proxy  string          `json:"proxy"`
	Latest *ResultResponse `json:"latest,omitempty"`
}

type ResultResponse struct {
	CheckedAt time.Time `json:"checked_at"`
	Status    string    `json:"status"`
	LatencyMS int64     `json:"latency_ms"`
	Attempts  int       `json:"attempts"`
	Message   string    `json:"message"`
}

type TargetResultsResponse struct {
	Target  TargetResponse   `json:"target"`
	Results []ResultResponse `json:"results"`
}

// Server wraps the http.Server to provide graceful shutdown.
type Server struct {
	httpServer *http.Server
	logger     *zap.Logger
}

// New creates a status server listening on addr.
func New(addr string, src Source, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(src),
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Start runs the HTTP server in a new goroutine.
func (s *Server) Start() {
	s.logger.Info("Starting status server", zap.String("addr", s.httpServer.Addr))
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Status server failed", zap.Error(err))
		}
	}()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down status server")
	return s.httpServer.Shutdown(ctx)
}

// NewRouter registers the API routes.
func NewRouter(src Source) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/targets", func(c *gin.Context) {
		targets := src.ListTargets()
		resp := make([]TargetResponse, 0, len(targets))
		for _, t := range targets {
			tr := toTarget(t)
			if res, ok := src.Latest(t.ID); ok {
				rr := toResult(res)
				tr.Latest = &rr
			}
			resp = append(resp, tr)
		}
		c.JSON(http.StatusOK, resp)
	})

	r.GET("/targets/:id/results", func(c *gin.Context) {
		limit := defaultResultLimit
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
				return
			}
			limit = n
		}

		id := c.Param("id")
		results := src.GetResults(id, limit)
		if len(results) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "No results found for target"})
			return
		}

		resp := TargetResultsResponse{
			Target:  toTarget(results[len(results)-1].Target),
			Results: make([]ResultResponse, 0, len(results)),
		}
		for _, res := range results {
			resp.Results = append(resp.Results, toResult(res))
		}
		c.JSON(http.StatusOK, resp)
	})

	return r
}

func toTarget(t monitor.ProxyTarget) TargetResponse {
	name := t.DisplayID()
	if name == t.Proxy {
		name = redact(name)
	}
	return TargetResponse{
		ID:    t.ID,
		Name:  name,
		Proxy: redact(t.Proxy),
	}
}

func toResult(res monitor.Result) ResultResponse {
	return ResultResponse{
		CheckedAt: res.CheckedAt,
		Status:    res.Status.String(),
		LatencyMS: res.LatencyMS,
		Attempts:  res.Attempts,
		Message:   res.Report().Message,
	}
}

// redact hides proxy credentials.
func redact(proxy string) string {
	u, err := url.Parse(proxy)
	if err != nil {
		return proxy
	}
	return u.Redacted()
}
