package web

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"sketchwall-server-go/internal/hub"
	"sketchwall-server-go/internal/platform/config"
	"sketchwall-server-go/internal/platform/logging"
	"sketchwall-server-go/internal/platform/storage"
)

// DelegateStatus reports whether the shape-check delegate is reachable.
type DelegateStatus interface {
	Online() bool
}

// Server exposes the read-only operator API: health, process stats and
// the moderation audit trail.
type Server struct {
	cfg      config.WebConfig
	logger   *logging.Logger
	hub      *hub.Hub
	delegate DelegateStatus
	audit    *storage.AuditStore

	started time.Time
	httpSrv *http.Server
}

func NewServer(
	cfg config.WebConfig,
	h *hub.Hub,
	delegate DelegateStatus,
	audit *storage.AuditStore,
	logger *logging.Logger,
) *Server {
	return &Server{
		cfg:      cfg,
		logger:   logger,
		hub:      h,
		delegate: delegate,
		audit:    audit,
		started:  time.Now(),
	}
}

// Engine builds the gin engine with all routes registered.
func (s *Server) Engine() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(cors.Default())

	engine.GET("/healthz", s.handleHealth)

	api := engine.Group("/api")
	api.GET("/system", s.handleSystem)
	api.GET("/audit", s.handleAudit)
	api.GET("/audit/:drawingId", s.handleAuditForDrawing)

	return engine
}

// Start runs the HTTP server until the context is cancelled.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.cfg.IP, s.cfg.Port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.Engine(),
	}

	if ctx != nil {
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.httpSrv.Shutdown(shutdownCtx)
		}()
	}

	s.logger.InfoTag("HTTP", "operator api on http://%s", addr)

	err := s.httpSrv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	respondSuccess(c, http.StatusOK, gin.H{
		"uptime":         time.Since(s.started).String(),
		"displays":       s.hub.GroupSize(hub.GroupDisplay),
		"consoles":       s.hub.GroupSize(hub.GroupConsole),
		"delegateOnline": s.delegate.Online(),
	}, "")
}

func (s *Server) handleSystem(c *gin.Context) {
	stats := gin.H{
		"goroutines": runtime.NumGoroutine(),
		"uptime":     time.Since(s.started).String(),
	}

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		stats["cpuPercent"] = percentages[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		stats["memUsedPercent"] = vm.UsedPercent
		stats["memTotal"] = vm.Total
	}

	respondSuccess(c, http.StatusOK, stats, "")
}

func (s *Server) handleAudit(c *gin.Context) {
	if s.audit == nil {
		respondError(c, http.StatusNotFound, "audit trail disabled")
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	records, err := s.audit.Recent(limit)
	if err != nil {
		s.logger.ErrorTag("HTTP", "audit query failed: %v", err)
		respondError(c, http.StatusInternalServerError, "audit query failed")
		return
	}
	respondSuccess(c, http.StatusOK, records, "")
}

func (s *Server) handleAuditForDrawing(c *gin.Context) {
	if s.audit == nil {
		respondError(c, http.StatusNotFound, "audit trail disabled")
		return
	}

	records, err := s.audit.ForDrawing(c.Param("drawingId"))
	if err != nil {
		s.logger.ErrorTag("HTTP", "audit query failed: %v", err)
		respondError(c, http.StatusInternalServerError, "audit query failed")
		return
	}
	respondSuccess(c, http.StatusOK, records, "")
}
