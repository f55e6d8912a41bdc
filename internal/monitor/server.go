package monitor

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Handler serves the tracker's state.
type Handler struct {
	Tracker *Tracker
}

// NewHandler creates a Handler.
func NewHandler(t *Tracker) *Handler {
	return &Handler{Tracker: t}
}

// GetProgress handles GET /progress
func (h *Handler) GetProgress(c *gin.Context) {
	c.JSON(http.StatusOK, h.Tracker.Snapshot())
}

// Healthz handles GET /healthz
func Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// NewRouter builds the read-only routes.
func NewRouter(t *Tracker) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	h := NewHandler(t)
	router.GET("/progress", h.GetProgress)
	router.GET("/healthz", Healthz)
	return router
}

// Server runs the router on its own goroutine.
type Server struct {
	srv  *http.Server
	addr net.Addr
}

// Start listens on addr and serves in the background.
func Start(addr string, t *Tracker) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		srv: &http.Server{
			Handler:           NewRouter(t),
			ReadHeaderTimeout: 5 * time.Second,
		},
		addr: ln.Addr(),
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("monitor: server stopped: %v", err)
		}
	}()
	return s, nil
}

// Addr returns the bound address.
func (s *Server) Addr() string {
	return s.addr.String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
