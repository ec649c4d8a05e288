// Package web serves the proxy viewer as a local page. The frame is a real
// iframe here; everything else goes through the shared viewer.Controller.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/studiowebux/proxyview/internal/config"
	"github.com/studiowebux/proxyview/internal/logging"
	"github.com/studiowebux/proxyview/internal/proxy"
	"github.com/studiowebux/proxyview/internal/viewer"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const shutdownTimeout = 5 * time.Second

// Server is the web surface
type Server struct {
	ctrl       *viewer.Controller
	logger     *logging.Logger
	router     *gin.Engine
	addr       string
	httpServer *http.Server
	listener   net.Listener
	proxy      *proxy.Proxy
}

// NewServer builds the router for ctrl. addr is used by Start.
func NewServer(ctrl *viewer.Controller, addr string, logger *logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	tmpl, err := template.New("").ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		ctrl:   ctrl,
		logger: logger.Named("web"),
		addr:   addr,
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(s.logger))
	router.SetHTMLTemplate(tmpl)

	router.GET("/", s.handleIndex)
	router.POST("/submit", s.handleSubmit)
	router.POST("/bookmark", s.handleBookmark)
	router.POST("/reset", s.handleReset)
	router.POST("/select", s.handleSelect)

	api := router.Group("/api")
	api.GET("/state", s.handleState)
	api.POST("/submit", s.handleAPISubmit)
	api.POST("/bookmarks", s.handleAPIBookmark)
	api.POST("/reset", s.handleAPIReset)

	s.router = router
	return s, nil
}

// MountProxy adds the self-hosted proxy route and its transaction log. It
// must be called before Start.
func (s *Server) MountProxy(p *proxy.Proxy) {
	s.proxy = p
	s.router.Any(p.Route(), p.Handle)
	s.router.GET("/api/proxy/log", p.HandleLogs)
	s.router.DELETE("/api/proxy/log", p.HandleClearLogs)
}

// LocalProxyTemplate is the proxy template pointing at this server's own
// proxy route, or "" when no proxy is mounted. An unspecified listen host
// is reached through loopback.
func (s *Server) LocalProxyTemplate() string {
	if s.proxy == nil {
		return ""
	}

	addr := s.Addr()
	if host, port, err := net.SplitHostPort(addr); err == nil {
		if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
			addr = net.JoinHostPort("127.0.0.1", port)
		}
	}
	return "http://" + addr + s.proxy.Route() + "?url=" + config.URLPlaceholder
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the listener and serves in the background. Bind errors are
// returned; later serve errors are logged.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("web server stopped", zap.Error(err))
		}
	}()

	s.logger.Info("web server listening", zap.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started, else the configured one
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

// Stop shuts the server down, waiting at most until ctx is done
func (s *Server) Stop(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, shutdownTimeout)
		defer cancel()
	}

	s.logger.Info("web server stopping")
	return s.httpServer.Shutdown(ctx)
}

// requestLogger logs one line per request
func requestLogger(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		logger.Debug("http request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Int("size", c.Writer.Size()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}
