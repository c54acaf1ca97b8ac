// Package api serves the barcode, label and scan endpoints over HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/danmuck/nexus/internal/labels"
	"github.com/danmuck/nexus/internal/node"
	"github.com/danmuck/nexus/internal/observability"
	"github.com/danmuck/nexus/internal/scan"
	"github.com/danmuck/nexus/internal/templates"
	"github.com/danmuck/nexus/internal/travelers"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	Version    = "0.1.0"
	UserHeader = observability.OperatorHeader
)

type Server struct {
	ID       string    `json:"id"`
	Addr     string    `json:"addr"`
	Appeared time.Time `json:"appeared"`

	store     travelers.Store
	scans     *scan.Service
	labels    *labels.Service
	templates *templates.Table
	router    *gin.Engine
}

var _ node.Node = (*Server)(nil)

type Options struct {
	ID          string
	Addr        string
	CorsOrigins []string
	Store       travelers.Store
	Templates   *templates.Table
	Scans       *scan.Service
	Labels      *labels.Service
}

// Appear builds the server and its middleware chain. Routes are added by
// RegisterRoutes.
func Appear(opts Options) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(opts.ID))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(opts.CorsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type", UserHeader},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	scans := opts.Scans
	if scans == nil {
		scans = scan.NewService(opts.Store)
	}
	lbls := opts.Labels
	if lbls == nil {
		lbls = labels.NewService(opts.Store)
	}
	table := opts.Templates
	if table == nil {
		var err error
		if table, err = templates.Default(); err != nil {
			log.Error().Err(err).Msg("step templates unavailable")
		}
	}
	return &Server{
		ID:        opts.ID,
		Addr:      opts.Addr,
		Appeared:  time.Now(),
		store:     opts.Store,
		scans:     scans,
		labels:    lbls,
		templates: table,
		router:    r,
	}
}

func (s *Server) NodeID() string {
	return s.ID
}

func (s *Server) Kind() string {
	return "nexusd"
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": Version,
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		ready := s.store != nil && s.templates != nil
		status := http.StatusOK
		if !ready {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"ready":   ready,
			"uptime":  time.Since(s.Appeared).String(),
			"service": s.ID,
			"version": Version,
		})
	})

	s.router.GET("/templates", s.templateTypes)
	s.router.GET("/templates/:type", s.templateSteps)

	b := s.router.Group("/barcodes")
	b.GET("/traveler/:id", s.travelerCodes)
	b.GET("/traveler/:id/label", s.travelerLabel)
	b.GET("/traveler/:id/steps-qr", s.travelerStepQRs)
	b.GET("/traveler/:id/time-summary", s.timeSummary)
	b.GET("/step/:id/qr", s.stepQR)
	b.GET("/step/:id/scan-history", s.scanHistory)
	b.POST("/scan/barcode", s.scanBarcode)
	b.POST("/scan/qr", s.scanQR)
	b.POST("/scan/step-qr", s.scanStepQR)
	b.POST("/scan/step", s.scanStep)
	b.GET("/search", s.search)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:3000"}
	}
	return origins
}
