package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"bookcore/internal/api/dto"
	"bookcore/internal/core"
	"bookcore/internal/middleware"
)

const defaultDepth = 10

type HTTPServer struct {
	engine *core.Engine
	router *gin.Engine
	log    *zap.Logger
}

func NewHTTPServer(engine *core.Engine, log *zap.Logger, registry *prometheus.Registry, rateLimit time.Duration) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(log))
	if rateLimit > 0 {
		router.Use(middleware.NewRateLimiter(rateLimit).Middleware())
	}

	s := &HTTPServer{engine: engine, router: router, log: log}

	router.POST("/orders", s.addOrder)
	router.POST("/orders/cancel", s.cancelOrder)
	router.POST("/orders/amend", s.amendOrder)
	router.GET("/orders/:id", s.getOrder)
	router.GET("/orderbook", s.depth)
	router.GET("/orderbook/best", s.bestPrices)
	router.GET("/stats", s.stats)
	router.POST("/snapshots", s.saveSnapshot)
	router.GET("/snapshots/:id", s.loadSnapshot)
	router.GET("/healthz", s.health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return s
}

func (s *HTTPServer) Router() *gin.Engine { return s.router }

func (s *HTTPServer) Run(addr string) error {
	s.log.Info("http server listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

func (s *HTTPServer) addOrder(c *gin.Context) {
	var req dto.AddOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	order, err := req.ToDomain()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if err := s.engine.SubmitOrder(c.Request.Context(), order); err != nil {
		switch {
		case errors.Is(err, core.ErrDuplicateID):
			c.JSON(http.StatusConflict, dto.ErrorResponse{Error: err.Error()})
		case errors.Is(err, core.ErrInvalidOrder):
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, dto.OrderFromDomain(order))
}

func (s *HTTPServer) cancelOrder(c *gin.Context) {
	var req dto.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ok, err := s.engine.CancelOrder(c.Request.Context(), req.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true, "id": req.ID})
}

func (s *HTTPServer) amendOrder(c *gin.Context) {
	var req dto.AmendOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	price, qty, err := req.Values()
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
		return
	}
	ok, err := s.engine.AmendOrder(c.Request.Context(), req.ID, price, qty)
	if err != nil {
		if errors.Is(err, core.ErrInvalidOrder) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
		return
	}
	order, _ := s.engine.GetOrder(req.ID)
	c.JSON(http.StatusOK, dto.OrderFromDomain(&order))
}

func (s *HTTPServer) getOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid order id"})
		return
	}
	order, ok := s.engine.GetOrder(id)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "order not found"})
		return
	}
	c.JSON(http.StatusOK, dto.OrderFromDomain(&order))
}

func (s *HTTPServer) depth(c *gin.Context) {
	depth := defaultDepth
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "depth must be a non-negative integer"})
			return
		}
		depth = parsed
	}
	snap, err := s.engine.Depth(c.Request.Context(), depth)
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto.DepthFromDomain(snap))
}

func (s *HTTPServer) bestPrices(c *gin.Context) {
	c.JSON(http.StatusOK, dto.BestPricesFromDomain(s.engine.BestPrices()))
}

func (s *HTTPServer) stats(c *gin.Context) {
	st := s.engine.Stats()
	c.JSON(http.StatusOK, dto.StatsResponse{
		OrdersAdded:     st.OrdersAdded,
		OrdersCancelled: st.OrdersCancelled,
		OrdersAmended:   st.OrdersAmended,
		RestingOrders:   s.engine.Len(),
	})
}

func (s *HTTPServer) saveSnapshot(c *gin.Context) {
	id, err := s.engine.SaveDepthSnapshot(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, dto.SnapshotResponse{SnapshotID: id})
}

func (s *HTTPServer) loadSnapshot(c *gin.Context) {
	snap, err := s.engine.LoadDepthSnapshot(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: "snapshot not found"})
		return
	}
	c.JSON(http.StatusOK, dto.DepthFromDomain(snap))
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "symbol": s.engine.Symbol()})
}
