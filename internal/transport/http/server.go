// Package http реализует внешний HTTP/SSE интерфейс сервиса.
package http

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vladislavdragonenkov/loms/internal/bus"
	"github.com/vladislavdragonenkov/loms/internal/domain"
	"github.com/vladislavdragonenkov/loms/internal/service/driver"
	"github.com/vladislavdragonenkov/loms/internal/service/orchestrator"
	"github.com/vladislavdragonenkov/loms/internal/service/outbox"
)

// headerIdempotencyKey — заголовок idempotency-ключа запроса.
const headerIdempotencyKey = "Idempotency-Key"

// Server связывает HTTP-обработчики с сервисами конвейера.
type Server struct {
	orders  *orchestrator.Orchestrator
	drivers *driver.Service
	drainer *outbox.Drainer
	queue   domain.OutboxQueue
	bus     *bus.Bus
	logger  *log.Entry
}

// NewServer создаёт HTTP-сервер поверх сервисов конвейера.
func NewServer(
	orders *orchestrator.Orchestrator,
	drivers *driver.Service,
	drainer *outbox.Drainer,
	queue domain.OutboxQueue,
	eventBus *bus.Bus,
	logger *log.Entry,
) *Server {
	if logger == nil {
		logger = log.WithField("component", "http-server")
	}
	return &Server{
		orders:  orders,
		drivers: drivers,
		drainer: drainer,
		queue:   queue,
		bus:     eventBus,
		logger:  logger,
	}
}

// RouterConfig задаёт параметры внешнего HTTP-роутера.
type RouterConfig struct {
	// APIKey включает проверку X-API-Key, если не пуст.
	APIKey string
	// RateLimit — запросов в секунду на клиента; <=0 отключает лимитер.
	RateLimit float64
	Logger    *log.Entry
}

// NewRouter собирает echo-роутер с middleware и маршрутами API.
func NewRouter(s *Server, cfg RouterConfig) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = log.WithField("component", "http-router")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(requestLogger(logger))

	if cfg.RateLimit > 0 {
		e.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.RateLimit)),
		))
	}

	api := e.Group("/api/v1")
	if cfg.APIKey != "" {
		api.Use(keyAuth(cfg.APIKey))
	}

	api.POST("/orders", s.CreateOrder)
	api.GET("/orders", s.ListOrders)
	api.GET("/orders/:id", s.GetOrder)
	api.POST("/packages/:id/deliver", s.DeliverPackage)
	api.POST("/packages/:id/fail", s.FailPackage)
	api.GET("/events", s.Events)
	api.POST("/outbox/drain", s.DrainOutbox)
	api.GET("/outbox/stats", s.OutboxStats)

	return e
}

// requestLogger пишет access-лог через logrus.
func requestLogger(logger *log.Entry) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":  v.Method,
				"uri":     v.URI,
				"status":  v.Status,
				"latency": v.Latency.String(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request completed")
			return nil
		},
	})
}

// keyAuth проверяет заголовок X-API-Key постоянным по времени сравнением.
func keyAuth(apiKey string) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:X-API-Key",
		Validator: func(key string, _ echo.Context) (bool, error) {
			return subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) == 1, nil
		},
	})
}

// CreateOrder обрабатывает POST /api/v1/orders.
// Ответ успешен и при провале интеграционных шагов: их повторит outbox.
func (s *Server) CreateOrder(c echo.Context) error {
	var req createOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	key := c.Request().Header.Get(headerIdempotencyKey)

	result, err := s.orders.CreateOrder(c.Request().Context(), req.toServiceRequest(key))
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, createOrderResponse{
		OrderID: result.OrderID,
		Status:  result.Status,
		RouteID: result.RouteID,
	})
}

// ListOrders обрабатывает GET /api/v1/orders с фильтрами в query string.
func (s *Server) ListOrders(c echo.Context) error {
	filter := domain.OrderFilter{
		ClientID: c.QueryParam("client_id"),
		DriverID: c.QueryParam("driver_id"),
		Status:   domain.OrderStatus(c.QueryParam("status")),
	}

	orders, err := s.orders.ListOrders(c.Request().Context(), filter)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, listOrdersResponse{Orders: orders})
}

// GetOrder обрабатывает GET /api/v1/orders/:id.
func (s *Server) GetOrder(c echo.Context) error {
	order, err := s.orders.GetOrder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// DeliverPackage обрабатывает POST /api/v1/packages/:id/deliver.
func (s *Server) DeliverPackage(c echo.Context) error {
	var req deliverPackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	order, err := s.drivers.Deliver(c.Request().Context(), c.Param("id"), domain.DeliveryProof{
		SignatureDataURL: req.SignatureDataURL,
		PhotoURL:         req.PhotoURL,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

// FailPackage обрабатывает POST /api/v1/packages/:id/fail.
func (s *Server) FailPackage(c echo.Context) error {
	var req failPackageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "invalid request body",
		})
	}

	order, err := s.drivers.Fail(c.Request().Context(), c.Param("id"), req.Reason)
	if err != nil {
		return s.writeError(c, err)
	}

	return c.JSON(http.StatusOK, order)
}

// DrainOutbox обрабатывает POST /api/v1/outbox/drain — ручной запуск
// драйнера вне расписания.
func (s *Server) DrainOutbox(c echo.Context) error {
	processed := s.drainer.DrainOnce(c.Request().Context())
	return c.JSON(http.StatusOK, drainResponse{Processed: processed})
}

// OutboxStats обрабатывает GET /api/v1/outbox/stats.
func (s *Server) OutboxStats(c echo.Context) error {
	stats := s.queue.Stats()

	resp := outboxStatsResponse{PendingCount: stats.PendingCount}
	if !stats.OldestEnqueued.IsZero() {
		resp.OldestEnqueued = stats.OldestEnqueued.UTC().Format(time.RFC3339)
	}

	return c.JSON(http.StatusOK, resp)
}

// writeError переводит ошибки сервисов в HTTP-статусы.
func (s *Server) writeError(c echo.Context, err error) error {
	if ve, ok := domain.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: "validation failed",
			Fields:  ve.Violations,
		})
	}

	switch {
	case errors.Is(err, domain.ErrIdempotencyKeyRequired),
		errors.Is(err, domain.ErrProofReasonRequired):
		return c.JSON(http.StatusBadRequest, errorResponse{
			Code:    http.StatusBadRequest,
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrDuplicateRequest):
		return c.JSON(http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: "duplicate request: idempotency key already used",
		})
	case errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrPackageNotFound),
		errors.Is(err, domain.ErrRouteNotFound):
		return c.JSON(http.StatusNotFound, errorResponse{
			Code:    http.StatusNotFound,
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrPackageTerminal),
		errors.Is(err, domain.ErrOrderTerminal):
		return c.JSON(http.StatusConflict, errorResponse{
			Code:    http.StatusConflict,
			Message: err.Error(),
		})
	}

	s.logger.WithError(err).Error("request failed with internal error")
	return c.JSON(http.StatusInternalServerError, errorResponse{
		Code:    http.StatusInternalServerError,
		Message: "internal error",
	})
}
