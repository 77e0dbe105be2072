package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fraudshield/internal/domain"
	"fraudshield/internal/gateway"
	"fraudshield/internal/metrics"
)

// UserHeader carries the identity resolved by the upstream auth proxy.
const UserHeader = "X-User-ID"

type Service interface {
	ClassifyAndRecord(ctx context.Context, userID string, req domain.ClassificationRequest) (*domain.ClassificationResponse, *domain.Message, error)
	ListMessages(ctx context.Context, userID string, since *time.Time, page, pageSize int) (*domain.Page, error)
	Stats(ctx context.Context, userID string, since *time.Time) (*domain.Stats, error)
	HighRiskSince(ctx context.Context, since *time.Time) ([]domain.Message, error)
	FindMessage(ctx context.Context, id string) (*domain.Message, error)
	Ping(ctx context.Context) error
}

type HealthChecker interface {
	Health(ctx context.Context) error
}

type Server struct {
	echo   *echo.Echo
	svc    Service
	scorer HealthChecker
	log    zerolog.Logger
}

func NewServer(svc Service, scorer HealthChecker, log zerolog.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:   e,
		svc:    svc,
		scorer: scorer,
		log:    log.With().Str("component", "api").Logger(),
	}

	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(s.requestLogger())
	e.Use(requestMetrics)

	s.routes()

	return s
}

func (s *Server) routes() {
	s.echo.GET("/health", s.health)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo.POST("/api/classify", s.classify)
	s.echo.GET("/api/messages/high-risk", s.highRisk)
	s.echo.GET("/api/messages/stats/:userId", s.stats)
	s.echo.GET("/api/messages/:userId", s.getMessages)
	s.echo.GET("/api/message/:id", s.getMessage)

	s.echo.POST("/twilio/sms", s.smsWebhook)
	s.echo.POST("/twilio/voice", s.voiceWebhook)
}

func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start(addr string) error {
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			ev := s.log.Info()
			if v.Error != nil {
				ev = s.log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("remote_ip", v.RemoteIP).
				Msg("request completed")
			return nil
		},
	})
}

func requestMetrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)

		status := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			status = he.Code
		}

		path := c.Path()
		if path == "" {
			path = "unmatched"
		}
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	resp := map[string]string{"status": "ok", "storage": "ok", "scorer": "ok"}
	code := http.StatusOK

	if s.scorer != nil {
		if err := s.scorer.Health(ctx); err != nil {
			resp["status"] = "degraded"
			resp["scorer"] = "unavailable"
		}
	}
	if err := s.svc.Ping(ctx); err != nil {
		resp["status"] = "unavailable"
		resp["storage"] = "unavailable"
		code = http.StatusServiceUnavailable
	}

	return c.JSON(code, resp)
}

func (s *Server) classify(c echo.Context) error {
	var body struct {
		Message string `json:"message"`
		Channel string `json:"channel"`
	}
	if err := c.Bind(&body); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid JSON body")
	}

	req := domain.ClassificationRequest{Message: body.Message, Channel: domain.Channel(body.Channel)}
	if ch, ok := domain.ParseChannel(body.Channel); ok {
		req.Channel = ch
	}

	userID := userFrom(c)
	resp, msg, err := s.svc.ClassifyAndRecord(c.Request().Context(), userID, req)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info().Str("user_id", userID).Str("message_id", msg.ID).Float64("risk_score", resp.RiskScore).Msg("classification recorded")
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) getMessages(c echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	page, err := intParam(c, "page", 0)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	size, err := intParam(c, "size", gateway.DefaultPageSize)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	// TODO: check that the caller may read this userId once the auth proxy forwards roles.
	result, err := s.svc.ListMessages(c.Request().Context(), c.Param("userId"), since, page, size)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) stats(c echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	result, err := s.svc.Stats(c.Request().Context(), c.Param("userId"), since)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) highRisk(c echo.Context) error {
	since, err := parseSince(c.QueryParam("since"))
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}

	items, err := s.svc.HighRiskSince(c.Request().Context(), since)
	if err != nil {
		return s.fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

func (s *Server) getMessage(c echo.Context) error {
	msg, err := s.svc.FindMessage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.fail(c, err)
	}
	if msg == nil {
		return errorJSON(c, http.StatusNotFound, "not found")
	}
	return c.JSON(http.StatusOK, msg)
}

// fail maps service errors onto status codes. Only validation details reach
// the client.
func (s *Server) fail(c echo.Context, err error) error {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return errorJSON(c, http.StatusBadRequest, ve.Error())
	}

	s.log.Error().Err(err).Str("path", c.Path()).Msg("request failed")
	if errors.Is(err, domain.ErrPersistence) {
		return errorJSON(c, http.StatusInternalServerError, "failed to record classification")
	}
	return errorJSON(c, http.StatusInternalServerError, "internal error")
}

func errorJSON(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

func userFrom(c echo.Context) string {
	if id := c.Request().Header.Get(UserHeader); id != "" {
		return id
	}
	return gateway.AnonymousUser
}

// parseSince accepts RFC 3339 or a zone-less ISO date-time, read as UTC.
func parseSince(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, errors.New("since: must be an ISO-8601 date-time")
}

func intParam(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(name + ": must be an integer")
	}
	return n, nil
}
