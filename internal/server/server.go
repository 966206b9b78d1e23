// Package server provides the peopledesk HTTP server.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"

	"github.com/peopledesk/peopledesk/internal/config"
	"github.com/peopledesk/peopledesk/internal/data"
	"github.com/peopledesk/peopledesk/internal/httputil"
	"github.com/peopledesk/peopledesk/internal/metrics"
	"github.com/peopledesk/peopledesk/internal/services"
	"github.com/peopledesk/peopledesk/pkg/types"
)

// FallbackHeader marks responses served from sample data.
const FallbackHeader = "X-Data-Source"

// Server wraps HTTP routes and dependencies.
type Server struct {
	db        *data.DB
	svc       *services.Services
	cfg       config.Config
	version   string
	commit    string
	buildDate string
	gatherer  prometheus.Gatherer
	tracer    trace.TracerProvider
	logger    zerolog.Logger
	router    chi.Router
}

// Option configures server construction.
type Option func(*Server)

// WithGatherer exposes g on /metrics when metrics are enabled.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithTracerProvider sets the provider request spans are started on when
// traces are enabled. The global provider is used otherwise.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(s *Server) {
		s.tracer = tp
	}
}

// WithLogger sets the base logger for request logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// New constructs the API server over db.
func New(db *data.DB, cfg config.Config, version, commit, buildDate string, opts ...Option) *Server {
	s := &Server{
		db:        db,
		svc:       services.New(db),
		cfg:       cfg,
		version:   version,
		commit:    commit,
		buildDate: buildDate,
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Router returns the configured router.
func (s *Server) Router() chi.Router {
	return s.router
}

// tracing wraps every request in a server span named after its method and
// path.
func (s *Server) tracing(next http.Handler) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithMessageEvents(otelhttp.ReadEvents, otelhttp.WriteEvents),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if s.tracer != nil {
		opts = append(opts, otelhttp.WithTracerProvider(s.tracer))
	}
	return otelhttp.NewHandler(next, "peopledesk", opts...)
}

// Services returns the domain services the routes are bound to.
func (s *Server) Services() *services.Services {
	return s.svc
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	if s.cfg.TracesEnabled {
		r.Use(s.tracing)
	}
	r.Use(middleware.RequestID)
	r.Use(hlog.NewHandler(s.logger))
	r.Use(requestIDLogger)
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(middleware.Recoverer)

	r.Method(http.MethodGet, "/health", httputil.HealthHandler())
	r.Method(http.MethodGet, "/readiness", httputil.ReadinessHandler(s.ready))
	r.Method(http.MethodGet, "/version", httputil.VersionHandler(s.version, s.commit, s.buildDate))
	if s.cfg.MetricsEnabled && s.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(s.gatherer))
	}

	limit := s.cfg.MaxPageLimit
	r.Route("/api/v1", func(r chi.Router) {
		mount[types.Team](r, "/teams", s.svc.Teams, limit)

		mount[types.Project](r, "/projects", s.svc.Projects, limit)
		r.Post("/projects/{id}/complete", s.handleProjectComplete)

		mount[types.MeetingRoom](r, "/meeting-rooms", s.svc.MeetingRooms, limit)
		r.Put("/meeting-rooms/{id}/status", s.handleRoomStatus)
		r.Get("/meeting-rooms/{id}/bookings", s.handleRoomBookings)

		mount[types.RoomBooking](r, "/room-bookings", s.svc.RoomBookings, limit)
		r.Post("/room-bookings/{id}/cancel", s.handleBookingCancel)

		mount[types.Equipment](r, "/equipment", s.svc.Equipment, limit)
		r.Post("/equipment/{id}/safety-check", s.handleEquipmentSafetyCheck)

		mount[types.EquipmentBooking](r, "/equipment-bookings", s.svc.EquipmentBookings, limit)
		r.Post("/equipment-bookings/{id}/return", s.handleEquipmentReturn)

		mount[types.SafetyCheck](r, "/safety-checks", s.svc.SafetyChecks, limit)
		r.Post("/safety-checks/{id}/complete", s.handleSafetyCheckComplete)

		mount[types.TravelRequest](r, "/business-travel", s.svc.BusinessTravel, limit)
		r.Post("/business-travel/{id}/approve", s.handleTravelApprove)
		r.Post("/business-travel/{id}/reject", s.handleTravelReject)
		r.Post("/business-travel/{id}/complete", s.handleTravelComplete)

		mount[types.ChatChannel](r, "/chat-channels", s.svc.ChatChannels, limit)
		r.Get("/chat-channels/{id}/messages", s.handleChannelMessages)

		mount[types.ChatMessage](r, "/chat-messages", s.svc.ChatMessages, limit)
		r.Post("/chat-messages/{id}/edit", s.handleMessageEdit)

		mount[types.Request](r, "/requests", s.svc.Requests, limit)
		r.Post("/requests/{id}/approve", s.handleRequestApprove)
		r.Post("/requests/{id}/reject", s.handleRequestReject)
		r.Post("/requests/{id}/assign", s.handleRequestAssign)
		r.Post("/requests/{id}/resolve", s.handleRequestResolve)
		r.Put("/requests/{id}/status", s.handleRequestStatus)
	})

	return r
}

// ready reports the store reachable. With a health checker it forces a
// fresh probe so readiness recovers without waiting out the TTL.
func (s *Server) ready(ctx context.Context) error {
	if hc := s.db.Health(); hc != nil {
		status := hc.Check(ctx)
		if !status.Reachable {
			return &unreachableError{msg: status.LastError}
		}
		return nil
	}
	return s.db.Store().Ping(ctx)
}

type unreachableError struct {
	msg string
}

func (e *unreachableError) Error() string {
	if e.msg == "" {
		return "store unreachable"
	}
	return "store unreachable: " + e.msg
}

// requestIDLogger adds chi's request id to the request logger.
func requestIDLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			zerolog.Ctx(r.Context()).UpdateContext(func(c zerolog.Context) zerolog.Context {
				return c.Str("request_id", id)
			})
		}
		next.ServeHTTP(w, r)
	})
}
