package remote

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/junioryono/bindr"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultMaxBodyBytes = 1 << 20
	tracerName          = "github.com/junioryono/bindr/remote"
)

// Server exposes a container over HTTP.
type Server struct {
	router  *chi.Mux
	c       *bindr.Container
	logger  logrus.FieldLogger
	tracer  trace.Tracer
	maxBody int64
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithServerLogger sets the request logger. By default output is discarded.
func WithServerLogger(logger logrus.FieldLogger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxBodyBytes limits the size of call requests.
func WithMaxBodyBytes(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// WithServerTracerProvider sets the provider server spans are created
// with. The default is the global provider.
func WithServerTracerProvider(tp trace.TracerProvider) ServerOption {
	return func(s *Server) {
		if tp != nil {
			s.tracer = tp.Tracer(tracerName)
		}
	}
}

// NewServer creates a Server dispatching calls into c.
func NewServer(c *bindr.Container, opts ...ServerOption) *Server {
	discard := logrus.New()
	discard.SetOutput(io.Discard)

	s := &Server{
		router:  chi.NewRouter(),
		c:       c,
		logger:  discard,
		tracer:  otel.Tracer(tracerName),
		maxBody: defaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.loggingMiddleware)

	s.routes()

	return s
}

// routes registers all HTTP routes on the router.
func (s *Server) routes() {
	s.router.Get("/healthz", s.handleHealthz)
	s.router.Post("/v1/calls", s.handleCall)
}

// Router returns the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"container": s.c.ID(),
	})
}

func (s *Server) handleCall(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBody)

	var req callRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		status := http.StatusBadRequest
		if isBodyTooLarge(err) {
			status = http.StatusRequestEntityTooLarge
		}
		s.writeError(w, "", status, CodeBadRequest, "invalid call body: "+err.Error())
		return
	}
	if req.Type == "" || req.Method == "" {
		s.writeError(w, req.ID, http.StatusBadRequest, CodeBadRequest, "type and method are required")
		return
	}

	ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
	ctx, span := s.tracer.Start(ctx, "bindr.dispatch "+req.Type+"."+req.Method,
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("bindr.call_id", req.ID),
			attribute.String("bindr.type", req.Type),
			attribute.String("bindr.method", req.Method),
		),
	)
	defer span.End()

	args := make([]any, len(req.Args))
	for i, a := range req.Args {
		args[i] = rawArg(a)
	}

	result, err := bindr.Dispatch(ctx, s.c, &bindr.Call{
		ID:     req.ID,
		Type:   req.Type,
		Method: req.Method,
		Args:   args,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		code, status := classify(err)
		s.writeError(w, req.ID, status, code, err.Error())
		return
	}

	encoded, err := json.Marshal(result)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.writeError(w, req.ID, http.StatusInternalServerError, CodeCallFailed, "encode result: "+err.Error())
		return
	}

	s.writeJSON(w, http.StatusOK, callResponse{ID: req.ID, Result: encoded})
}

// writeJSON writes a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.WithError(err).Error("encode response")
	}
}

// writeError writes a JSON error envelope.
func (s *Server) writeError(w http.ResponseWriter, id string, status int, code, message string) {
	s.writeJSON(w, status, callResponse{
		ID:    id,
		Error: &errorBody{Code: code, Message: message},
	})
}

// loggingMiddleware logs each request using the structured logger.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.WithFields(logrus.Fields{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		}).Info("request")
	})
}

// isBodyTooLarge reports whether err comes from MaxBytesReader.
func isBodyTooLarge(err error) bool {
	var mbe *http.MaxBytesError
	return errors.As(err, &mbe)
}
