// Package api exposes the dashboard screens as JSON over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"switching-insights-go/internal/dashboard"
	"switching-insights-go/internal/dataset"
	"switching-insights-go/internal/logger"
)

// Dashboard is the screen source the handlers read from.
type Dashboard interface {
	Products() []string
	MarketPulse(q dashboard.Query) (*dashboard.Pulse, error)
	Landscape(q dashboard.Query) (*dashboard.Landscape, error)
	Journey(q dashboard.Query) (*dashboard.Journey, error)
	WhyTheyMove(q dashboard.Query) (*dashboard.Reasons, error)
	Channels(q dashboard.Query) (*dashboard.Channels, error)
	Validation(product string) (*dashboard.ValidationScreen, error)
	Dimensions(product string) (*dataset.Dimensions, error)
}

var errBadRequest = errors.New("bad request")

type Server struct {
	dash   Dashboard
	log    *logger.Logger
	router *chi.Mux
}

func NewServer(d Dashboard, log *logger.Logger) *Server {
	if log == nil {
		log = logger.New()
	}
	s := &Server{dash: d, log: log, router: chi.NewRouter()}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() {
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/v1/{product}", func(r chi.Router) {
		r.Get("/pulse", s.handlePulse)
		r.Get("/landscape", s.handleLandscape)
		r.Get("/journey", s.handleJourney)
		r.Get("/reasons", s.handleReasons)
		r.Get("/channels", s.handleChannels)
		r.Get("/validation", s.handleValidation)
		r.Get("/dimensions", s.handleDimensions)
	})
}

// requestLogger tags each request with an id, echoes it back and logs the
// outcome.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := logger.RequestID(r)
		r.Header.Set(logger.RequestIDHeader, id)
		w.Header().Set(logger.RequestIDHeader, id)

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		entry := s.log.WithRequest(r).
			WithField("status", ww.Status()).
			WithField("duration_ms", time.Since(start).Milliseconds())
		if ww.Status() >= http.StatusInternalServerError {
			entry.Warn("request failed")
			return
		}
		entry.Info("request served")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"products": s.dash.Products(),
	})
}

// parseQuery reads the screen query from the path and query string.
func parseQuery(r *http.Request) (dashboard.Query, error) {
	v := r.URL.Query()
	q := dashboard.Query{
		Product: chi.URLParam(r, "product"),
		Insurer: v.Get("insurer"),
		Filter: dataset.Filter{
			AgeBand:     v.Get("age_band"),
			Region:      v.Get("region"),
			PaymentType: v.Get("payment_type"),
		},
	}
	var err error
	if q.Filter.TimeWindowMonths, err = intParam(v.Get("window"), 0); err != nil {
		return q, fmt.Errorf("%w: window: %v", errBadRequest, err)
	}
	if q.TopN, err = intParam(v.Get("top_n"), 1); err != nil {
		return q, fmt.Errorf("%w: top_n: %v", errBadRequest, err)
	}
	return q, nil
}

// intParam parses an optional integer no smaller than floor.
func intParam(raw string, floor int) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("not an integer: %q", raw)
	}
	if n < floor {
		return 0, fmt.Errorf("must be at least %d", floor)
	}
	return n, nil
}

// screen adapts a query-driven dashboard call to a handler.
func screen[T any](s *Server, name string, build func(dashboard.Query) (T, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q, err := parseQuery(r)
		if err != nil {
			s.writeError(w, r, name, err)
			return
		}
		out, err := build(q)
		if err != nil {
			s.writeError(w, r, name, err)
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func (s *Server) handlePulse(w http.ResponseWriter, r *http.Request) {
	screen(s, "pulse", s.dash.MarketPulse)(w, r)
}

func (s *Server) handleLandscape(w http.ResponseWriter, r *http.Request) {
	screen(s, "landscape", s.dash.Landscape)(w, r)
}

func (s *Server) handleJourney(w http.ResponseWriter, r *http.Request) {
	screen(s, "journey", s.dash.Journey)(w, r)
}

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	screen(s, "channels", s.dash.Channels)(w, r)
}

func (s *Server) handleReasons(w http.ResponseWriter, r *http.Request) {
	screen(s, "reasons", s.dash.WhyTheyMove)(w, r)
}

func (s *Server) handleValidation(w http.ResponseWriter, r *http.Request) {
	out, err := s.dash.Validation(chi.URLParam(r, "product"))
	if err != nil {
		s.writeError(w, r, "validation", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDimensions(w http.ResponseWriter, r *http.Request) {
	out, err := s.dash.Dimensions(chi.URLParam(r, "product"))
	if err != nil {
		s.writeError(w, r, "dimensions", err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, dashboard.ErrUnknownProduct):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, handler string, err error) {
	status := statusFor(err)
	entry := s.log.WithRequest(r).WithField("handler", handler).WithField("error", err.Error())
	if status == http.StatusInternalServerError {
		entry.Error("handler failed")
	} else {
		entry.Warn("request rejected")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
