// Package keepalive serves the liveness endpoint hosting platforms ping to
// keep the process running, plus Prometheus metrics.
package keepalive

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Greeting is the static body of GET /.
const Greeting = "🌍 QuakeAlertBot is running and monitoring earthquakes!"

// Status reports loop state for /healthz. Both funcs may be nil.
type Status struct {
	LastPoll func() time.Time
	SeenIDs  func() int
}

type health struct {
	Status   string `json:"status"`
	LastPoll string `json:"last_poll,omitempty"`
	Seen     int    `json:"seen"`
}

// Router builds the HTTP handler.
func Router(st Status) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(Greeting))
	})
	r.Head("/", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := health{Status: "ok"}
		if st.LastPoll != nil {
			if t := st.LastPoll(); !t.IsZero() {
				h.LastPoll = t.UTC().Format(time.RFC3339)
			}
		}
		if st.SeenIDs != nil {
			h.Seen = st.SeenIDs()
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(h)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
// It runs independently of the poll loop so slow feed or webhook calls never
// delay a health check.
func Serve(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return serve(ctx, ln, h, logger)
}

func serve(ctx context.Context, ln net.Listener, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("keep-alive server listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			return err
		}
		return nil
	}
}
