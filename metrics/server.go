package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Server exposes the default prometheus registry on /metrics.
type Server struct {
	srv      *http.Server
	listener net.Listener
	done     chan struct{}
}

// Serve starts listening on addr and serves in the background. Use
// "127.0.0.1:0" to pick a free port; Addr reports the one chosen.
func Serve(addr string, log logrus.FieldLogger) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	s := &Server{
		srv:      &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second},
		listener: listener,
		done:     make(chan struct{}),
	}
	log.WithField("address", listener.Addr().String()).Info("prometheus metrics server listening")
	go func() {
		defer close(s.done)
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("prometheus metrics server failed")
		}
	}()
	return s, nil
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Close stops the server, waiting up to a few seconds for open scrapes.
func (s *Server) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
