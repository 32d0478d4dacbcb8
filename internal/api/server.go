package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// Options configures the HTTP surface.
type Options struct {
	Listen       string
	TrustProxy   bool
	AdminToken   string
	RateLimit    int
	RateWindow   time.Duration
	WriteTimeout time.Duration
}

// NewRouter wires routes and middleware. Cross-cutting middleware wraps the
// router itself so it also covers unmatched routes and preflight requests.
func NewRouter(h *Handler, opts Options) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/", h.Welcome).Methods(http.MethodGet)
	router.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)
	router.HandleFunc("/chains", h.ListChains).Methods(http.MethodGet)
	router.HandleFunc("/tokens", h.ListTokens).Methods(http.MethodGet)
	router.HandleFunc("/tokens/{chainId:[0-9]+}/{address}", h.GetToken).Methods(http.MethodGet)
	router.HandleFunc("/claims/{wallet}", h.GetClaim).Methods(http.MethodGet)
	router.HandleFunc("/add-chain", requireAdmin(opts.AdminToken, h.logger, h.AddChain)).Methods(http.MethodPost)
	router.HandleFunc("/add-token", requireAdmin(opts.AdminToken, h.logger, h.AddToken)).Methods(http.MethodPost)
	router.HandleFunc("/request-tokens", h.RequestTokens).Methods(http.MethodPost)

	var handler http.Handler = router
	if opts.RateLimit > 0 && opts.RateWindow > 0 {
		handler = rateLimitMiddleware(newIPLimiter(opts.RateLimit, opts.RateWindow), opts.TrustProxy, h.logger)(handler)
	}
	handler = securityHeaders(handler)
	handler = corsMiddleware(handler)
	return loggingMiddleware(h.logger, opts.TrustProxy)(handler)
}

// Server is the faucet's HTTP server.
type Server struct {
	srv    *http.Server
	logger *zap.Logger
}

func NewServer(h *Handler, opts Options) *Server {
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 15 * time.Second
	}
	return &Server{
		srv: &http.Server{
			Addr:              opts.Listen,
			Handler:           NewRouter(h, opts),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      writeTimeout,
			IdleTimeout:       60 * time.Second,
		},
		logger: h.logger,
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", s.srv.Addr))
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}
