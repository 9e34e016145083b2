package server

import (
	"context"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/config"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/ethSigner"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/metrics"
	"github.com/Layr-Labs/eigenx-ethsigner-go/pkg/transportSigner"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

/*
Server exposes the signing facade over HTTP.

Request Flow:
  - Every response carries an X-Request-Id header. A well formed incoming id is
    reused, otherwise a new uuid is generated.
  - When a rate limit is configured a single token bucket is shared by all
    clients; rejected requests get 429 before the body is read.
  - Bodies are capped at MaxBodyBytes, decoded strictly and validated.
  - Private keys arrive in the request body, are handed to the facade and are
    never logged or retained.

Response Signing:
  - With a response signer configured, every 2xx body is signed as
    keccak256(body) and the 65-byte signature is sent hex encoded in the
    X-Signer-Signature header. GET /healthz reports the signer address.
*/
type Server struct {
	logger         *zap.Logger
	signer         *ethSigner.Signer
	metrics        *metrics.Metrics
	responseSigner transportSigner.ITransportSigner
	limiter        *rate.Limiter
	validate       *validator.Validate
	maxBodyBytes   int64
	httpServer     *http.Server
}

// NewServer creates a new server instance. m and responseSigner may be nil.
func NewServer(
	cfg *config.SignerServerConfig,
	m *metrics.Metrics,
	responseSigner transportSigner.ITransportSigner,
	logger *zap.Logger,
) (*Server, error) {
	if cfg == nil {
		cfg = config.DefaultSignerServerConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.NewMetricsWithRegistry(prometheus.NewRegistry())
	}

	s := &Server{
		logger:         logger,
		signer:         ethSigner.NewSigner(logger, m),
		metrics:        m,
		responseSigner: responseSigner,
		validate:       getValidator(),
		maxBodyBytes:   cfg.MaxBodyBytes,
	}
	if cfg.RateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst)
	}

	mux := http.NewServeMux()

	// Signing endpoints
	mux.HandleFunc(RouteSignHash, s.handleSignHash)
	mux.HandleFunc(RouteSignMessage, s.handleSignMessage)
	mux.HandleFunc(RouteSignTypedData, s.handleSignTypedData)
	mux.HandleFunc(RouteSignTransaction, s.handleSignTransaction)

	// Operational endpoints
	mux.HandleFunc(RouteHealth, s.handleHealth)
	mux.Handle(RouteMetrics, m.Handler())

	mux.HandleFunc("/", s.handleNotFound)

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRequestID(s.withRateLimit(mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start starts the HTTP server
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting HTTP server", "port", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// GetHandler returns the HTTP handler (for testing)
func (s *Server) GetHandler() http.Handler {
	return s.httpServer.Handler
}

func getValidator() *validator.Validate {
	validate := validator.New()
	// Report JSON field names in validation errors.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}
