// Package api provides the HTTP transport for PAU: Meta webhook
// verification, inbound channel webhooks and the health endpoint.
//
// The transport is deliberately thin: it validates and parses each inbound
// event, filters echoes, and hands the message to the flow processor. A
// processing failure surfaces as a non-2xx status so the upstream provider
// redelivers.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pauhq/pau/internal/models"
)

// Constants for API server configuration
const (
	// DefaultAddr is the default listen address for the API server
	DefaultAddr = ":8080"
	// DefaultShutdownTimeout bounds graceful shutdown
	DefaultShutdownTimeout = 10 * time.Second
	// DefaultReadHeaderTimeout bounds request header reads
	DefaultReadHeaderTimeout = 10 * time.Second
)

// MessageProcessor runs the conversation pipeline for one inbound message.
type MessageProcessor interface {
	Process(ctx context.Context, msg models.InboundMessage) error
}

// Opts holds configuration options for the API server.
type Opts struct {
	Addr            string
	MetaVerifyToken string
	InstagramSecret string
	OutboundEmail   string
}

// Option defines a configuration option for the API server.
type Option func(*Opts)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	return func(o *Opts) { o.Addr = addr }
}

// WithMetaVerifyToken sets the token expected by the Meta GET verification
// handshake on the WhatsApp and Instagram webhooks.
func WithMetaVerifyToken(token string) Option {
	return func(o *Opts) { o.MetaVerifyToken = token }
}

// WithInstagramSecret sets the app secret used to verify the
// X-Hub-Signature-256 header on Instagram webhook posts. Verification is
// skipped when no secret is configured.
func WithInstagramSecret(secret string) Option {
	return func(o *Opts) { o.InstagramSecret = secret }
}

// WithOutboundEmail sets PAU's own sending address so inbound email events
// carrying it are dropped as echoes.
func WithOutboundEmail(addr string) Option {
	return func(o *Opts) { o.OutboundEmail = addr }
}

// Server is the PAU HTTP transport.
type Server struct {
	processor       MessageProcessor
	addr            string
	metaVerifyToken string
	instagramSecret string
	outboundEmail   string
	httpServer      *http.Server
}

// NewServer creates the API server around the given processor.
func NewServer(processor MessageProcessor, opts ...Option) *Server {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	slog.Debug("Server.NewServer: configured", "addr", cfg.Addr,
		"verifyToken_set", cfg.MetaVerifyToken != "",
		"instagramSecret_set", cfg.InstagramSecret != "",
		"outboundEmail_set", cfg.OutboundEmail != "")
	return &Server{
		processor:       processor,
		addr:            cfg.Addr,
		metaVerifyToken: cfg.MetaVerifyToken,
		instagramSecret: cfg.InstagramSecret,
		outboundEmail:   cfg.OutboundEmail,
	}
}

// Handler builds the HTTP routing table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/webhook/whatsapp", s.metaVerifyHandler)
	mux.HandleFunc("/webhook/twilio", s.twilioWebhookHandler)
	mux.HandleFunc("/webhook/instagram", s.instagramWebhookHandler)
	mux.HandleFunc("/webhook/email", s.emailWebhookHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return mux
}

// Run starts the HTTP server and blocks until the context is canceled.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: DefaultReadHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server.Run: listening", "addr", s.addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
		slog.Info("Server.Run: shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}
