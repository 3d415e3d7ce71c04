package app

import (
	"fmt"

	"github.com/kbukum/transcriptfeed/api"
	"github.com/kbukum/transcriptfeed/component"
	"github.com/kbukum/transcriptfeed/graph"
	"github.com/kbukum/transcriptfeed/logger"
	"github.com/kbukum/transcriptfeed/logstore"
	"github.com/kbukum/transcriptfeed/meeting"
	"github.com/kbukum/transcriptfeed/notification"
	"github.com/kbukum/transcriptfeed/observability"
	"github.com/kbukum/transcriptfeed/security"
	"github.com/kbukum/transcriptfeed/server"
	"github.com/kbukum/transcriptfeed/server/endpoint"
	"github.com/kbukum/transcriptfeed/streaming"
	"github.com/kbukum/transcriptfeed/subscription"
	"github.com/kbukum/transcriptfeed/token"
)

// Services holds the assembled parts of the service.
type Services struct {
	Logs          *logstore.Store
	Tokens        token.Provider
	Graph         *graph.Client
	Subscriptions *subscription.Service
	Processor     *notification.Processor
	Server        *server.Server
	Telemetry     *observability.Component
}

// Build wires every part from cfg. cfg must have defaults applied and be
// valid. health feeds the /health endpoint.
func Build(cfg *Config, log *logger.Logger, logs *logstore.Store, health endpoint.HealthChecker) (*Services, error) {
	metrics, err := observability.NewMetrics(observability.Meter(cfg.Name))
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}

	decryption := security.NewFileSource(cfg.Certificates.DecryptionPath(), cfg.Certificates.Password)

	tokens, err := buildTokens(cfg, log)
	if err != nil {
		return nil, err
	}

	remote, err := graph.New(cfg.Graph, tokens, decryption, log)
	if err != nil {
		return nil, fmt.Errorf("graph client: %w", err)
	}

	dialer := &streaming.WebSocketDialer{Origin: cfg.Streaming.Origin, MaxPayloadBytes: cfg.Streaming.MaxPayloadBytes}
	if cfg.Graph.TLS != nil && cfg.Graph.TLS.IsEnabled() {
		if dialer.TLSConfig, err = cfg.Graph.TLS.Build(); err != nil {
			return nil, fmt.Errorf("stream tls: %w", err)
		}
	}
	factory := &streaming.Factory{
		Tokens: tokens,
		Dialer: dialer,
		Opts: []streaming.Option{
			streaming.WithLogger(log.WithComponent("streaming")),
			streaming.WithMetrics(metrics),
			streaming.WithBufferCapacity(cfg.Streaming.BufferCapacity),
		},
	}
	handlers := subscription.HandlerFactoryFunc(func(info meeting.SubscriptionInfo) subscription.StreamHandler {
		return factory.NewHandler(info)
	})

	subs := subscription.NewService(remote, remote, handlers, log)
	processor := notification.NewProcessor(decryption, subs, log, metrics)

	srv := server.New(cfg.Server, log)
	srv.RegisterDefaultEndpoints(cfg.Name, health)
	api.NewHandler(subs, processor, logs, log).Register(srv.Engine())

	return &Services{
		Logs:          logs,
		Tokens:        tokens,
		Graph:         remote,
		Subscriptions: subs,
		Processor:     processor,
		Server:        srv,
		Telemetry:     observability.NewComponent(cfg.Observability, cfg.Name, cfg.Version, cfg.Environment, log),
	}, nil
}

func buildTokens(cfg *Config, log *logger.Logger) (token.Provider, error) {
	if !cfg.UsesClientCredentials() {
		return token.Static(cfg.Auth.StaticToken), nil
	}
	store := &security.DirectoryStore{Dir: cfg.Certificates.StoreDir, Password: cfg.Certificates.Password}
	app, err := token.NewClientCredentials(cfg.Auth.Config, security.NewStoreSource(store, cfg.Certificates.Thumbprint), log)
	if err != nil {
		return nil, fmt.Errorf("token provider: %w", err)
	}
	router := &token.Router{App: app, Log: log}
	if cfg.Auth.DelegatedToken != "" {
		router.Delegated = token.Static(cfg.Auth.DelegatedToken)
	}
	return router, nil
}

// Components lists the lifecycle components in start order. Stopping runs
// in reverse: the server stops taking requests, in-flight notifications
// drain, then every stream closes.
func (s *Services) Components() []component.Component {
	return []component.Component{
		s.Telemetry,
		s.Graph,
		s.Subscriptions,
		s.Processor,
		s.Server,
	}
}
