package server

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	health "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const (
	defaultProbeInterval = 15 * time.Second
	defaultProbeTimeout  = 2 * time.Second
)

type Option func(*Options)

// HealthProbe checks one backing dependency of the registered services.
type HealthProbe struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	port              int
	listener          net.Listener
	logger            *zap.Logger
	reflection        bool
	unaryInterceptors []grpc.UnaryServerInterceptor
	enableLogging     bool
	maxMsgBytes       int
	probes            []HealthProbe
	probeInterval     time.Duration
}

func WithPort(port int) Option {
	return func(o *Options) {
		o.port = port
	}
}

// WithListener serves on an existing listener instead of opening the port.
func WithListener(lis net.Listener) Option {
	return func(o *Options) {
		o.listener = lis
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(o *Options) {
		o.logger = logger
	}
}

func WithReflection(enabled bool) Option {
	return func(o *Options) {
		o.reflection = enabled
	}
}

func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(o *Options) {
		o.unaryInterceptors = append(o.unaryInterceptors, interceptors...)
	}
}

func WithLogging(enabled bool) Option {
	return func(o *Options) {
		o.enableLogging = enabled
	}
}

// WithMaxMessageBytes raises the receive and send limits. Full reports grow
// with the number of machines.
func WithMaxMessageBytes(n int) Option {
	return func(o *Options) {
		o.maxMsgBytes = n
	}
}

// WithHealthProbe adds a dependency check. While any probe fails every
// registered service reports NOT_SERVING.
func WithHealthProbe(name string, check func(ctx context.Context) error) Option {
	return func(o *Options) {
		o.probes = append(o.probes, HealthProbe{Name: name, Check: check})
	}
}

func WithProbeInterval(d time.Duration) Option {
	return func(o *Options) {
		o.probeInterval = d
	}
}

type Server struct {
	grpcServer    *grpc.Server
	lis           net.Listener
	logger        *zap.Logger
	healthServer  *health.Server
	probes        []HealthProbe
	probeInterval time.Duration

	mu       sync.Mutex
	services []string
	serving  bool
	stop     context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new gRPC server using the builder options.
func New(opts ...Option) (*Server, error) {
	options := &Options{
		port:          50051,
		logger:        zap.NewNop(),
		probeInterval: defaultProbeInterval,
	}

	for _, opt := range opts {
		opt(options)
	}

	lis := options.listener
	if lis == nil {
		if options.port < 1 || options.port > 65535 {
			return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", options.port)
		}
		l, err := net.Listen("tcp", fmt.Sprintf(":%d", options.port))
		if err != nil {
			return nil, fmt.Errorf("failed to listen on port %d: %w", options.port, err)
		}
		lis = l
	}

	logger := options.logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if options.probeInterval <= 0 {
		options.probeInterval = defaultProbeInterval
	}

	interceptors := []grpc.UnaryServerInterceptor{RecoveryInterceptor(logger)}
	if options.enableLogging {
		interceptors = append(interceptors, LoggingInterceptor(logger))
	}
	interceptors = append(interceptors, options.unaryInterceptors...)

	serverOpts := []grpc.ServerOption{grpc.ChainUnaryInterceptor(interceptors...)}
	if options.maxMsgBytes > 0 {
		serverOpts = append(serverOpts,
			grpc.MaxRecvMsgSize(options.maxMsgBytes),
			grpc.MaxSendMsgSize(options.maxMsgBytes))
	}

	grpcServer := grpc.NewServer(serverOpts...)

	if options.reflection {
		reflection.Register(grpcServer)
	}

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	return &Server{
		grpcServer:    grpcServer,
		lis:           lis,
		logger:        logger.Named("grpc-server"),
		healthServer:  healthServer,
		probes:        options.probes,
		probeInterval: options.probeInterval,
		serving:       true,
	}, nil
}

// RegisterServiceWithHealth registers a service and reports it as serving
// until a health probe fails.
func (s *Server) RegisterServiceWithHealth(serviceName string, registerFunc func(s *grpc.Server)) {
	registerFunc(s.grpcServer)
	if serviceName == "" {
		return
	}

	s.mu.Lock()
	s.services = append(s.services, serviceName)
	status := healthpb.HealthCheckResponse_NOT_SERVING
	if s.serving {
		status = healthpb.HealthCheckResponse_SERVING
	}
	s.mu.Unlock()

	s.healthServer.SetServingStatus(serviceName, status)
	s.logger.Info("registered service with health check", zap.String("service", serviceName))
}

// Start runs the server and the health probes in goroutines and returns immediately.
func (s *Server) Start() {
	s.logger.Info("gRPC server starting", zap.String("addr", s.lis.Addr().String()))

	go func() {
		if err := s.grpcServer.Serve(s.lis); err != nil {
			s.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	if len(s.probes) > 0 {
		ctx, cancel := context.WithCancel(context.Background())
		s.mu.Lock()
		s.stop = cancel
		s.mu.Unlock()

		s.wg.Add(1)
		go s.watchHealth(ctx)
	}

	s.logger.Info("gRPC server started", zap.String("addr", s.lis.Addr().String()))
}

func (s *Server) watchHealth(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.probeInterval)
	defer ticker.Stop()

	for {
		s.probe(ctx)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// probe runs every check once and flips the registered services on a change.
func (s *Server) probe(ctx context.Context) {
	var failed []string
	for _, p := range s.probes {
		checkCtx, cancel := context.WithTimeout(ctx, defaultProbeTimeout)
		err := p.Check(checkCtx)
		cancel()
		if err != nil {
			failed = append(failed, p.Name)
			s.logger.Warn("health probe failed", zap.String("probe", p.Name), zap.Error(err))
		}
	}

	serving := len(failed) == 0
	s.mu.Lock()
	changed := serving != s.serving
	s.serving = serving
	services := append([]string(nil), s.services...)
	s.mu.Unlock()
	if !changed {
		return
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !serving {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	for _, name := range services {
		s.healthServer.SetServingStatus(name, status)
	}
	s.logger.Info("updated service health",
		zap.String("status", status.String()),
		zap.Strings("failed_probes", failed))
}

// Shutdown gracefully shuts down the server with a timeout context.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("gRPC server shutting down")

	s.mu.Lock()
	stop := s.stop
	s.mu.Unlock()
	if stop != nil {
		stop()
	}
	s.wg.Wait()

	s.healthServer.Shutdown()

	done := make(chan struct{})

	go func() {
		s.grpcServer.GracefulStop()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("gRPC server stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("forced shutdown due to timeout")
		s.grpcServer.Stop()
		return ctx.Err()
	}
}

// Addr returns the server's listening address.
func (s *Server) Addr() net.Addr {
	return s.lis.Addr()
}
