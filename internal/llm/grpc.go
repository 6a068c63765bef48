package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/connectivity"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// Wire names of the generator sidecar service. Requests and responses are
// google.protobuf.Struct values: {"prompt": "..."} in, {"text": "..."} out.
const (
	GeneratorServiceName = "washbot.llm.v1.Generator"
	generateMethod       = "/" + GeneratorServiceName + "/Generate"
)

var (
	errConnectionShutdown       = errors.New("connection shutdown")
	errConnectionStateUnchanged = errors.New("connection state did not change")
	errSidecarNotServing        = errors.New("generator sidecar is not serving")
)

// GRPCConfig holds connection settings for the generator sidecar.
type GRPCConfig struct {
	Address          string
	ConnectTimeout   time.Duration
	KeepaliveTime    time.Duration
	KeepaliveTimeout time.Duration
}

// DefaultGRPCConfig returns default configuration for addr.
func DefaultGRPCConfig(addr string) GRPCConfig {
	return GRPCConfig{
		Address:          addr,
		ConnectTimeout:   5 * time.Second,
		KeepaliveTime:    2 * time.Minute,
		KeepaliveTimeout: 10 * time.Second,
	}
}

// GRPC forwards prompts to an out-of-process generator over gRPC.
type GRPC struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
	addr   string
	logger *slog.Logger
}

// NewGRPC dials the sidecar and waits until it is ready. Extra dial options
// are appended after the defaults.
func NewGRPC(cfg GRPCConfig, logger *slog.Logger, opts ...grpc.DialOption) (*GRPC, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Address == "" {
		return nil, errors.New("grpc generator address is required")
	}

	kacp := keepalive.ClientParameters{
		Time:                cfg.KeepaliveTime,
		Timeout:             cfg.KeepaliveTimeout,
		PermitWithoutStream: false,
	}
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithKeepaliveParams(kacp),
	}, opts...)

	conn, err := grpc.NewClient(cfg.Address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to generator at %s: %w", cfg.Address, err)
	}

	connectCtx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := waitForReady(connectCtx, conn); err != nil {
		if closeErr := conn.Close(); closeErr != nil {
			logger.Warn("failed to close gRPC connection after readiness failure", "error", closeErr)
		}
		return nil, fmt.Errorf("generator at %s not ready: %w", cfg.Address, err)
	}

	g := &GRPC{
		conn:   conn,
		health: healthpb.NewHealthClient(conn),
		addr:   cfg.Address,
		logger: logger,
	}
	logger.Info("Connected to generator sidecar", "address", cfg.Address)
	return g, nil
}

func waitForReady(ctx context.Context, conn *grpc.ClientConn) error {
	for {
		state := conn.GetState()
		switch state {
		case connectivity.Ready:
			return nil
		case connectivity.Idle:
			conn.Connect()
		case connectivity.Shutdown:
			return errConnectionShutdown
		}

		if !conn.WaitForStateChange(ctx, state) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("%w from %s", errConnectionStateUnchanged, state)
		}
	}
}

// Name reports the backend name.
func (g *GRPC) Name() string { return "grpc:" + g.addr }

// Close closes the gRPC connection.
func (g *GRPC) Close() {
	if g.conn != nil {
		if err := g.conn.Close(); err != nil {
			g.logger.Warn("failed to close gRPC connection", "error", err)
		}
	}
}

// Health queries the standard gRPC health service. Sidecars that do not
// implement it are treated as healthy once connected.
func (g *GRPC) Health(ctx context.Context) error {
	resp, err := g.health.Check(ctx, &healthpb.HealthCheckRequest{Service: GeneratorServiceName})
	if status.Code(err) == codes.Unimplemented {
		return nil
	}
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return fmt.Errorf("%w: %s", errSidecarNotServing, resp.GetStatus())
	}
	return nil
}

// Generate sends prompt to the sidecar.
func (g *GRPC) Generate(ctx context.Context, prompt string) (string, error) {
	req, err := structpb.NewStruct(map[string]any{"prompt": prompt})
	if err != nil {
		return "", fmt.Errorf("encode generate request: %w", err)
	}
	resp := &structpb.Struct{}
	if err := g.conn.Invoke(ctx, generateMethod, req, resp); err != nil {
		return "", fmt.Errorf("generate rpc: %w", err)
	}
	text := strings.TrimSpace(resp.GetFields()["text"].GetStringValue())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// RegisterGeneratorServer exposes g as a generator sidecar on s. It is the
// server half of GRPC and is what Go-written sidecars and tests register.
func RegisterGeneratorServer(s grpc.ServiceRegistrar, g Generator) {
	s.RegisterService(&generatorServiceDesc, g)
}

var generatorServiceDesc = grpc.ServiceDesc{
	ServiceName: GeneratorServiceName,
	HandlerType: (*Generator)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "washbot/llm/v1/generator.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := &structpb.Struct{}
	if err := dec(in); err != nil {
		return nil, err
	}
	run := func(ctx context.Context, req any) (any, error) {
		prompt := req.(*structpb.Struct).GetFields()["prompt"].GetStringValue()
		text, err := srv.(Generator).Generate(ctx, prompt)
		if err != nil {
			return nil, status.Error(codes.Internal, err.Error())
		}
		return structpb.NewStruct(map[string]any{"text": text})
	}
	if interceptor == nil {
		return run(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateMethod}
	return interceptor(ctx, in, info, run)
}
