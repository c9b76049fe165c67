package api

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"

	"github.com/meridian/orchestrator/pkg/log"
	"github.com/meridian/orchestrator/pkg/metrics"
	"github.com/meridian/orchestrator/pkg/services"
)

// Deps is the full set of model services the gRPC surface fronts. Every
// write still goes through the service, not the store directly, so the
// same validation and event-emission path serves the CLI and any
// future caller alike.
type Deps struct {
	Teams       *services.TeamService
	Templates   *services.TemplateService
	Workloads   *services.WorkloadService
	Targets     *services.TargetService
	Hosts       *services.HostService
	Deployments *services.DeploymentService
	Assignments *services.AssignmentService
	Configs     *services.ConfigService
}

// TLSFiles names the PEM files backing the server's mTLS listener.
// ClientCAPath is optional; when empty the server still requests a
// client certificate (so per-RPC policy can inspect one if presented)
// but does not require or verify it against a CA.
type TLSFiles struct {
	CertPath     string
	KeyPath      string
	ClientCAPath string
}

// loadTLSConfig builds the tls.Config in the manner of the teacher's
// pkg/api/server.go: RequestClientCert rather than RequireAndVerify, so
// a connection without a client certificate can still reach RPCs that
// don't need one, and TLS 1.3 as the floor. With a ClientCAPath set the
// mode becomes VerifyClientCertIfGiven: a presented certificate must
// chain to that CA, while a connection without one is still accepted.
func loadTLSConfig(files TLSFiles) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(files.CertPath, files.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("load api server certificate: %w", err)
	}
	cfg := &tls.Config{
		ClientAuth:   tls.RequestClientCert,
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS13,
	}
	if files.ClientCAPath != "" {
		pemBytes, err := os.ReadFile(files.ClientCAPath)
		if err != nil {
			return nil, fmt.Errorf("read client CA: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pemBytes) {
			return nil, fmt.Errorf("client CA file %s contains no usable certificates", files.ClientCAPath)
		}
		cfg.ClientCAs = pool
		cfg.ClientAuth = tls.VerifyClientCertIfGiven
	}
	return cfg, nil
}

// Server hosts the model-service gRPC surface.
type Server struct {
	grpc   *grpc.Server
	logger zerolog.Logger
}

// NewServer wires deps behind mTLS-protected gRPC services. Pass a
// zero TLSFiles (both paths empty) to fall back to a plaintext,
// unauthenticated listener, as tests and the api command without
// certificate flags do.
func NewServer(deps Deps, files TLSFiles) (*Server, error) {
	opts := []grpc.ServerOption{
		grpc.ForceServerCodec(jsonCodec{}),
		grpc.UnaryInterceptor(metricsInterceptor),
	}
	if files.CertPath != "" || files.KeyPath != "" {
		tlsConfig, err := loadTLSConfig(files)
		if err != nil {
			return nil, err
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsConfig)))
	}

	grpcServer := grpc.NewServer(opts...)
	grpcServer.RegisterService(teamServiceDesc(deps.Teams), deps.Teams)
	grpcServer.RegisterService(templateServiceDesc(deps.Templates), deps.Templates)
	grpcServer.RegisterService(workloadServiceDesc(deps.Workloads), deps.Workloads)
	grpcServer.RegisterService(targetServiceDesc(deps.Targets), deps.Targets)
	grpcServer.RegisterService(hostServiceDesc(deps.Hosts), deps.Hosts)
	grpcServer.RegisterService(deploymentServiceDesc(deps.Deployments), deps.Deployments)
	grpcServer.RegisterService(assignmentServiceDesc(deps.Assignments), deps.Assignments)
	grpcServer.RegisterService(configServiceDesc(deps.Configs), deps.Configs)

	return &Server{grpc: grpcServer, logger: log.WithComponent("api")}, nil
}

// Start listens on addr and blocks serving RPCs until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(lis)
}

// Serve blocks serving RPCs on an already-open listener, used by Start
// and by tests that need the ephemeral port net.Listen picked before
// serving begins.
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Info().Str("addr", lis.Addr().String()).Msg("gRPC api listening")
	return s.grpc.Serve(lis)
}

// Stop drains in-flight RPCs before returning.
func (s *Server) Stop() {
	s.grpc.GracefulStop()
}

func metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	timer := metrics.NewTimer()
	resp, err := handler(ctx, req)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.APIRequestsTotal.WithLabelValues(info.FullMethod, outcome).Inc()
	timer.ObserveDurationVec(metrics.APIRequestDuration, info.FullMethod)
	return resp, err
}
