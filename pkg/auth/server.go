package auth

import (
	"context"
	"fmt"
	"net"

	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"google.golang.org/grpc"
)

// Server exposes the auth Service over gRPC.
type Server struct {
	service *Service
	grpc    *grpc.Server
}

// NewServer creates an auth gRPC server.
func NewServer(service *Service) *Server {
	return &Server{
		service: service,
		grpc:    grpc.NewServer(),
	}
}

// Start starts serving on addr. It blocks until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	rpc.RegisterAuthServer(s.grpc, s)
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// Register handles the register RPC.
func (s *Server) Register(ctx context.Context, req *rpc.RegisterRequest) (*rpc.RegisterResponse, error) {
	ok, msg := s.service.Register(req.Email, req.Password)
	return &rpc.RegisterResponse{Success: ok, Message: msg}, nil
}

// Login handles the login RPC.
func (s *Server) Login(ctx context.Context, req *rpc.LoginRequest) (*rpc.LoginResponse, error) {
	session, msg := s.service.Login(req.Email, req.Password)
	if session == nil {
		return &rpc.LoginResponse{Success: false, Message: msg}, nil
	}
	return &rpc.LoginResponse{Success: true, Message: msg, Session: session}, nil
}

// ValidateSession handles the validate-session RPC.
func (s *Server) ValidateSession(ctx context.Context, req *rpc.ValidateSessionRequest) (*rpc.ValidateSessionResponse, error) {
	userID, valid := s.service.ValidateSession(req.Token)
	return &rpc.ValidateSessionResponse{Valid: valid, UserID: userID}, nil
}
