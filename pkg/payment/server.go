package payment

import (
	"context"
	"fmt"
	"net"

	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"github.com/ticketmesh/ticketmesh/pkg/types"
	"google.golang.org/grpc"
)

// Server exposes the payment Service over gRPC.
type Server struct {
	service *Service
	grpc    *grpc.Server
}

// NewServer creates a payment gRPC server.
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

	rpc.RegisterPaymentServer(s.grpc, s)
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// ProcessPayment handles the process-payment RPC.
func (s *Server) ProcessPayment(ctx context.Context, req *rpc.PaymentRequest) (*rpc.PaymentResponse, error) {
	txn, msg := s.service.ProcessPayment(req.UserID, req.AmountCents, req.Currency, req.CardNumber)
	metrics.PaymentsTotal.WithLabelValues(string(txn.Status)).Inc()
	return &rpc.PaymentResponse{
		Success:       txn.Status == types.TransactionCompleted,
		TransactionID: txn.TransactionID,
		Status:        string(txn.Status),
		Message:       msg,
	}, nil
}

// QueryTransaction handles the query-transaction RPC.
func (s *Server) QueryTransaction(ctx context.Context, req *rpc.QueryTransactionRequest) (*rpc.QueryTransactionResponse, error) {
	txn, ok := s.service.QueryTransaction(req.TransactionID)
	if !ok {
		return &rpc.QueryTransactionResponse{
			TransactionID: req.TransactionID,
			Status:        string(types.TransactionNotFound),
		}, nil
	}
	return &rpc.QueryTransactionResponse{
		TransactionID: txn.TransactionID,
		Status:        string(txn.Status),
		AmountCents:   txn.AmountCents,
		Currency:      txn.Currency,
		CreatedAt:     txn.CreatedAt.Unix(),
	}, nil
}
