package api

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/booking"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"github.com/ticketmesh/ticketmesh/pkg/types"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Server is the client-facing gRPC surface of a node. It hosts the booking
// service and the consensus peer service on the same listener.
type Server struct {
	coordinator *booking.Coordinator
	raft        rpc.RaftServer
	grpc        *grpc.Server
	logger      zerolog.Logger
}

// NewServer creates the node's gRPC server.
func NewServer(coordinator *booking.Coordinator, raft rpc.RaftServer) *Server {
	return &Server{
		coordinator: coordinator,
		raft:        raft,
		grpc:        grpc.NewServer(grpc.UnaryInterceptor(metricsInterceptor)),
		logger:      log.WithComponent("api"),
	}
}

// Start starts serving on addr. It blocks until Stop is called.
func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}

	rpc.RegisterBookingServer(s.grpc, s)
	rpc.RegisterRaftServer(s.grpc, s.raft)

	s.logger.Info().Str("addr", addr).Msg("gRPC server listening")
	return s.grpc.Serve(lis)
}

// Stop gracefully stops the server.
func (s *Server) Stop() {
	if s.grpc != nil {
		s.grpc.GracefulStop()
	}
}

// statusFromErr maps the coordinator's sentinel errors to gRPC codes.
// Clients retry against another node on FailedPrecondition and Unavailable,
// so any failure whose side effects may already be in flight must map to
// something else.
func statusFromErr(err error) error {
	var code codes.Code
	switch {
	case errors.Is(err, types.ErrNotLeader):
		code = codes.FailedPrecondition
	case errors.Is(err, types.ErrUnauthenticated):
		code = codes.Unauthenticated
	case errors.Is(err, types.ErrPermissionDenied):
		code = codes.PermissionDenied
	case errors.Is(err, types.ErrPaymentFailed):
		code = codes.Aborted
	case errors.Is(err, types.ErrPeerUnavailable):
		code = codes.Unavailable
	case errors.Is(err, types.ErrInvalidArgument):
		code = codes.InvalidArgument
	case errors.Is(err, types.ErrUnknownShow):
		code = codes.NotFound
	case errors.Is(err, types.ErrSeatOutOfRange):
		code = codes.OutOfRange
	case errors.Is(err, types.ErrSeatTaken):
		code = codes.AlreadyExists
	case errors.Is(err, types.ErrProposalTimeout), errors.Is(err, types.ErrLeadershipLost):
		// The card may already be charged and the proposal may still
		// commit. The outcome is unknown, so the client must not replay
		// the booking on another node.
		code = codes.Internal
	default:
		code = codes.Internal
	}
	return status.Error(code, err.Error())
}

func metricsInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	timer := metrics.NewTimer(info.FullMethod)
	resp, err := handler(ctx, req)
	timer.ObserveDuration()
	metrics.APIRequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

// AddShow handles the add-show RPC. Admin only, leader only.
func (s *Server) AddShow(ctx context.Context, req *rpc.AddShowRequest) (*rpc.AddShowResponse, error) {
	if err := s.coordinator.AddShow(ctx, req.SessionToken, req.ShowID, req.TotalSeats, req.PriceCents); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpc.AddShowResponse{
		Success: true,
		Message: fmt.Sprintf("Show %s added with %d seats.", req.ShowID, req.TotalSeats),
	}, nil
}

// BookSeat handles the book-seat RPC. A seat lost to a concurrent booking
// comes back as an unsuccessful response rather than an RPC error; every
// other failure carries a status code the client can act on.
func (s *Server) BookSeat(ctx context.Context, req *rpc.BookSeatRequest) (*rpc.BookSeatResponse, error) {
	seat, bookingID, err := s.coordinator.BookSeat(ctx, req.SessionToken, req.ShowID, req.SeatID, req.CardNumber)
	if err != nil {
		if errors.Is(err, types.ErrSeatTaken) {
			return &rpc.BookSeatResponse{Success: false, Message: err.Error()}, nil
		}
		return nil, statusFromErr(err)
	}
	return &rpc.BookSeatResponse{
		Success:   true,
		Message:   fmt.Sprintf("Seat %d of show %s booked.", req.SeatID, req.ShowID),
		BookingID: bookingID,
		Seat:      seat,
	}, nil
}

// ReleaseSeat handles the release-seat RPC. Admin only, leader only.
func (s *Server) ReleaseSeat(ctx context.Context, req *rpc.ReleaseSeatRequest) (*rpc.ReleaseSeatResponse, error) {
	if err := s.coordinator.ReleaseSeat(ctx, req.SessionToken, req.ShowID, req.SeatID); err != nil {
		return nil, statusFromErr(err)
	}
	return &rpc.ReleaseSeatResponse{
		Success: true,
		Message: fmt.Sprintf("Seat %d of show %s released.", req.SeatID, req.ShowID),
	}, nil
}

// QuerySeat handles the query-seat RPC. Served from the local replica.
func (s *Server) QuerySeat(ctx context.Context, req *rpc.QuerySeatRequest) (*rpc.QuerySeatResponse, error) {
	record, ok := s.coordinator.QuerySeat(req.ShowID, req.SeatID)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown seat %d of show %q", req.SeatID, req.ShowID)
	}
	return &rpc.QuerySeatResponse{
		Available: !record.Reserved,
		Seat:      &record,
	}, nil
}

// ListSeats handles the list-seats RPC. Served from the local replica.
func (s *Server) ListSeats(ctx context.Context, req *rpc.ListSeatsRequest) (*rpc.ListSeatsResponse, error) {
	records, next, ok := s.coordinator.ListSeats(req.ShowID, req.PageSize, req.PageToken)
	if !ok {
		return nil, status.Errorf(codes.NotFound, "unknown show %q", req.ShowID)
	}
	return &rpc.ListSeatsResponse{
		Seats:         records,
		NextPageToken: next,
	}, nil
}

// ListShows handles the list-shows RPC. Served from the local replica.
func (s *Server) ListShows(ctx context.Context, req *rpc.ListShowsRequest) (*rpc.ListShowsResponse, error) {
	return &rpc.ListShowsResponse{Shows: s.coordinator.ListShows()}, nil
}

// ClusterStatus handles the cluster-status RPC.
func (s *Server) ClusterStatus(ctx context.Context, req *rpc.ClusterStatusRequest) (*rpc.ClusterStatusResponse, error) {
	st := s.coordinator.Status()
	return &rpc.ClusterStatusResponse{
		NodeID:       st.ID,
		Role:         string(st.Role),
		Term:         st.Term,
		LeaderID:     st.LeaderID,
		CommitIndex:  st.CommitIndex,
		AppliedIndex: st.AppliedIndex,
		LastLogIndex: st.LastLogIndex,
	}, nil
}
