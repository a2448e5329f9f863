package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// BookingServiceName is the full gRPC service name for the booking surface.
const BookingServiceName = "ticketmesh.Booking"

// BookingServer is the server contract for the booking RPC surface.
type BookingServer interface {
	AddShow(ctx context.Context, req *AddShowRequest) (*AddShowResponse, error)
	BookSeat(ctx context.Context, req *BookSeatRequest) (*BookSeatResponse, error)
	ReleaseSeat(ctx context.Context, req *ReleaseSeatRequest) (*ReleaseSeatResponse, error)
	QuerySeat(ctx context.Context, req *QuerySeatRequest) (*QuerySeatResponse, error)
	ListSeats(ctx context.Context, req *ListSeatsRequest) (*ListSeatsResponse, error)
	ListShows(ctx context.Context, req *ListShowsRequest) (*ListShowsResponse, error)
	ClusterStatus(ctx context.Context, req *ClusterStatusRequest) (*ClusterStatusResponse, error)
}

// RegisterBookingServer registers a BookingServer with a gRPC server.
func RegisterBookingServer(s *grpc.Server, srv BookingServer) {
	s.RegisterService(&bookingServiceDesc, srv)
}

var bookingServiceDesc = grpc.ServiceDesc{
	ServiceName: BookingServiceName,
	HandlerType: (*BookingServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddShow", Handler: bookingAddShowHandler},
		{MethodName: "BookSeat", Handler: bookingBookSeatHandler},
		{MethodName: "ReleaseSeat", Handler: bookingReleaseSeatHandler},
		{MethodName: "QuerySeat", Handler: bookingQuerySeatHandler},
		{MethodName: "ListSeats", Handler: bookingListSeatsHandler},
		{MethodName: "ListShows", Handler: bookingListShowsHandler},
		{MethodName: "ClusterStatus", Handler: bookingClusterStatusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketmesh/booking",
}

func bookingAddShowHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(AddShowRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).AddShow(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/AddShow"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).AddShow(ctx, req.(*AddShowRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingBookSeatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(BookSeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).BookSeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/BookSeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).BookSeat(ctx, req.(*BookSeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingReleaseSeatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ReleaseSeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).ReleaseSeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/ReleaseSeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).ReleaseSeat(ctx, req.(*ReleaseSeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingQuerySeatHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(QuerySeatRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).QuerySeat(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/QuerySeat"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).QuerySeat(ctx, req.(*QuerySeatRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingListSeatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListSeatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).ListSeats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/ListSeats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).ListSeats(ctx, req.(*ListSeatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingListShowsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListShowsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).ListShows(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/ListShows"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).ListShows(ctx, req.(*ListShowsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func bookingClusterStatusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ClusterStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(BookingServer).ClusterStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + BookingServiceName + "/ClusterStatus"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(BookingServer).ClusterStatus(ctx, req.(*ClusterStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// BookingClient is the client for the booking RPC surface.
type BookingClient struct {
	cc *grpc.ClientConn
}

// NewBookingClient creates a booking client over an existing connection.
func NewBookingClient(cc *grpc.ClientConn) *BookingClient {
	return &BookingClient{cc: cc}
}

func (c *BookingClient) AddShow(ctx context.Context, in *AddShowRequest) (*AddShowResponse, error) {
	out := new(AddShowResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/AddShow", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) BookSeat(ctx context.Context, in *BookSeatRequest) (*BookSeatResponse, error) {
	out := new(BookSeatResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/BookSeat", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ReleaseSeat(ctx context.Context, in *ReleaseSeatRequest) (*ReleaseSeatResponse, error) {
	out := new(ReleaseSeatResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/ReleaseSeat", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) QuerySeat(ctx context.Context, in *QuerySeatRequest) (*QuerySeatResponse, error) {
	out := new(QuerySeatResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/QuerySeat", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ListSeats(ctx context.Context, in *ListSeatsRequest) (*ListSeatsResponse, error) {
	out := new(ListSeatsResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/ListSeats", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ListShows(ctx context.Context, in *ListShowsRequest) (*ListShowsResponse, error) {
	out := new(ListShowsResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/ListShows", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *BookingClient) ClusterStatus(ctx context.Context, in *ClusterStatusRequest) (*ClusterStatusResponse, error) {
	out := new(ClusterStatusResponse)
	if err := c.cc.Invoke(ctx, "/"+BookingServiceName+"/ClusterStatus", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
