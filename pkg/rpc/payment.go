package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// PaymentServiceName is the full gRPC service name for the payment facade.
const PaymentServiceName = "ticketmesh.Payment"

// PaymentServer is the server contract for the payment facade.
type PaymentServer interface {
	ProcessPayment(ctx context.Context, req *PaymentRequest) (*PaymentResponse, error)
	QueryTransaction(ctx context.Context, req *QueryTransactionRequest) (*QueryTransactionResponse, error)
}

// RegisterPaymentServer registers a PaymentServer with a gRPC server.
func RegisterPaymentServer(s *grpc.Server, srv PaymentServer) {
	s.RegisterService(&paymentServiceDesc, srv)
}

var paymentServiceDesc = grpc.ServiceDesc{
	ServiceName: PaymentServiceName,
	HandlerType: (*PaymentServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ProcessPayment", Handler: paymentProcessPaymentHandler},
		{MethodName: "QueryTransaction", Handler: paymentQueryTransactionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketmesh/payment",
}

func paymentProcessPaymentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PaymentRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServer).ProcessPayment(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PaymentServiceName + "/ProcessPayment"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServer).ProcessPayment(ctx, req.(*PaymentRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func paymentQueryTransactionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(QueryTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PaymentServer).QueryTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + PaymentServiceName + "/QueryTransaction"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PaymentServer).QueryTransaction(ctx, req.(*QueryTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PaymentClient is the client for the payment facade.
type PaymentClient struct {
	cc *grpc.ClientConn
}

// NewPaymentClient creates a payment client over an existing connection.
func NewPaymentClient(cc *grpc.ClientConn) *PaymentClient {
	return &PaymentClient{cc: cc}
}

func (c *PaymentClient) ProcessPayment(ctx context.Context, in *PaymentRequest) (*PaymentResponse, error) {
	out := new(PaymentResponse)
	if err := c.cc.Invoke(ctx, "/"+PaymentServiceName+"/ProcessPayment", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PaymentClient) QueryTransaction(ctx context.Context, in *QueryTransactionRequest) (*QueryTransactionResponse, error) {
	out := new(QueryTransactionResponse)
	if err := c.cc.Invoke(ctx, "/"+PaymentServiceName+"/QueryTransaction", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
