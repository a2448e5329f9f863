package rpc

import (
	"context"

	"google.golang.org/grpc"
)

// AuthServiceName is the full gRPC service name for the auth facade.
const AuthServiceName = "ticketmesh.Auth"

// AuthServer is the server contract for the auth facade.
type AuthServer interface {
	Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error)
	ValidateSession(ctx context.Context, req *ValidateSessionRequest) (*ValidateSessionResponse, error)
}

// RegisterAuthServer registers an AuthServer with a gRPC server.
func RegisterAuthServer(s *grpc.Server, srv AuthServer) {
	s.RegisterService(&authServiceDesc, srv)
}

var authServiceDesc = grpc.ServiceDesc{
	ServiceName: AuthServiceName,
	HandlerType: (*AuthServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Register", Handler: authRegisterHandler},
		{MethodName: "Login", Handler: authLoginHandler},
		{MethodName: "ValidateSession", Handler: authValidateSessionHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketmesh/auth",
}

func authRegisterHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RegisterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Register(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + AuthServiceName + "/Register"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).Register(ctx, req.(*RegisterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func authLoginHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LoginRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).Login(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + AuthServiceName + "/Login"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).Login(ctx, req.(*LoginRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func authValidateSessionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ValidateSessionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(AuthServer).ValidateSession(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + AuthServiceName + "/ValidateSession"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(AuthServer).ValidateSession(ctx, req.(*ValidateSessionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// AuthClient is the client for the auth facade.
type AuthClient struct {
	cc *grpc.ClientConn
}

// NewAuthClient creates an auth client over an existing connection.
func NewAuthClient(cc *grpc.ClientConn) *AuthClient {
	return &AuthClient{cc: cc}
}

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest) (*RegisterResponse, error) {
	out := new(RegisterResponse)
	if err := c.cc.Invoke(ctx, "/"+AuthServiceName+"/Register", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest) (*LoginResponse, error) {
	out := new(LoginResponse)
	if err := c.cc.Invoke(ctx, "/"+AuthServiceName+"/Login", in, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) ValidateSession(ctx context.Context, in *ValidateSessionRequest) (*ValidateSessionResponse, error) {
	out := new(ValidateSessionResponse)
	if err := c.cc.Invoke(ctx, "/"+AuthServiceName+"/ValidateSession", in, out); err != nil {
		return nil, err
	}
	return out, nil
}
