package rpc

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketmesh/ticketmesh/pkg/raft"
	"google.golang.org/grpc"
)

// RaftServiceName is the full gRPC service name for the consensus peer RPCs.
const RaftServiceName = "ticketmesh.Raft"

// RaftServer is the server contract for consensus peer RPCs. *raft.Node
// satisfies it directly.
type RaftServer interface {
	RequestVote(ctx context.Context, req *raft.VoteRequest) (*raft.VoteResponse, error)
	AppendEntries(ctx context.Context, req *raft.AppendRequest) (*raft.AppendResponse, error)
}

// RegisterRaftServer registers a RaftServer with a gRPC server.
func RegisterRaftServer(s *grpc.Server, srv RaftServer) {
	s.RegisterService(&raftServiceDesc, srv)
}

var raftServiceDesc = grpc.ServiceDesc{
	ServiceName: RaftServiceName,
	HandlerType: (*RaftServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "RequestVote", Handler: raftRequestVoteHandler},
		{MethodName: "AppendEntries", Handler: raftAppendEntriesHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ticketmesh/raft",
}

func raftRequestVoteHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(raft.VoteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).RequestVote(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RaftServiceName + "/RequestVote"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).RequestVote(ctx, req.(*raft.VoteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func raftAppendEntriesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(raft.AppendRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RaftServer).AppendEntries(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + RaftServiceName + "/AppendEntries"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RaftServer).AppendEntries(ctx, req.(*raft.AppendRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// RaftTransport implements raft.Transport over gRPC, maintaining one shared
// connection per peer.
type RaftTransport struct {
	mu    sync.Mutex
	addrs map[string]string
	conns map[string]*grpc.ClientConn
}

// NewRaftTransport creates a transport for the given peer id -> address map.
func NewRaftTransport(addrs map[string]string) *RaftTransport {
	copied := make(map[string]string, len(addrs))
	for id, addr := range addrs {
		copied[id] = addr
	}
	return &RaftTransport{
		addrs: copied,
		conns: make(map[string]*grpc.ClientConn),
	}
}

// Close tears down all peer connections.
func (t *RaftTransport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for id, conn := range t.conns {
		conn.Close()
		delete(t.conns, id)
	}
}

func (t *RaftTransport) conn(peerID string) (*grpc.ClientConn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if conn, ok := t.conns[peerID]; ok {
		return conn, nil
	}
	addr, ok := t.addrs[peerID]
	if !ok {
		return nil, fmt.Errorf("unknown peer %q", peerID)
	}
	conn, err := Dial(addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial peer %s: %w", peerID, err)
	}
	t.conns[peerID] = conn
	return conn, nil
}

// RequestVote sends a request-vote RPC to a peer.
func (t *RaftTransport) RequestVote(ctx context.Context, peerID string, req *raft.VoteRequest) (*raft.VoteResponse, error) {
	conn, err := t.conn(peerID)
	if err != nil {
		return nil, err
	}
	out := new(raft.VoteResponse)
	if err := conn.Invoke(ctx, "/"+RaftServiceName+"/RequestVote", req, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AppendEntries sends an append-entries RPC to a peer.
func (t *RaftTransport) AppendEntries(ctx context.Context, peerID string, req *raft.AppendRequest) (*raft.AppendResponse, error) {
	conn, err := t.conn(peerID)
	if err != nil {
		return nil, err
	}
	out := new(raft.AppendResponse)
	if err := conn.Invoke(ctx, "/"+RaftServiceName+"/AppendEntries", req, out); err != nil {
		return nil, err
	}
	return out, nil
}
