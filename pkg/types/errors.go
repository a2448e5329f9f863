package types

import "errors"

// Error taxonomy shared across the coordinator, the consensus node, and the
// RPC surface. The api package maps these onto gRPC status codes; peer RPC
// errors never reach clients.
var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrUnauthenticated  = errors.New("invalid or expired session token")
	ErrPermissionDenied = errors.New("admin access required")
	ErrNotLeader        = errors.New("not the Raft leader")
	ErrUnknownShow      = errors.New("unknown show")
	ErrSeatOutOfRange   = errors.New("seat id out of range")
	ErrSeatTaken        = errors.New("seat is already reserved")
	ErrPaymentFailed    = errors.New("payment failed")
	ErrLeadershipLost   = errors.New("leadership lost before commit")
	ErrProposalTimeout  = errors.New("proposal timed out")
	ErrPeerUnavailable  = errors.New("peer unavailable")
	ErrInternal         = errors.New("internal error")
)
