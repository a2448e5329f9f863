package api

import (
	"fmt"
	"testing"

	"github.com/ticketmesh/ticketmesh/pkg/types"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestStatusFromErr(t *testing.T) {
	cases := []struct {
		err  error
		code codes.Code
	}{
		{types.ErrNotLeader, codes.FailedPrecondition},
		{types.ErrUnauthenticated, codes.Unauthenticated},
		{types.ErrPermissionDenied, codes.PermissionDenied},
		{types.ErrPaymentFailed, codes.Aborted},
		{types.ErrPeerUnavailable, codes.Unavailable},
		{types.ErrInvalidArgument, codes.InvalidArgument},
		{types.ErrUnknownShow, codes.NotFound},
		{types.ErrSeatOutOfRange, codes.OutOfRange},
		{types.ErrSeatTaken, codes.AlreadyExists},
		{types.ErrProposalTimeout, codes.Internal},
		{types.ErrLeadershipLost, codes.Internal},
		{types.ErrInternal, codes.Internal},
		{fmt.Errorf("wrapped: %w", types.ErrNotLeader), codes.FailedPrecondition},
		{fmt.Errorf("plain"), codes.Internal},
	}

	for _, tc := range cases {
		if got := status.Code(statusFromErr(tc.err)); got != tc.code {
			t.Errorf("statusFromErr(%v) = %s, want %s", tc.err, got, tc.code)
		}
	}
}

func TestChargedButUnconfirmedIsNotRetryable(t *testing.T) {
	// A proposal that times out after the charge leaves the booking in an
	// unknown state; the mapped code must not be one the client rotates on,
	// or a second node would charge the card again.
	err := fmt.Errorf("reservation not confirmed (payment txn-1 was charged): %w", types.ErrProposalTimeout)
	if got := status.Code(statusFromErr(err)); got != codes.Internal {
		t.Fatalf("statusFromErr(%v) = %s, want Internal", err, got)
	}
	err = fmt.Errorf("reservation not confirmed (payment txn-2 was charged): %w", types.ErrLeadershipLost)
	if got := status.Code(statusFromErr(err)); got != codes.Internal {
		t.Fatalf("statusFromErr(%v) = %s, want Internal", err, got)
	}
}

func TestStatusFromErrKeepsMessage(t *testing.T) {
	st, ok := status.FromError(statusFromErr(types.ErrNotLeader))
	if !ok {
		t.Fatal("not a status error")
	}
	if st.Message() != types.ErrNotLeader.Error() {
		t.Fatalf("message = %q, want %q", st.Message(), types.ErrNotLeader.Error())
	}
}
