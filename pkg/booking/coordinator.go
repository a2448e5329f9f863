package booking

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/events"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/metrics"
	"github.com/ticketmesh/ticketmesh/pkg/raft"
	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"github.com/ticketmesh/ticketmesh/pkg/seats"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

// DefaultCurrency is charged for all bookings.
const DefaultCurrency = "USD"

// AuthClient is the slice of the auth facade the coordinator needs.
// *rpc.AuthClient satisfies it.
type AuthClient interface {
	ValidateSession(ctx context.Context, in *rpc.ValidateSessionRequest) (*rpc.ValidateSessionResponse, error)
}

// PaymentClient is the slice of the payment facade the coordinator needs.
// *rpc.PaymentClient satisfies it.
type PaymentClient interface {
	ProcessPayment(ctx context.Context, in *rpc.PaymentRequest) (*rpc.PaymentResponse, error)
}

// Coordinator drives the booking workflow: session validation, leadership
// check, seat pre-check, payment, and finally the replicated reservation.
// Only the reservation itself goes through consensus; auth and payment are
// side effects coordinated around it.
type Coordinator struct {
	node    *raft.Node
	machine *seats.StateMachine
	auth    AuthClient
	payment PaymentClient
	broker  *events.Broker
	logger  zerolog.Logger
}

// NewCoordinator wires the coordinator to a consensus node, its state
// machine, and the two facade clients. The broker may be nil.
func NewCoordinator(node *raft.Node, machine *seats.StateMachine, auth AuthClient, payment PaymentClient, broker *events.Broker) *Coordinator {
	return &Coordinator{
		node:    node,
		machine: machine,
		auth:    auth,
		payment: payment,
		broker:  broker,
		logger:  log.WithComponent("booking"),
	}
}

// bookingFailed counts a failed attempt and announces it on the broker.
func (c *Coordinator) bookingFailed(reason, showID string, seatID int) {
	metrics.BookingsTotal.WithLabelValues(reason).Inc()
	if c.broker == nil {
		return
	}
	c.broker.Publish(&events.Event{
		ID:      uuid.New().String(),
		Type:    events.EventBookingFailed,
		Message: "booking failed: " + reason,
		Metadata: map[string]string{
			"reason":  reason,
			"show_id": showID,
			"seat_id": strconv.Itoa(seatID),
		},
	})
}

func (c *Coordinator) validateSession(ctx context.Context, token string) (string, error) {
	resp, err := c.auth.ValidateSession(ctx, &rpc.ValidateSessionRequest{Token: token})
	if err != nil {
		return "", fmt.Errorf("%w: authentication service unreachable: %v", types.ErrPeerUnavailable, err)
	}
	if !resp.Valid {
		return "", types.ErrUnauthenticated
	}
	return resp.UserID, nil
}

// BookSeat runs the full booking workflow for one seat. On success it
// returns the committed seat record and the booking id (the payment
// transaction id). The payment is charged before the reservation is
// proposed; if the seat is lost to a concurrent booking after the charge,
// the returned error says so and carries the transaction id.
func (c *Coordinator) BookSeat(ctx context.Context, token, showID string, seatID int, cardNumber string) (*types.SeatRecord, string, error) {
	userID, err := c.validateSession(ctx, token)
	if err != nil {
		c.bookingFailed("unauthenticated", showID, seatID)
		return nil, "", err
	}

	if !c.node.IsLeader() {
		c.bookingFailed("not_leader", showID, seatID)
		return nil, "", types.ErrNotLeader
	}

	price, ok := c.machine.ShowPrice(showID)
	if !ok {
		c.bookingFailed("unknown_show", showID, seatID)
		return nil, "", fmt.Errorf("%w: %s", types.ErrUnknownShow, showID)
	}

	// Pre-check before charging. This is advisory only; the committed
	// reservation is re-verified after apply.
	record, ok := c.machine.QuerySeat(showID, seatID)
	if !ok {
		c.bookingFailed("out_of_range", showID, seatID)
		return nil, "", fmt.Errorf("%w: seat %d of show %s", types.ErrSeatOutOfRange, seatID, showID)
	}
	if record.Reserved {
		c.bookingFailed("seat_taken", showID, seatID)
		return nil, "", fmt.Errorf("%w: seat %d of show %s", types.ErrSeatTaken, seatID, showID)
	}

	payResp, err := c.payment.ProcessPayment(ctx, &rpc.PaymentRequest{
		UserID:      userID,
		AmountCents: price,
		Currency:    DefaultCurrency,
		CardNumber:  cardNumber,
	})
	if err != nil {
		c.bookingFailed("payment_unreachable", showID, seatID)
		return nil, "", fmt.Errorf("%w: payment service unreachable: %v", types.ErrPeerUnavailable, err)
	}
	if !payResp.Success {
		c.logger.Info().
			Str("user_id", userID).
			Str("show_id", showID).
			Int("seat_id", seatID).
			Str("transaction_id", payResp.TransactionID).
			Msg("payment declined")
		c.bookingFailed("payment_failed", showID, seatID)
		return nil, "", fmt.Errorf("%w: %s", types.ErrPaymentFailed, payResp.Message)
	}

	// The transaction id doubles as the booking id from here on.
	blog := log.WithBookingID(payResp.TransactionID)

	cmd := seats.Command{
		Type:       seats.CmdReserve,
		ShowID:     showID,
		SeatID:     seatID,
		UserID:     userID,
		BookingID:  payResp.TransactionID,
		ReservedAt: time.Now().UnixMilli(),
	}
	payload, err := cmd.Encode()
	if err != nil {
		c.bookingFailed("internal", showID, seatID)
		return nil, "", fmt.Errorf("%w: %v", types.ErrInternal, err)
	}

	if _, err := c.node.Propose(ctx, payload); err != nil {
		blog.Error().Err(err).
			Str("show_id", showID).
			Int("seat_id", seatID).
			Msg("reservation proposal failed after charge")
		c.bookingFailed("proposal_failed", showID, seatID)
		return nil, "", fmt.Errorf("reservation not confirmed (payment %s was charged): %w", payResp.TransactionID, err)
	}

	// The command committed, but a concurrent booking may have won the seat.
	// What the state machine holds after apply is the authoritative outcome.
	committed, ok := c.machine.QuerySeat(showID, seatID)
	if !ok || !committed.Reserved || committed.BookingID != payResp.TransactionID {
		c.bookingFailed("lost_race", showID, seatID)
		return nil, "", fmt.Errorf("%w: seat %d of show %s (payment %s was charged)",
			types.ErrSeatTaken, seatID, showID, payResp.TransactionID)
	}

	blog.Info().
		Str("user_id", userID).
		Str("show_id", showID).
		Int("seat_id", seatID).
		Msg("seat booked")
	metrics.BookingsTotal.WithLabelValues("success").Inc()
	return &committed, payResp.TransactionID, nil
}

// AddShow creates or resizes a show. Admin only.
func (c *Coordinator) AddShow(ctx context.Context, token, showID string, totalSeats int, priceCents int64) error {
	userID, err := c.validateSession(ctx, token)
	if err != nil {
		return err
	}
	if userID != types.AdminUserID {
		return types.ErrPermissionDenied
	}
	if !c.node.IsLeader() {
		return types.ErrNotLeader
	}
	if showID == "" || totalSeats <= 0 || priceCents < 0 {
		return fmt.Errorf("%w: show id and a positive seat count are required", types.ErrInvalidArgument)
	}

	cmd := seats.Command{
		Type:       seats.CmdAddShow,
		ShowID:     showID,
		TotalSeats: totalSeats,
		PriceCents: priceCents,
	}
	payload, err := cmd.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInternal, err)
	}
	if _, err := c.node.Propose(ctx, payload); err != nil {
		return err
	}

	logger := log.WithShowID(showID)
	logger.Info().Int("total_seats", totalSeats).Msg("show added")
	return nil
}

// ReleaseSeat frees a reserved seat without refunding the charge. Admin only.
func (c *Coordinator) ReleaseSeat(ctx context.Context, token, showID string, seatID int) error {
	userID, err := c.validateSession(ctx, token)
	if err != nil {
		return err
	}
	if userID != types.AdminUserID {
		return types.ErrPermissionDenied
	}
	if !c.node.IsLeader() {
		return types.ErrNotLeader
	}

	record, ok := c.machine.QuerySeat(showID, seatID)
	if !ok {
		if _, priced := c.machine.ShowPrice(showID); !priced {
			return fmt.Errorf("%w: %s", types.ErrUnknownShow, showID)
		}
		return fmt.Errorf("%w: seat %d of show %s", types.ErrSeatOutOfRange, seatID, showID)
	}
	if !record.Reserved {
		return nil // nothing to release
	}

	cmd := seats.Command{
		Type:   seats.CmdRelease,
		ShowID: showID,
		SeatID: seatID,
	}
	payload, err := cmd.Encode()
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrInternal, err)
	}
	if _, err := c.node.Propose(ctx, payload); err != nil {
		return err
	}

	c.logger.Info().Str("show_id", showID).Int("seat_id", seatID).Msg("seat released")
	return nil
}

// QuerySeat reads one seat from the local replica.
func (c *Coordinator) QuerySeat(showID string, seatID int) (types.SeatRecord, bool) {
	return c.machine.QuerySeat(showID, seatID)
}

// ListSeats pages through a show's seats on the local replica.
func (c *Coordinator) ListSeats(showID string, pageSize, pageToken int) ([]types.SeatRecord, int, bool) {
	return c.machine.ListSeats(showID, pageSize, pageToken)
}

// ListShows returns the local replica's catalog summary.
func (c *Coordinator) ListShows() []types.ShowInfo {
	return c.machine.ListShows()
}

// Status reports the consensus node's view of the cluster.
func (c *Coordinator) Status() raft.Status {
	return c.node.Status()
}
