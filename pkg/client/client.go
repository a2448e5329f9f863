package client

import (
	"context"
	"fmt"
	"sync"

	"github.com/ticketmesh/ticketmesh/pkg/rpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client talks to a booking cluster. Writes must land on the leader, so the
// client walks the peer list, retrying on the codes that mean "wrong node"
// (FailedPrecondition) or "node down" (Unavailable), and remembers which
// address answered last so later calls go straight there.
type Client struct {
	mu        sync.Mutex
	addrs     []string
	preferred string
	conns     map[string]*grpc.ClientConn
}

// New creates a client for the given node addresses.
func New(addrs []string) *Client {
	return &Client{
		addrs: append([]string(nil), addrs...),
		conns: make(map[string]*grpc.ClientConn),
	}
}

// Close tears down all node connections.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, conn := range c.conns {
		conn.Close()
		delete(c.conns, addr)
	}
}

func (c *Client) booking(addr string) (*rpc.BookingClient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	conn, ok := c.conns[addr]
	if !ok {
		var err error
		conn, err = rpc.Dial(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
		}
		c.conns[addr] = conn
	}
	return rpc.NewBookingClient(conn), nil
}

// order returns the peer list with the preferred address first.
func (c *Client) order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.preferred == "" {
		return append([]string(nil), c.addrs...)
	}
	ordered := make([]string, 0, len(c.addrs))
	ordered = append(ordered, c.preferred)
	for _, addr := range c.addrs {
		if addr != c.preferred {
			ordered = append(ordered, addr)
		}
	}
	return ordered
}

func (c *Client) setPreferred(addr string) {
	c.mu.Lock()
	c.preferred = addr
	c.mu.Unlock()
}

// retryable reports whether an error means the call may succeed on a
// different node.
func retryable(err error) bool {
	switch status.Code(err) {
	case codes.FailedPrecondition, codes.Unavailable:
		return true
	}
	return false
}

// eachNode invokes fn against nodes in preference order until one call
// returns a non-retryable result.
func (c *Client) eachNode(fn func(bc *rpc.BookingClient) error) error {
	var lastErr error
	for _, addr := range c.order() {
		bc, err := c.booking(addr)
		if err != nil {
			lastErr = err
			continue
		}
		if err := fn(bc); err != nil {
			if retryable(err) {
				lastErr = err
				continue
			}
			return err
		}
		c.setPreferred(addr)
		return nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no node addresses configured")
	}
	return fmt.Errorf("no node accepted the request: %w", lastErr)
}

// AddShow creates or resizes a show on the leader.
func (c *Client) AddShow(ctx context.Context, token, showID string, totalSeats int, priceCents int64) (*rpc.AddShowResponse, error) {
	var resp *rpc.AddShowResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.AddShow(ctx, &rpc.AddShowRequest{
			SessionToken: token,
			ShowID:       showID,
			TotalSeats:   totalSeats,
			PriceCents:   priceCents,
		})
		return err
	})
	return resp, err
}

// BookSeat books a seat through the leader.
func (c *Client) BookSeat(ctx context.Context, token, showID string, seatID int, cardNumber string) (*rpc.BookSeatResponse, error) {
	var resp *rpc.BookSeatResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.BookSeat(ctx, &rpc.BookSeatRequest{
			SessionToken: token,
			ShowID:       showID,
			SeatID:       seatID,
			CardNumber:   cardNumber,
		})
		return err
	})
	return resp, err
}

// ReleaseSeat frees a seat through the leader. Admin only.
func (c *Client) ReleaseSeat(ctx context.Context, token, showID string, seatID int) (*rpc.ReleaseSeatResponse, error) {
	var resp *rpc.ReleaseSeatResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.ReleaseSeat(ctx, &rpc.ReleaseSeatRequest{
			SessionToken: token,
			ShowID:       showID,
			SeatID:       seatID,
		})
		return err
	})
	return resp, err
}

// QuerySeat reads one seat from any reachable node.
func (c *Client) QuerySeat(ctx context.Context, showID string, seatID int) (*rpc.QuerySeatResponse, error) {
	var resp *rpc.QuerySeatResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.QuerySeat(ctx, &rpc.QuerySeatRequest{ShowID: showID, SeatID: seatID})
		return err
	})
	return resp, err
}

// ListSeats pages through a show's seats from any reachable node.
func (c *Client) ListSeats(ctx context.Context, showID string, pageSize, pageToken int) (*rpc.ListSeatsResponse, error) {
	var resp *rpc.ListSeatsResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.ListSeats(ctx, &rpc.ListSeatsRequest{
			ShowID:    showID,
			PageSize:  pageSize,
			PageToken: pageToken,
		})
		return err
	})
	return resp, err
}

// ListShows returns the catalog summary from any reachable node.
func (c *Client) ListShows(ctx context.Context) (*rpc.ListShowsResponse, error) {
	var resp *rpc.ListShowsResponse
	err := c.eachNode(func(bc *rpc.BookingClient) error {
		var err error
		resp, err = bc.ListShows(ctx, &rpc.ListShowsRequest{})
		return err
	})
	return resp, err
}

// ClusterStatus collects the consensus status of every configured node.
// Unreachable nodes are reported with an error string in place of a role.
func (c *Client) ClusterStatus(ctx context.Context) map[string]*rpc.ClusterStatusResponse {
	statuses := make(map[string]*rpc.ClusterStatusResponse)
	for _, addr := range c.order() {
		bc, err := c.booking(addr)
		if err != nil {
			statuses[addr] = nil
			continue
		}
		resp, err := bc.ClusterStatus(ctx, &rpc.ClusterStatusRequest{})
		if err != nil {
			statuses[addr] = nil
			continue
		}
		statuses[addr] = resp
	}
	return statuses
}
