package rpc

import "github.com/ticketmesh/ticketmesh/pkg/types"

// Auth service messages

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Session *types.Session `json:"session,omitempty"`
}

type ValidateSessionRequest struct {
	Token string `json:"token"`
}

type ValidateSessionResponse struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
}

// Payment service messages

type PaymentRequest struct {
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
	CardNumber  string `json:"card_number"`
}

type PaymentResponse struct {
	Success       bool   `json:"success"`
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

type QueryTransactionRequest struct {
	TransactionID string `json:"transaction_id"`
}

type QueryTransactionResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	AmountCents   int64  `json:"amount_cents,omitempty"`
	Currency      string `json:"currency,omitempty"`
	CreatedAt     int64  `json:"created_at,omitempty"` // unix seconds
}

// Booking service messages

type AddShowRequest struct {
	SessionToken string `json:"session_token"`
	ShowID       string `json:"show_id"`
	TotalSeats   int    `json:"total_seats"`
	PriceCents   int64  `json:"price_cents"`
}

type AddShowResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type BookSeatRequest struct {
	SessionToken string `json:"session_token"`
	ShowID       string `json:"show_id"`
	SeatID       int    `json:"seat_id"`
	CardNumber   string `json:"card_number"`
}

type BookSeatResponse struct {
	Success   bool              `json:"success"`
	Message   string            `json:"message"`
	BookingID string            `json:"booking_id"`
	Seat      *types.SeatRecord `json:"seat,omitempty"`
}

type ReleaseSeatRequest struct {
	SessionToken string `json:"session_token"`
	ShowID       string `json:"show_id"`
	SeatID       int    `json:"seat_id"`
}

type ReleaseSeatResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type QuerySeatRequest struct {
	ShowID string `json:"show_id"`
	SeatID int    `json:"seat_id"`
}

type QuerySeatResponse struct {
	Available bool              `json:"available"`
	Seat      *types.SeatRecord `json:"seat,omitempty"`
}

type ListSeatsRequest struct {
	ShowID    string `json:"show_id"`
	PageSize  int    `json:"page_size"`
	PageToken int    `json:"page_token"`
}

type ListSeatsResponse struct {
	Seats         []types.SeatRecord `json:"seats"`
	NextPageToken int                `json:"next_page_token"`
}

type ListShowsRequest struct{}

type ListShowsResponse struct {
	Shows []types.ShowInfo `json:"shows"`
}

// ClusterStatusRequest asks a node for its consensus status.
type ClusterStatusRequest struct{}

// ClusterStatusResponse reports a node's view of the cluster.
type ClusterStatusResponse struct {
	NodeID       string `json:"node_id"`
	Role         string `json:"role"`
	Term         uint64 `json:"term"`
	LeaderID     string `json:"leader_id,omitempty"`
	CommitIndex  uint64 `json:"commit_index"`
	AppliedIndex uint64 `json:"applied_index"`
	LastLogIndex uint64 `json:"last_log_index"`
}
