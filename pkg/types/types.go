package types

import "time"

// AdminUserID is the distinguished user identity permitted to mutate the
// show catalog. The auth service guarantees the admin account always maps
// to this ID.
const AdminUserID = "00000000-0000-0000-0000-000000000000"

// SeatRecord is the replicated reservation state of a single seat.
// Seat IDs are 1-based and dense within [1, TotalSeats] of the owning show.
type SeatRecord struct {
	SeatID     int    `json:"seat_id"`
	ShowID     string `json:"show_id"`
	Reserved   bool   `json:"reserved"`
	ReservedBy string `json:"reserved_by,omitempty"`
	ReservedAt int64  `json:"reserved_at,omitempty"` // unix milliseconds
	BookingID  string `json:"booking_id,omitempty"`
	PriceCents int64  `json:"price_cents"`
}

// Show is a named container for a fixed number of seats with a single price.
// Shows come into existence only through a committed add_show command.
type Show struct {
	ShowID     string              `json:"show_id"`
	TotalSeats int                 `json:"total_seats"`
	PriceCents int64               `json:"price_cents"`
	Seats      map[int]*SeatRecord `json:"seats"`
}

// ShowInfo is the catalog summary returned by ListShows.
type ShowInfo struct {
	ShowID         string `json:"show_id"`
	TotalSeats     int    `json:"total_seats"`
	PriceCents     int64  `json:"price_cents"`
	AvailableSeats int    `json:"available_seats"`
	BookedSeats    int    `json:"booked_seats"`
}

// Session maps an opaque token to a user identity. Sessions are owned by
// the auth service and are not part of the replicated state.
type Session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// TransactionStatus is the terminal state of a payment attempt.
type TransactionStatus string

const (
	TransactionCompleted TransactionStatus = "COMPLETED"
	TransactionFailed    TransactionStatus = "FAILED"
	TransactionNotFound  TransactionStatus = "NOT_FOUND"
)

// Transaction is a persisted payment attempt. Its ID is threaded into the
// reservation command as the booking ID so the consensus log references a
// committed charge.
type Transaction struct {
	TransactionID string            `json:"transaction_id"`
	UserID        string            `json:"user_id"`
	AmountCents   int64             `json:"amount_cents"`
	Currency      string            `json:"currency"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	CardMasked    string            `json:"card_number_masked"`
}
