package seats

import (
	"encoding/json"
	"fmt"
)

// Command types carried in the replicated log.
const (
	CmdAddShow = "add_show"
	CmdReserve = "reserve"
	CmdRelease = "release"
)

// Command is the tagged union applied by the state machine. It is encoded
// as JSON on the wire and in the log. ReservedAt is assigned by the
// proposing leader so that apply never reads the wall clock and every
// replica derives the identical record.
type Command struct {
	Type       string `json:"type"`
	ShowID     string `json:"show_id"`
	SeatID     int    `json:"seat_id,omitempty"`
	TotalSeats int    `json:"total_seats,omitempty"`
	PriceCents int64  `json:"price_cents,omitempty"`
	UserID     string `json:"user_id,omitempty"`
	BookingID  string `json:"booking_id,omitempty"`
	ReservedAt int64  `json:"reserved_at,omitempty"` // unix milliseconds
}

// Encode serializes a command for the log.
func (c Command) Encode() ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode command: %w", err)
	}
	return data, nil
}

// DecodeCommand parses a command payload from the log.
func DecodeCommand(data []byte) (Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return Command{}, fmt.Errorf("failed to decode command: %w", err)
	}
	return c, nil
}
