package seats

import (
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/ticketmesh/ticketmesh/pkg/events"
	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

// DefaultPageSize caps seat listing when the caller passes no page size.
const DefaultPageSize = 50

// StateMachine owns the show catalog and seat reservations. Apply is the
// single mutating entry point and is deterministic: the same command
// sequence yields the same catalog on every replica. Reads may be served on
// any node and reflect that node's apply progress.
type StateMachine struct {
	mu      sync.RWMutex
	shows   map[string]*types.Show
	applied uint64

	store  *Store
	broker *events.Broker
	logger zerolog.Logger
}

// NewStateMachine creates a state machine, restoring the catalog from the
// snapshot store when one is provided. Store and broker may be nil.
func NewStateMachine(store *Store, broker *events.Broker) (*StateMachine, error) {
	m := &StateMachine{
		shows:  make(map[string]*types.Show),
		store:  store,
		broker: broker,
		logger: log.WithComponent("seats"),
	}
	if store != nil {
		shows, applied, err := store.Load()
		if err != nil {
			return nil, err
		}
		m.shows = shows
		m.applied = applied
	}
	return m, nil
}

// AppliedIndex returns the highest log index applied locally.
func (m *StateMachine) AppliedIndex() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.applied
}

// Apply executes a committed command. Invalid or stale commands apply as
// no-ops: apply never fails, and a reserve for a taken seat changes nothing.
func (m *StateMachine) Apply(index uint64, command []byte) {
	cmd, err := DecodeCommand(command)

	m.mu.Lock()
	defer m.mu.Unlock()

	if index <= m.applied {
		return // already applied, duplicate delivery
	}

	if err != nil {
		m.logger.Warn().Err(err).Uint64("index", index).Msg("skipping malformed command")
		m.recordApplied(index, nil)
		return
	}

	var changed *types.Show
	switch cmd.Type {
	case CmdAddShow:
		changed = m.applyAddShow(cmd)
	case CmdReserve:
		changed = m.applyReserve(cmd)
	case CmdRelease:
		changed = m.applyRelease(cmd)
	default:
		m.logger.Warn().Str("type", cmd.Type).Uint64("index", index).Msg("unknown command type")
	}

	m.recordApplied(index, changed)
}

func (m *StateMachine) recordApplied(index uint64, changed *types.Show) {
	m.applied = index
	if m.store == nil {
		return
	}
	var err error
	if changed != nil {
		err = m.store.SaveShow(changed, index)
	} else {
		err = m.store.SaveApplied(index)
	}
	if err != nil {
		// The in-memory state stays authoritative; the snapshot lags until
		// the next successful write.
		m.logger.Error().Err(err).Uint64("index", index).Msg("failed to persist catalog snapshot")
	}
}

func (m *StateMachine) applyAddShow(cmd Command) *types.Show {
	if cmd.ShowID == "" || cmd.TotalSeats <= 0 {
		return nil
	}

	show, exists := m.shows[cmd.ShowID]
	if !exists {
		show = &types.Show{
			ShowID: cmd.ShowID,
			Seats:  make(map[int]*types.SeatRecord),
		}
		m.shows[cmd.ShowID] = show
	}
	show.TotalSeats = cmd.TotalSeats
	show.PriceCents = cmd.PriceCents

	eventType := events.EventShowAdded
	if exists {
		eventType = events.EventShowUpdated
	}
	m.publish(eventType, "show "+cmd.ShowID, map[string]string{
		"show_id":     cmd.ShowID,
		"total_seats": strconv.Itoa(cmd.TotalSeats),
	})
	return show
}

func (m *StateMachine) applyReserve(cmd Command) *types.Show {
	show, ok := m.shows[cmd.ShowID]
	if !ok || cmd.SeatID < 1 || cmd.SeatID > show.TotalSeats {
		return nil
	}
	if existing := show.Seats[cmd.SeatID]; existing != nil && existing.Reserved {
		return nil // at-most-once: re-applying reserve is a no-op
	}

	show.Seats[cmd.SeatID] = &types.SeatRecord{
		SeatID:     cmd.SeatID,
		ShowID:     cmd.ShowID,
		Reserved:   true,
		ReservedBy: cmd.UserID,
		ReservedAt: cmd.ReservedAt,
		BookingID:  cmd.BookingID,
		PriceCents: show.PriceCents,
	}

	m.publish(events.EventSeatReserved, "seat reserved", map[string]string{
		"show_id":    cmd.ShowID,
		"seat_id":    strconv.Itoa(cmd.SeatID),
		"user_id":    cmd.UserID,
		"booking_id": cmd.BookingID,
	})
	return show
}

func (m *StateMachine) applyRelease(cmd Command) *types.Show {
	show, ok := m.shows[cmd.ShowID]
	if !ok {
		return nil
	}
	existing := show.Seats[cmd.SeatID]
	if existing == nil || !existing.Reserved {
		return nil
	}

	delete(show.Seats, cmd.SeatID)
	m.publish(events.EventSeatReleased, "seat released", map[string]string{
		"show_id": cmd.ShowID,
		"seat_id": strconv.Itoa(cmd.SeatID),
	})
	return show
}

// QuerySeat returns the record for a seat. ok is false when the show is
// unknown or the seat id is out of range; unreserved seats come back as a
// synthesized available record carrying the show's price.
func (m *StateMachine) QuerySeat(showID string, seatID int) (types.SeatRecord, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, exists := m.shows[showID]
	if !exists || seatID < 1 || seatID > show.TotalSeats {
		return types.SeatRecord{}, false
	}
	return m.seatRecordLocked(show, seatID), true
}

// ShowPrice returns the price of a show.
func (m *StateMachine) ShowPrice(showID string) (int64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, exists := m.shows[showID]
	if !exists {
		return 0, false
	}
	return show.PriceCents, true
}

// ListSeats pages through a show's seats in seat-number order. pageToken is
// the zero-based offset of the first seat to return; the returned next
// token is 0 when pagination is complete.
func (m *StateMachine) ListSeats(showID string, pageSize, pageToken int) ([]types.SeatRecord, int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	show, exists := m.shows[showID]
	if !exists {
		return nil, 0, false
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageToken < 0 {
		pageToken = 0
	}

	start := pageToken
	if start >= show.TotalSeats {
		return []types.SeatRecord{}, 0, true
	}
	end := start + pageSize
	if end > show.TotalSeats {
		end = show.TotalSeats
	}

	records := make([]types.SeatRecord, 0, end-start)
	for seatID := start + 1; seatID <= end; seatID++ {
		records = append(records, m.seatRecordLocked(show, seatID))
	}

	next := end
	if end >= show.TotalSeats {
		next = 0
	}
	return records, next, true
}

// ListShows returns catalog summaries sorted by show id.
func (m *StateMachine) ListShows() []types.ShowInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]types.ShowInfo, 0, len(m.shows))
	for _, show := range m.shows {
		booked := 0
		for _, seat := range show.Seats {
			if seat.Reserved {
				booked++
			}
		}
		infos = append(infos, types.ShowInfo{
			ShowID:         show.ShowID,
			TotalSeats:     show.TotalSeats,
			PriceCents:     show.PriceCents,
			AvailableSeats: show.TotalSeats - booked,
			BookedSeats:    booked,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ShowID < infos[j].ShowID })
	return infos
}

func (m *StateMachine) seatRecordLocked(show *types.Show, seatID int) types.SeatRecord {
	if seat := show.Seats[seatID]; seat != nil {
		record := *seat
		record.PriceCents = show.PriceCents
		return record
	}
	return types.SeatRecord{
		SeatID:     seatID,
		ShowID:     show.ShowID,
		Reserved:   false,
		PriceCents: show.PriceCents,
	}
}

func (m *StateMachine) publish(eventType events.EventType, msg string, metadata map[string]string) {
	if m.broker == nil {
		return
	}
	m.broker.Publish(&events.Event{
		ID:       uuid.New().String(),
		Type:     eventType,
		Message:  msg,
		Metadata: metadata,
	})
}
