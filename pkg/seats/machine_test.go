package seats

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel})
	os.Exit(m.Run())
}

func newTestMachine(t *testing.T) *StateMachine {
	t.Helper()
	m, err := NewStateMachine(nil, nil)
	if err != nil {
		t.Fatalf("NewStateMachine: %v", err)
	}
	return m
}

func apply(t *testing.T, m *StateMachine, index uint64, cmd Command) {
	t.Helper()
	payload, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m.Apply(index, payload)
}

func TestApplyAddShowAndReserve(t *testing.T) {
	m := newTestMachine(t)

	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "hamlet", TotalSeats: 10, PriceCents: 2500})
	apply(t, m, 2, Command{
		Type: CmdReserve, ShowID: "hamlet", SeatID: 3,
		UserID: "user-1", BookingID: "txn-1", ReservedAt: 1700000000000,
	})

	seat, ok := m.QuerySeat("hamlet", 3)
	if !ok {
		t.Fatal("QuerySeat returned not-found for a valid seat")
	}
	if !seat.Reserved || seat.ReservedBy != "user-1" || seat.BookingID != "txn-1" {
		t.Fatalf("seat = %+v", seat)
	}
	if seat.ReservedAt != 1700000000000 {
		t.Fatalf("ReservedAt = %d, want the command's timestamp", seat.ReservedAt)
	}
	if seat.PriceCents != 2500 {
		t.Fatalf("PriceCents = %d, want 2500", seat.PriceCents)
	}

	free, ok := m.QuerySeat("hamlet", 4)
	if !ok || free.Reserved {
		t.Fatalf("unreserved seat = %+v (%v)", free, ok)
	}
	if free.PriceCents != 2500 {
		t.Fatalf("synthesized record missing show price: %+v", free)
	}
	if m.AppliedIndex() != 2 {
		t.Fatalf("applied index = %d, want 2", m.AppliedIndex())
	}
}

func TestApplyReserveIsFirstWriterWins(t *testing.T) {
	m := newTestMachine(t)

	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "alice", BookingID: "txn-a"})
	apply(t, m, 3, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "bob", BookingID: "txn-b"})

	seat, _ := m.QuerySeat("s", 1)
	if seat.ReservedBy != "alice" || seat.BookingID != "txn-a" {
		t.Fatalf("second reserve overwrote the first: %+v", seat)
	}
	if m.AppliedIndex() != 3 {
		t.Fatalf("losing command must still advance the applied index, got %d", m.AppliedIndex())
	}
}

func TestApplyInvalidCommandsAreNoOps(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})

	cases := []Command{
		{Type: CmdReserve, ShowID: "missing", SeatID: 1, UserID: "u"},
		{Type: CmdReserve, ShowID: "s", SeatID: 0, UserID: "u"},
		{Type: CmdReserve, ShowID: "s", SeatID: 6, UserID: "u"},
		{Type: CmdRelease, ShowID: "s", SeatID: 2},
		{Type: CmdAddShow, ShowID: "", TotalSeats: 5},
		{Type: CmdAddShow, ShowID: "bad", TotalSeats: 0},
		{Type: "unknown", ShowID: "s"},
	}
	for i, cmd := range cases {
		apply(t, m, uint64(i+2), cmd)
	}

	// Malformed payloads advance the index too.
	m.Apply(uint64(len(cases)+2), []byte("{not json"))

	if m.AppliedIndex() != uint64(len(cases)+2) {
		t.Fatalf("applied index = %d, want %d", m.AppliedIndex(), len(cases)+2)
	}
	shows := m.ListShows()
	if len(shows) != 1 || shows[0].BookedSeats != 0 {
		t.Fatalf("no-op commands changed the catalog: %+v", shows)
	}
}

func TestApplyDuplicateIndexIgnored(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "alice", BookingID: "txn-a"})

	// Redelivery of index 2 with different content must not apply.
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 2, UserID: "bob", BookingID: "txn-b"})

	if seat, _ := m.QuerySeat("s", 2); seat.Reserved {
		t.Fatalf("duplicate index applied: %+v", seat)
	}
}

func TestApplyReleaseFreesSeat(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "alice", BookingID: "txn-a"})
	apply(t, m, 3, Command{Type: CmdRelease, ShowID: "s", SeatID: 1})

	seat, ok := m.QuerySeat("s", 1)
	if !ok || seat.Reserved {
		t.Fatalf("released seat = %+v (%v)", seat, ok)
	}

	// The seat is bookable again.
	apply(t, m, 4, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "bob", BookingID: "txn-b"})
	seat, _ = m.QuerySeat("s", 1)
	if seat.ReservedBy != "bob" {
		t.Fatalf("rebooking after release failed: %+v", seat)
	}
}

func TestApplyAddShowResizePreservesReservations(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 2, UserID: "alice", BookingID: "txn-a"})
	apply(t, m, 3, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 8, PriceCents: 150})

	seat, _ := m.QuerySeat("s", 2)
	if !seat.Reserved || seat.ReservedBy != "alice" {
		t.Fatalf("resize dropped a reservation: %+v", seat)
	}
	if _, ok := m.QuerySeat("s", 8); !ok {
		t.Fatal("new seats not addressable after resize")
	}
	shows := m.ListShows()
	if shows[0].TotalSeats != 8 || shows[0].PriceCents != 150 {
		t.Fatalf("resize not applied: %+v", shows[0])
	}
}

func TestDeterminismAcrossReplicas(t *testing.T) {
	commands := []Command{
		{Type: CmdAddShow, ShowID: "a", TotalSeats: 4, PriceCents: 100},
		{Type: CmdAddShow, ShowID: "b", TotalSeats: 2, PriceCents: 900},
		{Type: CmdReserve, ShowID: "a", SeatID: 1, UserID: "u1", BookingID: "t1", ReservedAt: 111},
		{Type: CmdReserve, ShowID: "a", SeatID: 1, UserID: "u2", BookingID: "t2", ReservedAt: 222},
		{Type: CmdReserve, ShowID: "b", SeatID: 2, UserID: "u3", BookingID: "t3", ReservedAt: 333},
		{Type: CmdRelease, ShowID: "a", SeatID: 1},
		{Type: CmdReserve, ShowID: "a", SeatID: 1, UserID: "u4", BookingID: "t4", ReservedAt: 444},
	}

	first := newTestMachine(t)
	second := newTestMachine(t)
	for i, cmd := range commands {
		apply(t, first, uint64(i+1), cmd)
		apply(t, second, uint64(i+1), cmd)
	}

	if !reflect.DeepEqual(first.ListShows(), second.ListShows()) {
		t.Fatalf("catalogs diverged:\n%+v\n%+v", first.ListShows(), second.ListShows())
	}
	for _, showID := range []string{"a", "b"} {
		firstSeats, _, _ := first.ListSeats(showID, 0, 0)
		secondSeats, _, _ := second.ListSeats(showID, 0, 0)
		if !reflect.DeepEqual(firstSeats, secondSeats) {
			t.Fatalf("seats of %s diverged:\n%+v\n%+v", showID, firstSeats, secondSeats)
		}
	}
}

func TestListSeatsPagination(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 10, PriceCents: 100})

	var collected []types.SeatRecord
	token := 0
	pages := 0
	for {
		page, next, ok := m.ListSeats("s", 4, token)
		if !ok {
			t.Fatal("ListSeats returned not-found")
		}
		collected = append(collected, page...)
		pages++
		if next == 0 {
			break
		}
		token = next
		if pages > 10 {
			t.Fatal("pagination did not terminate")
		}
	}

	if pages != 3 || len(collected) != 10 {
		t.Fatalf("got %d pages with %d seats, want 3 pages / 10 seats", pages, len(collected))
	}
	for i, seat := range collected {
		if seat.SeatID != i+1 {
			t.Fatalf("seat order broken at position %d: %+v", i, seat)
		}
	}

	// Token past the end yields an empty terminal page.
	page, next, ok := m.ListSeats("s", 4, 99)
	if !ok || len(page) != 0 || next != 0 {
		t.Fatalf("past-the-end page = %+v next=%d ok=%v", page, next, ok)
	}

	if _, _, ok := m.ListSeats("missing", 4, 0); ok {
		t.Fatal("ListSeats found an unknown show")
	}
}

func TestListShowsCounts(t *testing.T) {
	m := newTestMachine(t)
	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "z", TotalSeats: 3, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdAddShow, ShowID: "a", TotalSeats: 5, PriceCents: 200})
	apply(t, m, 3, Command{Type: CmdReserve, ShowID: "a", SeatID: 1, UserID: "u", BookingID: "t"})
	apply(t, m, 4, Command{Type: CmdReserve, ShowID: "a", SeatID: 2, UserID: "u", BookingID: "t2"})

	shows := m.ListShows()
	if len(shows) != 2 || shows[0].ShowID != "a" || shows[1].ShowID != "z" {
		t.Fatalf("shows not sorted by id: %+v", shows)
	}
	if shows[0].BookedSeats != 2 || shows[0].AvailableSeats != 3 {
		t.Fatalf("counts for a = %+v", shows[0])
	}
	if shows[1].BookedSeats != 0 || shows[1].AvailableSeats != 3 {
		t.Fatalf("counts for z = %+v", shows[1])
	}
}

func TestSnapshotRestoreAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	store, err := OpenStore(path)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	m, err := NewStateMachine(store, nil)
	if err != nil {
		t.Fatalf("NewStateMachine: %v", err)
	}

	apply(t, m, 1, Command{Type: CmdAddShow, ShowID: "s", TotalSeats: 5, PriceCents: 100})
	apply(t, m, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 4, UserID: "alice", BookingID: "txn-a", ReservedAt: 42})
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := OpenStore(path)
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer reopened.Close()

	restored, err := NewStateMachine(reopened, nil)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.AppliedIndex() != 2 {
		t.Fatalf("restored applied index = %d, want 2", restored.AppliedIndex())
	}
	seat, ok := restored.QuerySeat("s", 4)
	if !ok || !seat.Reserved || seat.ReservedBy != "alice" || seat.ReservedAt != 42 {
		t.Fatalf("restored seat = %+v (%v)", seat, ok)
	}

	// Replayed entries at or below the snapshot index are ignored.
	apply(t, restored, 2, Command{Type: CmdReserve, ShowID: "s", SeatID: 1, UserID: "bob", BookingID: "txn-b"})
	if seat, _ := restored.QuerySeat("s", 1); seat.Reserved {
		t.Fatalf("replayed entry applied after restore: %+v", seat)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	cmd := Command{
		Type: CmdReserve, ShowID: "s", SeatID: 7,
		UserID: "u", BookingID: "b", ReservedAt: 123,
	}
	payload, err := cmd.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := DecodeCommand(payload)
	if err != nil {
		t.Fatalf("DecodeCommand: %v", err)
	}
	if decoded != cmd {
		t.Fatalf("round trip changed the command: %+v != %+v", decoded, cmd)
	}
	if _, err := DecodeCommand([]byte("nope")); err == nil {
		t.Fatal("DecodeCommand accepted garbage")
	}
}
