package payment

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ticketmesh/ticketmesh/pkg/log"
	"github.com/ticketmesh/ticketmesh/pkg/types"
)

func TestMain(m *testing.M) {
	log.Init(log.Config{Level: log.ErrorLevel})
	os.Exit(m.Run())
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(filepath.Join(t.TempDir(), "transactions.json"))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return s
}

func TestProcessPaymentApproves(t *testing.T) {
	s := newTestService(t)

	txn, _ := s.ProcessPayment("user-1", 2500, "USD", "4242424242424242")
	if txn.Status != types.TransactionCompleted {
		t.Fatalf("status = %s, want COMPLETED", txn.Status)
	}
	if txn.TransactionID == "" {
		t.Fatal("missing transaction id")
	}
	if txn.AmountCents != 2500 || txn.Currency != "USD" || txn.UserID != "user-1" {
		t.Fatalf("transaction = %+v", txn)
	}
	if txn.CardMasked != "XXXX-XXXX-XXXX-4242" {
		t.Fatalf("masked card = %q", txn.CardMasked)
	}
}

func TestProcessPaymentDeclinesSentinelCard(t *testing.T) {
	s := newTestService(t)

	txn, msg := s.ProcessPayment("user-1", 100, "USD", DeclinedCard)
	if txn.Status != types.TransactionFailed {
		t.Fatalf("status = %s, want FAILED", txn.Status)
	}
	if msg == "" {
		t.Fatal("declined charge returned no message")
	}

	// Declined charges still land in the ledger.
	stored, ok := s.QueryTransaction(txn.TransactionID)
	if !ok || stored.Status != types.TransactionFailed {
		t.Fatalf("declined transaction not recorded: %+v (%v)", stored, ok)
	}
}

func TestQueryTransactionNotFound(t *testing.T) {
	s := newTestService(t)
	if _, ok := s.QueryTransaction("no-such-txn"); ok {
		t.Fatal("found a transaction that was never made")
	}
}

func TestLedgerSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.json")
	s, err := NewService(path)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	txn, _ := s.ProcessPayment("user-1", 900, "USD", "1111")

	reloaded, err := NewService(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	stored, ok := reloaded.QueryTransaction(txn.TransactionID)
	if !ok {
		t.Fatal("transaction lost across restart")
	}
	if stored.AmountCents != 900 || stored.Status != types.TransactionCompleted {
		t.Fatalf("restored transaction = %+v", stored)
	}
}

func TestMaskCardShortNumbers(t *testing.T) {
	if got := maskCard("42"); got != "XXXX-XXXX-XXXX-42" {
		t.Fatalf("maskCard(42) = %q", got)
	}
	if got := maskCard(" 4242424242424242 "); got != "XXXX-XXXX-XXXX-4242" {
		t.Fatalf("maskCard with padding = %q", got)
	}
}
